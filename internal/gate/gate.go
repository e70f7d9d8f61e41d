// Package gate - клиентская сторона отправки отзыва: форма ждёт подтверждения
// email одноразовым кодом, и только потом отзыв уходит на сервер.
package gate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
	"github.com/Capstonepdm/Katipudroid/internal/validation"
)

type State int

const (
	Idle State = iota
	AwaitingOTP
	Verifying
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingOTP:
		return "awaiting_otp"
	case Verifying:
		return "verifying"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

const DefaultReadyTimeout = 10 * time.Second

var (
	ErrClosed         = apperror.New(apperror.ErrCodeConflict, "Feedback session is closed")
	ErrWrongState     = apperror.New(apperror.ErrCodeConflict, "Action is not available right now")
	ErrNothingToRetry = apperror.New(apperror.ErrCodeConflict, "There is no verified submission to retry")
)

// Form - данные формы отзыва.
type Form struct {
	Name    string
	Email   string
	Message string
	Rating  int
}

func (f Form) normalized() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
		Rating:  f.Rating,
	}
}

// Backend - серверная часть: выпуск кода, проверка и запись отзыва.
type Backend interface {
	IssueOTP(ctx context.Context, email, name string) error
	VerifyOTP(ctx context.Context, email, code string) (token string, err error)
	SubmitFeedback(ctx context.Context, form Form, token string) (id string, err error)
}

// Refresher обновляет список отзывов после успешной отправки.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

type Options struct {
	Clock        clockwork.Clock
	Readiness    *Readiness
	ReadyTimeout time.Duration
	Refresher    Refresher
	Logger       *logrus.Entry

	OnTransition       func(from, to State)
	OnCountdownExpired func()
}

// Snapshot - состояние сессии на момент вызова.
type Snapshot struct {
	State         State
	Pending       Form
	OTPSent       bool
	Code          string
	Remaining     time.Duration
	ResendEnabled bool
	CanRetry      bool
	Message       string
	LastID        string
}

type transition struct{ from, to State }

// Gate хранит состояние одной сессии формы. Безопасен для конкурентного использования.
type Gate struct {
	backend Backend
	opts    Options
	clock   clockwork.Clock
	log     *logrus.Entry

	mu      sync.Mutex
	state   State
	pending Form
	otpSent bool
	code    string
	token   string
	message string
	lastID  string

	deadline         time.Time
	resendAt         time.Time
	countdownStopped bool
	forceResend      bool
	timer            clockwork.Timer

	inFlight bool
	epoch    uint64
	ready    bool
	closed   bool

	notify []transition
}

func New(backend Backend, opts Options) *Gate {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Readiness == nil {
		opts.Readiness = Ready()
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithComponent("gate")
	}
	return &Gate{
		backend: backend,
		opts:    opts,
		clock:   opts.Clock,
		log:     opts.Logger,
	}
}

// Submit проверяет форму и запрашивает код. Пока предыдущий вызов не завершён,
// повторный ничего не делает.
func (g *Gate) Submit(ctx context.Context, form Form) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil
	}
	if g.state != Idle {
		g.mu.Unlock()
		return ErrWrongState
	}

	form = form.normalized()
	if err := validation.ValidateFeedback(form.Name, form.Email, form.Message, form.Rating); err != nil {
		g.message = apperror.MessageOf(err)
		g.mu.Unlock()
		return err
	}

	g.inFlight = true
	g.message = ""
	epoch := g.epoch
	g.mu.Unlock()

	err := g.awaitReady(ctx)
	if err == nil {
		err = g.backend.IssueOTP(ctx, form.Email, form.Name)
	}

	g.mu.Lock()
	if epoch != g.epoch {
		g.mu.Unlock()
		return nil
	}
	g.inFlight = false
	if err != nil {
		g.message = apperror.MessageOf(err)
		g.mu.Unlock()
		g.log.WithError(err).Warn("не удалось запросить код")
		return err
	}

	g.pending = form
	g.otpSent = true
	g.code = ""
	g.token = ""
	g.message = "OTP sent to " + form.Email
	g.startCountdownLocked()
	g.setStateLocked(AwaitingOTP)
	g.unlockAndNotify()
	return nil
}

// EnterCode принимает ввод кода. Нецифровые символы отбрасываются,
// при шести цифрах код автоматически уходит на проверку.
func (g *Gate) EnterCode(ctx context.Context, input string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil
	}
	if g.state != AwaitingOTP {
		g.mu.Unlock()
		return ErrWrongState
	}

	g.code = validation.DigitsOnly(input, models.OTPCodeLength)
	if len(g.code) < models.OTPCodeLength {
		g.mu.Unlock()
		return nil
	}

	code := g.code
	form := g.pending
	g.inFlight = true
	g.message = ""
	epoch := g.epoch
	g.setStateLocked(Verifying)
	g.unlockAndNotify()

	token, err := g.verify(ctx, form.Email, code)

	g.mu.Lock()
	if epoch != g.epoch {
		g.mu.Unlock()
		return nil
	}
	if err != nil {
		g.inFlight = false
		g.code = ""
		g.message = apperror.MessageOf(err)
		if apperror.IsExpired(err) {
			g.expireCountdownLocked()
		}
		g.setStateLocked(AwaitingOTP)
		g.unlockAndNotify()
		return err
	}
	g.token = token
	g.mu.Unlock()

	return g.write(ctx, epoch, form, token)
}

func (g *Gate) verify(ctx context.Context, email, code string) (string, error) {
	if err := g.awaitReady(ctx); err != nil {
		return "", err
	}
	return g.backend.VerifyOTP(ctx, email, code)
}

// RetrySubmit повторяет запись отзыва с уже полученным токеном подтверждения.
func (g *Gate) RetrySubmit(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil
	}
	if g.state != AwaitingOTP || g.token == "" {
		g.mu.Unlock()
		return ErrNothingToRetry
	}

	form, token := g.pending, g.token
	g.inFlight = true
	g.message = ""
	epoch := g.epoch
	g.setStateLocked(Verifying)
	g.unlockAndNotify()

	return g.write(ctx, epoch, form, token)
}

// write отправляет отзыв. Вызывается в состоянии Verifying с поднятым inFlight.
func (g *Gate) write(ctx context.Context, epoch uint64, form Form, token string) error {
	id, err := g.backend.SubmitFeedback(ctx, form, token)

	g.mu.Lock()
	if epoch != g.epoch {
		g.mu.Unlock()
		return nil
	}
	if err != nil {
		g.inFlight = false
		g.code = ""
		g.forceResend = true
		// токен уже погашен или отвергнут, повтор бесполезен
		if apperror.Is(err, apperror.ErrCodeDuplicateSubmission) || apperror.Is(err, apperror.ErrCodeUnauthorized) {
			g.token = ""
		}
		g.message = apperror.MessageOf(err)
		g.setStateLocked(AwaitingOTP)
		g.unlockAndNotify()
		g.log.WithError(err).Warn("отзыв не сохранён")
		return err
	}

	g.lastID = id
	g.clearSessionLocked()
	g.message = "Thank you! Your feedback has been submitted."
	g.setStateLocked(Submitted)
	g.unlockAndNotify()

	if g.opts.Refresher != nil {
		if err := g.opts.Refresher.Refresh(ctx); err != nil {
			g.log.WithError(err).Warn("не удалось обновить список отзывов")
		}
	}

	g.mu.Lock()
	if epoch == g.epoch {
		g.inFlight = false
		g.setStateLocked(Idle)
	}
	g.unlockAndNotify()
	return nil
}

// Resend выпускает новый код. Разрешён в последние 60 секунд отсчёта,
// после его окончания или после неудачной записи.
func (g *Gate) Resend(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil
	}
	if g.state != AwaitingOTP {
		g.mu.Unlock()
		return ErrWrongState
	}
	if !g.resendEnabledLocked(g.clock.Now()) {
		g.mu.Unlock()
		return apperror.ErrResendCooldown
	}

	form := g.pending
	g.inFlight = true
	g.message = ""
	epoch := g.epoch
	g.mu.Unlock()

	err := g.awaitReady(ctx)
	if err == nil {
		err = g.backend.IssueOTP(ctx, form.Email, form.Name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if epoch != g.epoch {
		return nil
	}
	g.inFlight = false
	if err != nil {
		g.message = apperror.MessageOf(err)
		return err
	}

	g.code = ""
	g.token = ""
	g.message = "A new OTP has been sent to " + form.Email
	g.startCountdownLocked()
	return nil
}

// Reset отбрасывает форму и отсчёт. Результаты незавершённых вызовов игнорируются.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.epoch++
	g.inFlight = false
	g.clearSessionLocked()
	g.message = ""
	g.setStateLocked(Idle)
	g.unlockAndNotify()
}

// Close сбрасывает сессию и запрещает дальнейшие действия.
func (g *Gate) Close() {
	g.Reset()
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	snap := Snapshot{
		State:   g.state,
		Pending: g.pending,
		OTPSent: g.otpSent,
		Code:    g.code,
		Message: g.message,
		LastID:  g.lastID,
	}
	if g.otpSent {
		snap.Remaining = g.remainingLocked(now)
		snap.ResendEnabled = g.resendEnabledLocked(now)
		snap.CanRetry = g.token != ""
	}
	return snap
}

func (g *Gate) awaitReady(ctx context.Context) error {
	g.mu.Lock()
	ready := g.ready
	g.mu.Unlock()
	if ready {
		return nil
	}

	if err := g.opts.Readiness.Wait(ctx, g.clock, g.opts.ReadyTimeout); err != nil {
		if apperror.CodeOf(err) == apperror.ErrCodeInternal {
			return apperror.StorageUnavailable(err, "")
		}
		return err
	}

	g.mu.Lock()
	g.ready = true
	g.mu.Unlock()
	return nil
}

func (g *Gate) startCountdownLocked() {
	g.stopTimerLocked()

	now := g.clock.Now()
	g.deadline = now.Add(models.OTPTTL)
	g.resendAt = now.Add(models.OTPResendCooldown)
	g.countdownStopped = false
	g.forceResend = false

	epoch, deadline := g.epoch, g.deadline
	g.timer = g.clock.AfterFunc(models.OTPTTL, func() {
		g.onCountdownElapsed(epoch, deadline)
	})
}

func (g *Gate) onCountdownElapsed(epoch uint64, deadline time.Time) {
	g.mu.Lock()
	if epoch != g.epoch || !deadline.Equal(g.deadline) || g.countdownStopped {
		g.mu.Unlock()
		return
	}
	g.expireCountdownLocked()
	cb := g.opts.OnCountdownExpired
	g.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (g *Gate) expireCountdownLocked() {
	g.stopTimerLocked()
	g.countdownStopped = true
	g.forceResend = true
}

func (g *Gate) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Gate) remainingLocked(now time.Time) time.Duration {
	if g.countdownStopped {
		return 0
	}
	if left := g.deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

func (g *Gate) resendEnabledLocked(now time.Time) bool {
	if !g.otpSent {
		return false
	}
	return g.forceResend || g.countdownStopped || !now.Before(g.resendAt)
}

func (g *Gate) clearSessionLocked() {
	g.stopTimerLocked()
	g.pending = Form{}
	g.otpSent = false
	g.code = ""
	g.token = ""
	g.deadline = time.Time{}
	g.resendAt = time.Time{}
	g.countdownStopped = false
	g.forceResend = false
}

func (g *Gate) setStateLocked(to State) {
	if g.state == to {
		return
	}
	g.notify = append(g.notify, transition{from: g.state, to: to})
	g.state = to
}

// unlockAndNotify снимает блокировку и вызывает OnTransition вне её.
func (g *Gate) unlockAndNotify() {
	pending := g.notify
	g.notify = nil
	g.mu.Unlock()

	for _, t := range pending {
		g.log.WithFields(logrus.Fields{"from": t.from.String(), "to": t.to.String()}).Debug("переход")
		if g.opts.OnTransition != nil {
			g.opts.OnTransition(t.from, t.to)
		}
	}
}
