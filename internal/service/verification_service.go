package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/mail"
	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
	"github.com/Capstonepdm/Katipudroid/internal/repository"
	"github.com/Capstonepdm/Katipudroid/internal/validation"
)

// OTPChallengeRepository - хранилище выпущенных кодов (postgres, mongo или память).
type OTPChallengeRepository interface {
	Create(ctx context.Context, ch *models.OTPChallenge) error
	FindUnconsumed(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error)
	// Delete сообщает, была ли запись удалена именно этим вызовом.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OTPMailer доставляет код пользователю.
type OTPMailer interface {
	SendOTP(ctx context.Context, to mail.Recipient, code string) error
}

// VerificationResult - ответ на успешную проверку кода.
type VerificationResult struct {
	Token     string
	ExpiresAt time.Time
}

type VerificationService struct {
	repo     OTPChallengeRepository
	mailer   OTPMailer
	tokens   *VerificationTokenManager
	hasher   *CodeHasher
	clock    clockwork.Clock
	generate func() string
	log      *logrus.Entry
}

// VerificationOption настраивает сервис (в основном для тестов).
type VerificationOption func(*VerificationService)

func WithClock(c clockwork.Clock) VerificationOption {
	return func(s *VerificationService) { s.clock = c }
}

func WithCodeGenerator(gen func() string) VerificationOption {
	return func(s *VerificationService) { s.generate = gen }
}

func NewVerificationService(
	repo OTPChallengeRepository,
	mailer OTPMailer,
	tokens *VerificationTokenManager,
	hasher *CodeHasher,
	opts ...VerificationOption,
) *VerificationService {
	s := &VerificationService{
		repo:     repo,
		mailer:   mailer,
		tokens:   tokens,
		hasher:   hasher,
		clock:    clockwork.NewRealClock(),
		generate: GenerateOTPCode,
		log:      logger.WithComponent("otp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue сохраняет новый challenge со сроком жизни 10 минут.
// Предыдущие коды для того же email не трогаются.
func (s *VerificationService) Issue(ctx context.Context, email, code string) (uuid.UUID, error) {
	email = validation.NormalizeEmail(email)
	now := s.clock.Now().UTC()

	ch := &models.OTPChallenge{
		ID:        uuid.New(),
		Email:     email,
		CodeHash:  s.hasher.Hash(email, code),
		CreatedAt: now,
		ExpiresAt: now.Add(models.OTPTTL),
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		return uuid.Nil, apperror.StorageUnavailable(err, "")
	}
	return ch.ID, nil
}

// VerifyAndConsume проверяет код и удаляет challenge. Просроченный challenge
// тоже удаляется, повторная проверка того же кода даёт InvalidCode.
func (s *VerificationService) VerifyAndConsume(ctx context.Context, email, code string) error {
	if !validation.IsOTPCode(code) {
		return apperror.ErrInvalidCode
	}
	email = validation.NormalizeEmail(email)

	ch, err := s.repo.FindUnconsumed(ctx, email, s.hasher.Hash(email, code))
	if errors.Is(err, repository.ErrChallengeNotFound) {
		return apperror.ErrInvalidCode
	}
	if err != nil {
		return apperror.StorageUnavailable(err, "")
	}

	if ch.IsExpired(s.clock.Now()) {
		if _, err := s.repo.Delete(ctx, ch.ID); err != nil {
			s.log.WithError(err).WithField("challenge_id", ch.ID).Warn("не удалось удалить просроченный код")
		}
		return apperror.ErrExpired
	}

	// Параллельная проверка того же кода могла удалить challenge раньше нас.
	deleted, err := s.repo.Delete(ctx, ch.ID)
	if err != nil {
		return apperror.StorageUnavailable(err, "")
	}
	if !deleted {
		return apperror.ErrInvalidCode
	}
	return nil
}

// SweepExpired удаляет все challenge с expires_at <= now.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, apperror.StorageUnavailable(err, "")
	}
	return n, nil
}

// Send проверяет адрес, выпускает код и отправляет его письмом.
func (s *VerificationService) Send(ctx context.Context, email, name string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidateLength("Name", name, 0, validation.MaxNameLength); err != nil {
		return err
	}

	code := s.generate()
	id, err := s.Issue(ctx, email, code)
	if err != nil {
		return err
	}

	to := mail.Recipient{Email: validation.NormalizeEmail(email), Name: name}
	if err := s.mailer.SendOTP(ctx, to, code); err != nil {
		s.log.WithError(err).WithField("challenge_id", id).Error("не удалось отправить код")
		return apperror.StorageUnavailable(err, "Failed to send OTP email")
	}

	s.log.WithField("challenge_id", id).Info("код отправлен")
	return nil
}

// Verify погашает код и выдаёт токен подтверждения для отправки отзыва.
func (s *VerificationService) Verify(ctx context.Context, email, code string) (*VerificationResult, error) {
	if err := validation.ValidateNonEmpty("Email", email); err != nil {
		return nil, err
	}
	code = validation.DigitsOnly(code, models.OTPCodeLength+1)
	if err := s.VerifyAndConsume(ctx, email, code); err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.Issue(validation.NormalizeEmail(email))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &VerificationResult{Token: token, ExpiresAt: exp}, nil
}
