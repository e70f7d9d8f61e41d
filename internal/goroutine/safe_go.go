package goroutine

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover("goroutine (with context)")
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(where string) {
	if r := recover(); r != nil {
		rh.logger.Errorf("Panic in %s: %v\nStack trace:\n%s", where, r, debug.Stack())
	}
}

// logrusLogger отдаёт ошибки в глобальный logrus логгер. Берёт логгер
// в момент вызова, чтобы работать и до logger.Init.
type logrusLogger struct{}

func (logrusLogger) Errorf(format string, args ...interface{}) {
	logger.WithComponent("goroutine").Errorf(format, args...)
}

// DefaultRecoveryHandler - глобальный обработчик, пишущий в logrus
var DefaultRecoveryHandler = NewRecoveryHandler(logrusLogger{})

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}

// Group запускает именованные фоновые задачи и позволяет дождаться их
// остановки при завершении сервера.
type Group struct {
	rh *RecoveryHandler
	wg sync.WaitGroup
}

func NewGroup(logger Logger) *Group {
	if logger == nil {
		logger = logrusLogger{}
	}
	return &Group{rh: NewRecoveryHandler(logger)}
}

// Go запускает fn(ctx). Panic логируется с именем задачи.
func (g *Group) Go(ctx context.Context, name string, fn func(context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.rh.recover(name)
		fn(ctx)
	}()
}

// Wait ждёт завершения всех задач не дольше timeout. false - не дождались.
func (g *Group) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
