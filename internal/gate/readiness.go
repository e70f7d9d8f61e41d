package gate

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

// ErrNotReady - бэкенд не подтвердил готовность за отведённое время.
var ErrNotReady = apperror.New(apperror.ErrCodeStorageUnavailable, "Service is not ready yet, please try again later")

// Readiness - однократный сигнал готовности бэкенда.
type Readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// Ready возвращает уже выставленный сигнал.
func Ready() *Readiness {
	r := NewReadiness()
	r.Signal(nil)
	return r
}

// Signal выставляет результат. Повторные вызовы игнорируются.
func (r *Readiness) Signal(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait ждёт сигнала не дольше timeout.
func (r *Readiness) Wait(ctx context.Context, clock clockwork.Clock, timeout time.Duration) error {
	select {
	case <-r.done:
		return r.err
	default:
	}

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(timeout):
		return ErrNotReady
	}
}
