package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
)

// Sweeper - то, что умеет удалять просроченные коды.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// OTPSweeper периодически чистит просроченные коды и журнал токенов.
type OTPSweeper struct {
	store    Sweeper
	cache    *CacheService
	interval time.Duration
	clock    clockwork.Clock
	log      *logrus.Entry
}

func NewOTPSweeper(store Sweeper, cache *CacheService, interval time.Duration, clock clockwork.Clock) *OTPSweeper {
	if interval <= 0 {
		interval = models.OTPSweepInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OTPSweeper{
		store:    store,
		cache:    cache,
		interval: interval,
		clock:    clock,
		log:      logger.WithComponent("otp_sweeper"),
	}
}

// Run блокируется до отмены ctx.
func (w *OTPSweeper) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("sweeper запущен")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("sweeper остановлен")
			return
		case <-ticker.Chan():
			w.sweepOnce(ctx)
		}
	}
}

func (w *OTPSweeper) sweepOnce(ctx context.Context) {
	n, err := w.store.SweepExpired(ctx)
	if err != nil {
		w.log.WithError(err).Warn("не удалось удалить просроченные коды")
	} else if n > 0 {
		w.log.WithField("deleted", n).Info("просроченные коды удалены")
	}
	if w.cache != nil {
		w.cache.Cleanup()
	}
}
