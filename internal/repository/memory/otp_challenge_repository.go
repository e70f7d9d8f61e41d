// Package memory - хранилище в памяти процесса. Используется в тестах и
// при STORAGE_DRIVER=memory для локальной разработки.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/repository"
)

type OTPChallengeRepository struct {
	mu         sync.RWMutex
	challenges []models.OTPChallenge
}

func NewOTPChallengeRepository() *OTPChallengeRepository {
	return &OTPChallengeRepository{}
}

func (r *OTPChallengeRepository) Create(ctx context.Context, ch *models.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.challenges = append(r.challenges, *ch)
	return nil
}

// FindUnconsumed возвращает первый по времени выпуска подходящий challenge.
func (r *OTPChallengeRepository) FindUnconsumed(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.OTPChallenge
	for i := range r.challenges {
		ch := r.challenges[i]
		if ch.Email != email || ch.CodeHash != codeHash || ch.Consumed {
			continue
		}
		if found == nil || ch.CreatedAt.Before(found.CreatedAt) {
			found = &ch
		}
	}
	if found == nil {
		return nil, repository.ErrChallengeNotFound
	}
	return found, nil
}

func (r *OTPChallengeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, ch := range r.challenges {
		if ch.ID == id {
			r.challenges = append(r.challenges[:i], r.challenges[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *OTPChallengeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.challenges[:0]
	var deleted int64
	for _, ch := range r.challenges {
		if !ch.ExpiresAt.After(now) {
			deleted++
			continue
		}
		kept = append(kept, ch)
	}
	r.challenges = kept
	return deleted, nil
}

// All возвращает копию всех challenge.
func (r *OTPChallengeRepository) All() []models.OTPChallenge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.OTPChallenge, len(r.challenges))
	copy(out, r.challenges)
	return out
}
