package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Capstonepdm/Katipudroid/internal/models"
)

type FeedbackRepository struct {
	mu        sync.RWMutex
	feedbacks []models.Feedback
}

func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.feedbacks = append(r.feedbacks, *f)
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	r.mu.RLock()
	visible := make([]models.Feedback, 0, len(r.feedbacks))
	for _, f := range r.feedbacks {
		if f.Status == models.FeedbackStatusDeleted {
			continue
		}
		visible = append(visible, f)
	}
	r.mu.RUnlock()

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

func (r *FeedbackRepository) RatingDistribution(ctx context.Context) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dist := make(map[int]int)
	for _, f := range r.feedbacks {
		if f.Status == models.FeedbackStatusDeleted {
			continue
		}
		dist[f.Rating]++
	}
	return dist, nil
}

// All возвращает копию всех отзывов, включая удалённые.
func (r *FeedbackRepository) All() []models.Feedback {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Feedback, len(r.feedbacks))
	copy(out, r.feedbacks)
	return out
}
