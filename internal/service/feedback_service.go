package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
	"github.com/Capstonepdm/Katipudroid/internal/validation"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	List(ctx context.Context, limit int) ([]models.Feedback, error)
	RatingDistribution(ctx context.Context) (map[int]int, error)
}

// FeedbackNotifier сообщает подписчикам списка о новом отзыве.
type FeedbackNotifier interface {
	FeedbackCreated(f *models.Feedback)
}

type FeedbackService struct {
	repo     FeedbackRepository
	notifier FeedbackNotifier
	tokens   *VerificationTokenManager
	used     *CacheService
	clock    clockwork.Clock
	log      *logrus.Entry
}

func NewFeedbackService(
	repo FeedbackRepository,
	notifier FeedbackNotifier,
	tokens *VerificationTokenManager,
	used *CacheService,
	clock clockwork.Clock,
) *FeedbackService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FeedbackService{
		repo:     repo,
		notifier: notifier,
		tokens:   tokens,
		used:     used,
		clock:    clock,
		log:      logger.WithComponent("feedback"),
	}
}

// Write сохраняет отзыв со статусом "new" и серверным временем создания.
func (s *FeedbackService) Write(ctx context.Context, in models.FeedbackInput) (*models.Feedback, error) {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)
	message := strings.TrimSpace(in.Message)

	if err := validation.ValidateFeedback(name, email, message, in.Rating); err != nil {
		return nil, err
	}

	f := &models.Feedback{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Message:   message,
		Rating:    in.Rating,
		Status:    models.FeedbackStatusNew,
		IPAddress: optional(in.IPAddress),
		UserAgent: optional(in.UserAgent),
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.log.WithError(err).Error("не удалось сохранить отзыв")
		return nil, apperror.StorageUnavailable(err, "Failed to submit feedback. Please try again.")
	}

	if s.notifier != nil {
		s.notifier.FeedbackCreated(f)
	}
	return f, nil
}

// SubmitVerified проверяет токен подтверждения и сохраняет отзыв.
// Токен погашается только успешной записью.
func (s *FeedbackService) SubmitVerified(ctx context.Context, token string, in models.FeedbackInput) (*models.Feedback, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if validation.NormalizeEmail(in.Email) != claims.Email {
		return nil, apperror.ErrEmailMismatch
	}

	key := UsedTokenCacheKey(claims.ID)
	ttl := claims.Exp.Sub(s.clock.Now()) + time.Minute
	if !s.used.SetIfAbsent(key, claims.Email, ttl) {
		return nil, apperror.ErrVerificationUsed
	}

	f, err := s.Write(ctx, in)
	if err != nil {
		s.used.Delete(key)
		return nil, err
	}
	return f, nil
}

// ParseToken проверяет токен подтверждения и возвращает его клеймы.
func (s *FeedbackService) ParseToken(token string) (*VerificationClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.Wrap(errEmptyToken, apperror.ErrCodeUnauthorized, apperror.ErrVerificationRequired.Message)
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, apperror.ErrVerificationRequired.Message)
	}
	return claims, nil
}

// List возвращает отзывы от новых к старым без удалённых. limit <= 0 - все.
func (s *FeedbackService) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperror.StorageUnavailable(err, "Failed to load feedbacks")
	}
	return items, nil
}

// Summary считает количество, средний рейтинг и распределение по звёздам.
func (s *FeedbackService) Summary(ctx context.Context) (*models.RatingSummary, error) {
	dist, err := s.repo.RatingDistribution(ctx)
	if err != nil {
		return nil, apperror.StorageUnavailable(err, "Failed to load feedbacks")
	}

	summary := &models.RatingSummary{Distribution: make(map[int]int, models.MaxRating)}
	sum := 0
	for r := models.MinRating; r <= models.MaxRating; r++ {
		count := dist[r]
		summary.Distribution[r] = count
		summary.Total += count
		sum += r * count
	}
	if summary.Total > 0 {
		summary.Average = math.Round(float64(sum)/float64(summary.Total)*10) / 10
	}
	return summary, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
