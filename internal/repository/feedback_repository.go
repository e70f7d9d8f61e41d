package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Capstonepdm/Katipudroid/internal/models"
)

const feedbackColumns = `id, name, email, message, rating, status, ip_address, user_agent, created_at`

type FeedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create сохраняет отзыв одной вставкой.
func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO feedbacks (`+feedbackColumns+`)
		VALUES (:id, :name, :email, :message, :rating, :status, :ip_address, :user_agent, :created_at)
	`, f)
	if err != nil {
		return fmt.Errorf("feedback repository: create %w", err)
	}
	return nil
}

// List возвращает видимые отзывы, новые первыми. limit <= 0 - без ограничения.
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedbacks
		WHERE COALESCE(status, 'new') <> 'deleted'
		ORDER BY created_at DESC`

	feedbacks := make([]models.Feedback, 0)
	var err error
	if limit > 0 {
		err = r.db.SelectContext(ctx, &feedbacks, query+` LIMIT $1`, limit)
	} else {
		err = r.db.SelectContext(ctx, &feedbacks, query)
	}
	if err != nil {
		return nil, fmt.Errorf("feedback repository: list %w", err)
	}
	return feedbacks, nil
}

// RatingDistribution считает количество видимых отзывов по каждому рейтингу.
func (r *FeedbackRepository) RatingDistribution(ctx context.Context) (map[int]int, error) {
	var rows []struct {
		Rating int `db:"rating"`
		Count  int `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT rating, COUNT(*) AS count
		FROM feedbacks
		WHERE COALESCE(status, 'new') <> 'deleted'
		GROUP BY rating
	`)
	if err != nil {
		return nil, fmt.Errorf("feedback repository: rating distribution %w", err)
	}

	dist := make(map[int]int, len(rows))
	for _, row := range rows {
		dist[row.Rating] = row.Count
	}
	return dist, nil
}
