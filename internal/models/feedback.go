package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback описывает отзыв о игре.
type Feedback struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"-"`
	Message   string    `db:"message" json:"message"`
	Rating    int       `db:"rating" json:"rating"`
	Status    string    `db:"status" json:"status"`
	IPAddress *string   `db:"ip_address" json:"-"`
	UserAgent *string   `db:"user_agent" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedbackInput - данные формы отзыва до сохранения.
type FeedbackInput struct {
	Name      string
	Email     string
	Message   string
	Rating    int
	IPAddress string
	UserAgent string
}

// RatingSummary - агрегат по рейтингам видимых отзывов.
type RatingSummary struct {
	Total        int         `json:"total"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}
