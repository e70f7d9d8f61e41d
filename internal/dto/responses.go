package dto

import (
	"time"
	"unicode/utf8"

	"github.com/Capstonepdm/Katipudroid/internal/models"
)

// FeedbackDateLayout - формат отображаемой даты в списке отзывов.
const FeedbackDateLayout = "Jan 2, 2006 3:04 PM"

// FeedbackResponse - отзыв в публичном списке. Email не отдаётся.
type FeedbackResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Message       string    `json:"message"`
	Rating        int       `json:"rating"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	FormattedDate string    `json:"formatted_date"`
	MessageLength int       `json:"message_length"`
}

func NewFeedbackResponse(f *models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:            f.ID.String(),
		Name:          f.Name,
		Message:       f.Message,
		Rating:        f.Rating,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
		FormattedDate: f.CreatedAt.Format(FeedbackDateLayout),
		MessageLength: utf8.RuneCountInString(f.Message),
	}
}

func NewFeedbackList(items []models.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for i := range items {
		out = append(out, NewFeedbackResponse(&items[i]))
	}
	return out
}

// FeedbackEvent - сообщение в websocket потоке списка.
type FeedbackEvent struct {
	Type string           `json:"type"`
	Data FeedbackResponse `json:"data"`
}

const EventFeedbackCreated = "feedback.created"
