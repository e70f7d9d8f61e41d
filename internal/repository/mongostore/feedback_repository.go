package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
)

type feedbackDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Message   string    `bson:"message"`
	Rating    int       `bson:"rating"`
	Status    string    `bson:"status,omitempty"`
	IPAddress *string   `bson:"ip_address"`
	UserAgent *string   `bson:"user_agent"`
	CreatedAt time.Time `bson:"created_at"`
}

func toFeedbackDocument(f *models.Feedback) feedbackDocument {
	return feedbackDocument{
		ID:        f.ID.String(),
		Name:      f.Name,
		Email:     f.Email,
		Message:   f.Message,
		Rating:    f.Rating,
		Status:    f.Status,
		IPAddress: f.IPAddress,
		UserAgent: f.UserAgent,
		CreatedAt: f.CreatedAt,
	}
}

func (d feedbackDocument) toModel() (models.Feedback, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("feedback %q: %w", d.ID, err)
	}
	// Старые документы из Firestore-эпохи могли не иметь статуса и рейтинга
	status := d.Status
	if status == "" {
		status = models.FeedbackStatusNew
	}
	rating := d.Rating
	if rating == 0 {
		rating = models.DefaultRating
	}
	return models.Feedback{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Message:   d.Message,
		Rating:    rating,
		Status:    status,
		IPAddress: d.IPAddress,
		UserAgent: d.UserAgent,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

var visibleFeedbackFilter = bson.M{"status": bson.M{"$ne": models.FeedbackStatusDeleted}}

type FeedbackRepository struct {
	coll *mongo.Collection
	log  *logrus.Entry
}

func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{
		coll: db.Collection(FeedbacksCollection),
		log:  logger.WithComponent("mongo_feedbacks"),
	}
}

// EnsureIndexes создаёт индекс для сортировки по дате.
func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo feedback repository: indexes %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	if _, err := r.coll.InsertOne(ctx, toFeedbackDocument(f)); err != nil {
		return fmt.Errorf("mongo feedback repository: create %w", err)
	}
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, visibleFeedbackFilter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo feedback repository: list %w", err)
	}
	defer cursor.Close(ctx)

	var raws []bson.Raw
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("mongo feedback repository: decode %w", err)
	}
	return decodeFeedbacks(raws, r.log), nil
}

// decodeFeedbacks разбирает документы по одному. Документ, который не
// ложится в модель (например, чужой _id), пропускается с предупреждением,
// поэтому страница может оказаться короче limit.
func decodeFeedbacks(raws []bson.Raw, log *logrus.Entry) []models.Feedback {
	feedbacks := make([]models.Feedback, 0, len(raws))
	for _, raw := range raws {
		var doc feedbackDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			log.WithError(err).WithField("_id", raw.Lookup("_id").String()).Warn("документ отзыва пропущен")
			continue
		}
		f, err := doc.toModel()
		if err != nil {
			log.WithError(err).Warn("документ отзыва пропущен")
			continue
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks
}

func (r *FeedbackRepository) RatingDistribution(ctx context.Context) (map[int]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: visibleFeedbackFilter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo feedback repository: aggregate %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Rating int `bson:"_id"`
		Count  int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongo feedback repository: decode %w", err)
	}

	dist := make(map[int]int, len(rows))
	for _, row := range rows {
		rating := row.Rating
		if rating == 0 {
			rating = models.DefaultRating
		}
		dist[rating] += row.Count
	}
	return dist, nil
}
