// Package mongostore - адаптер документного хранилища (MongoDB) для
// коллекций feedbacks и otp_challenges.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/repository"
)

const (
	FeedbacksCollection     = "feedbacks"
	OTPChallengesCollection = "otp_challenges"
)

type otpChallengeDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Code      string    `bson:"code"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Consumed  bool      `bson:"consumed"`
}

func toOTPDocument(ch *models.OTPChallenge) otpChallengeDocument {
	return otpChallengeDocument{
		ID:        ch.ID.String(),
		Email:     ch.Email,
		Code:      ch.CodeHash,
		CreatedAt: ch.CreatedAt,
		ExpiresAt: ch.ExpiresAt,
		Consumed:  ch.Consumed,
	}
}

func (d otpChallengeDocument) toModel() (*models.OTPChallenge, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("otp challenge %q: %w", d.ID, err)
	}
	return &models.OTPChallenge{
		ID:        id,
		Email:     d.Email,
		CodeHash:  d.Code,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
		Consumed:  d.Consumed,
	}, nil
}

type OTPChallengeRepository struct {
	coll *mongo.Collection
}

func NewOTPChallengeRepository(db *mongo.Database) *OTPChallengeRepository {
	return &OTPChallengeRepository{coll: db.Collection(OTPChallengesCollection)}
}

// EnsureIndexes создаёт индексы для поиска по email+коду и для sweep.
func (r *OTPChallengeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "code", Value: 1}, {Key: "consumed", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo otp repository: indexes %w", err)
	}
	return nil
}

func (r *OTPChallengeRepository) Create(ctx context.Context, ch *models.OTPChallenge) error {
	if _, err := r.coll.InsertOne(ctx, toOTPDocument(ch)); err != nil {
		return fmt.Errorf("mongo otp repository: create %w", err)
	}
	return nil
}

func (r *OTPChallengeRepository) FindUnconsumed(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	filter := bson.M{"email": email, "code": codeHash, "consumed": false}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var doc otpChallengeDocument
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo otp repository: find %w", err)
	}
	return doc.toModel()
}

// Delete удаляет документ; DeletedCount == 0 даёт false без ошибки.
func (r *OTPChallengeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("mongo otp repository: delete %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *OTPChallengeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("mongo otp repository: delete expired %w", err)
	}
	return res.DeletedCount, nil
}
