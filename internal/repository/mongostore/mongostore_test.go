package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Capstonepdm/Katipudroid/internal/db"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/repository"
)

func TestFeedbackDocument_LegacyDefaults(t *testing.T) {
	id := uuid.New()
	doc := feedbackDocument{ID: id.String(), Name: "Ana", Message: "Great game"}

	f, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, models.FeedbackStatusNew, f.Status)
	assert.Equal(t, models.DefaultRating, f.Rating)
}

func TestDecodeFeedbacks_SkipsForeignIDs(t *testing.T) {
	good := uuid.New()
	docs := []bson.M{
		{"_id": good.String(), "name": "Ana", "message": "Great", "rating": 5, "created_at": time.Now()},
		{"_id": "Xk3vQm9LpR2sT7uW1yZa", "name": "Firestore", "message": "legacy"},
		{"_id": primitive.NewObjectID(), "name": "ObjectID", "message": "legacy"},
	}
	raws := make([]bson.Raw, 0, len(docs))
	for _, d := range docs {
		raw, err := bson.Marshal(d)
		require.NoError(t, err)
		raws = append(raws, raw)
	}

	got := decodeFeedbacks(raws, logger.WithComponent("test"))
	require.Len(t, got, 1)
	assert.Equal(t, good, got[0].ID)
	assert.Equal(t, "Ana", got[0].Name)
}

func TestOTPDocument_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ch := &models.OTPChallenge{
		ID:        uuid.New(),
		Email:     "a@b.com",
		CodeHash:  "abc",
		CreatedAt: now,
		ExpiresAt: now.Add(models.OTPTTL),
	}

	got, err := toOTPDocument(ch).toModel()
	require.NoError(t, err)
	assert.Equal(t, ch, got)
}

func TestOTPDocument_BadID(t *testing.T) {
	_, err := otpChallengeDocument{ID: "not-a-uuid"}.toModel()
	assert.Error(t, err)
}

// Интеграционный тест: нужен запущенный MongoDB (MONGO_TEST_URI).
func TestOTPChallengeRepository_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI не задан")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.NewMongo(ctx, uri, "katipudroid_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	defer func() {
		_ = conn.Database.Drop(context.Background())
		_ = conn.Close(context.Background())
	}()

	repo := NewOTPChallengeRepository(conn.Database)
	require.NoError(t, repo.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	expired := &models.OTPChallenge{ID: uuid.New(), Email: "a@b.com", CodeHash: "h1", CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-50 * time.Minute)}
	live := &models.OTPChallenge{ID: uuid.New(), Email: "a@b.com", CodeHash: "h2", CreatedAt: now, ExpiresAt: now.Add(models.OTPTTL)}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, live))

	found, err := repo.FindUnconsumed(ctx, "a@b.com", "h2")
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := repo.Delete(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, live.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = repo.FindUnconsumed(ctx, "a@b.com", "h2")
	assert.ErrorIs(t, err, repository.ErrChallengeNotFound)
}

func TestFeedbackRepository_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI не задан")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.NewMongo(ctx, uri, "katipudroid_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	defer func() {
		_ = conn.Database.Drop(context.Background())
		_ = conn.Close(context.Background())
	}()

	repo := NewFeedbackRepository(conn.Database)
	require.NoError(t, repo.EnsureIndexes(ctx))

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, status := range []string{models.FeedbackStatusNew, models.FeedbackStatusDeleted, models.FeedbackStatusNew} {
		f := &models.Feedback{
			ID:        uuid.New(),
			Name:      "user",
			Email:     "u@x.com",
			Message:   "msg",
			Rating:    3 + i,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, f))
	}

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 5, list[0].Rating)

	dist, err := repo.RatingDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{3: 1, 5: 1}, dist)
}
