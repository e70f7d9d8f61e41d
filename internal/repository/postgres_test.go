package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Capstonepdm/Katipudroid/internal/db"
	"github.com/Capstonepdm/Katipudroid/internal/models"
)

// Интеграционные тесты: нужен PostgreSQL (TEST_DATABASE_URL).
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}

	ctx := context.Background()
	conn, err := db.NewPostgres(ctx, dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(ctx, conn, "../../migrations"))
	// повторный запуск ничего не делает
	require.NoError(t, db.RunMigrations(ctx, conn, "../../migrations"))

	_, err = conn.ExecContext(ctx, `TRUNCATE feedbacks, otp_challenges`)
	require.NoError(t, err)
	return conn
}

func TestOTPChallengeRepository_Postgres(t *testing.T) {
	conn := openTestDB(t)
	repo := NewOTPChallengeRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	older := &models.OTPChallenge{ID: uuid.New(), Email: "a@b.com", CodeHash: "h1", CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(9 * time.Minute)}
	newer := &models.OTPChallenge{ID: uuid.New(), Email: "a@b.com", CodeHash: "h1", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	got, err := repo.FindUnconsumed(ctx, "a@b.com", "h1")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = repo.FindUnconsumed(ctx, "a@b.com", "other")
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	deleted, err := repo.Delete(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, older.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := repo.DeleteExpired(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFeedbackRepository_Postgres(t *testing.T) {
	conn := openTestDB(t)
	repo := NewFeedbackRepository(conn)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, rating := range []int{5, 4, 5} {
		require.NoError(t, repo.Create(ctx, &models.Feedback{
			ID: uuid.New(), Name: "n", Email: "e@x.com", Message: "m", Rating: rating,
			Status: models.FeedbackStatusNew, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Feedback{
		ID: uuid.New(), Name: "n", Email: "e@x.com", Message: "hidden", Rating: 1,
		Status: "deleted", CreatedAt: base.Add(time.Hour),
	}))

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 5, list[0].Rating)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dist, err := repo.RatingDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{4: 1, 5: 2}, dist)
}
