package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Capstonepdm/Katipudroid/internal/models"
)

var ErrChallengeNotFound = errors.New("otp challenge not found")

type OTPChallengeRepository struct {
	db *sqlx.DB
}

func NewOTPChallengeRepository(db *sqlx.DB) *OTPChallengeRepository {
	return &OTPChallengeRepository{db: db}
}

// Create сохраняет новый challenge.
func (r *OTPChallengeRepository) Create(ctx context.Context, ch *models.OTPChallenge) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO otp_challenges (id, email, code, created_at, expires_at, consumed)
		VALUES (:id, :email, :code, :created_at, :expires_at, :consumed)
	`, ch)
	if err != nil {
		return fmt.Errorf("otp repository: create %w", err)
	}
	return nil
}

// FindUnconsumed возвращает самый старый неиспользованный challenge для пары email+код.
func (r *OTPChallengeRepository) FindUnconsumed(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	err := r.db.GetContext(ctx, &ch, `
		SELECT id, email, code, created_at, expires_at, consumed
		FROM otp_challenges
		WHERE email = $1 AND code = $2 AND consumed = false
		ORDER BY created_at ASC
		LIMIT 1
	`, email, codeHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("otp repository: find %w", err)
	}
	return &ch, nil
}

// Delete удаляет challenge. false без ошибки - записи уже нет.
func (r *OTPChallengeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("otp repository: delete %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("otp repository: delete %w", err)
	}
	return n > 0, nil
}

// DeleteExpired удаляет все challenge с expires_at <= now, независимо от consumed.
func (r *OTPChallengeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("otp repository: delete expired %w", err)
	}
	return res.RowsAffected()
}
