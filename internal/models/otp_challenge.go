package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPChallenge - один выпущенный одноразовый код.
// CodeHash хранит дайджест кода, а не сам код.
type OTPChallenge struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CodeHash  string    `db:"code" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Consumed  bool      `db:"consumed" json:"consumed"`
}

// IsExpired сообщает, истёк ли код к моменту now.
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
