package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// VerificationClaims - клеймы токена подтверждения email.
type VerificationClaims struct {
	Email string
	ID    string
	Exp   time.Time
}

// VerificationTokenManager выпускает и проверяет токены подтверждения.
type VerificationTokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewVerificationTokenManager(secret string, ttl time.Duration, clock clockwork.Clock) *VerificationTokenManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &VerificationTokenManager{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue формирует токен со случайным ID.
func (m *VerificationTokenManager) Issue(email string) (string, time.Time, error) {
	now := m.clock.Now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Truncate(time.Second), nil
}

// Parse проверяет подпись и срок действия токена.
func (m *VerificationTokenManager) Parse(token string) (*VerificationClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &VerificationClaims{Email: claims.Subject, ID: claims.ID, Exp: claims.ExpiresAt.Time}, nil
}

var errEmptyToken = errors.New("empty verification token")
