package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Capstonepdm/Katipudroid/internal/http/response"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

// ContextVerificationTokenKey - ключ gin.Context с сырым токеном подтверждения.
const ContextVerificationTokenKey = "verificationToken"

// TokenParser проверяет токен подтверждения email.
type TokenParser interface {
	ParseToken(token string) error
}

type TokenParserFunc func(token string) error

func (f TokenParserFunc) ParseToken(token string) error { return f(token) }

// VerificationMiddleware требует Bearer токен, выданный после проверки кода.
// Погашение токена остаётся за обработчиком.
func VerificationMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.Fail(c, apperror.ErrVerificationRequired)
			c.Abort()
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if err := tokens.ParseToken(raw); err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(ContextVerificationTokenKey, raw)
		c.Next()
	}
}

// VerificationToken достаёт токен, положенный VerificationMiddleware.
func VerificationToken(c *gin.Context) string {
	return c.GetString(ContextVerificationTokenKey)
}
