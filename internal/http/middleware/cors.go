package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type originSet struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginSet(origins []string) originSet {
	s := originSet{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			s.any = true
			continue
		}
		s.allowed[o] = struct{}{}
	}
	return s
}

func (s originSet) contains(origin string) bool {
	if s.any {
		return true
	}
	_, ok := s.allowed[origin]
	return ok
}

// OriginAllowed - проверка origin для websocket upgrader по тому же списку, что и CORS.
// Запрос без Origin (не из браузера) пропускается.
func OriginAllowed(allowedOrigins []string) func(r *http.Request) bool {
	set := newOriginSet(allowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set.contains(origin)
	}
}

// CORSMiddleware обрабатывает CORS заголовки и preflight запросы.
// "*" в списке разрешает любой origin (допустимо только вне production).
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	set := newOriginSet(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && set.contains(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
