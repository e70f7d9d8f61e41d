package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/http/response"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
)

// ErrorHandler отдаёт последнюю ошибку из c.Errors в общем конверте,
// если обработчик сам ничего не записал. Внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.WithComponent("http").WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		response.Fail(c, err.Err)
	}
}
