// Package response формирует единый конверт ответа:
// {"success": bool, "message"?: string, "code"?: string, ...payload}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

func envelope(success bool, message string, payload gin.H) gin.H {
	body := gin.H{}
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = success
	if message != "" {
		body["message"] = message
	}
	return body
}

func Success(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusOK, envelope(true, message, payload))
}

func Created(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(true, message, payload))
}

// Fail отдаёт ошибку в конверте. Неизвестные ошибки маскируются и логируются.
func Fail(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			logger.WithComponent("http").WithError(appErr.Cause).WithField("path", c.Request.URL.Path).Warn(appErr.Message)
		}
		c.JSON(appErr.HTTPStatus, gin.H{
			"success": false,
			"code":    string(appErr.Code),
			"message": appErr.Message,
		})
		return
	}

	logger.WithComponent("http").WithError(err).WithField("path", c.Request.URL.Path).Error("внутренняя ошибка")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"code":    string(apperror.ErrCodeInternal),
		"message": apperror.MessageOf(err),
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, apperror.New(apperror.ErrCodeBadRequest, message))
}
