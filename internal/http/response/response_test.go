package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

func run(t *testing.T, h gin.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	h(c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccess_FlattensPayload(t *testing.T) {
	code, body := run(t, func(c *gin.Context) {
		Success(c, "ok", gin.H{"id": "42", "success": false})
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, "42", body["id"])
}

func TestSuccess_OmitsEmptyMessage(t *testing.T) {
	_, body := run(t, func(c *gin.Context) { Success(c, "", nil) })
	_, has := body["message"]
	assert.False(t, has)
}

func TestFail_AppError(t *testing.T) {
	code, body := run(t, func(c *gin.Context) { Fail(c, apperror.ErrExpired) })
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "EXPIRED", body["code"])
	assert.Equal(t, "OTP has expired. Please request a new one.", body["message"])
}

func TestFail_MasksUnknownError(t *testing.T) {
	code, body := run(t, func(c *gin.Context) { Fail(c, errors.New("pq: password authentication failed")) })
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "Internal server error", body["message"])
}
