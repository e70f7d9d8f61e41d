package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Capstonepdm/Katipudroid/internal/dto"
	"github.com/Capstonepdm/Katipudroid/internal/http/response"
	"github.com/Capstonepdm/Katipudroid/internal/service"
)

type OTPService interface {
	Send(ctx context.Context, email, name string) error
	Verify(ctx context.Context, email, code string) (*service.VerificationResult, error)
}

type OTPHandler struct {
	otp OTPService
}

func NewOTPHandler(otp OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// Send POST /api/otp/send
func (h *OTPHandler) Send(c *gin.Context) {
	var req dto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.otp.Send(c.Request.Context(), req.Email, req.Name); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, "OTP sent successfully", nil)
}

// Verify POST /api/otp/verify
func (h *OTPHandler) Verify(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.otp.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, "OTP verified successfully", gin.H{
		"verification_token": res.Token,
		"expires_at":         res.ExpiresAt,
	})
}
