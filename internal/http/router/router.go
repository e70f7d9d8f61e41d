package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Capstonepdm/Katipudroid/internal/config"
	"github.com/Capstonepdm/Katipudroid/internal/http/handlers"
	"github.com/Capstonepdm/Katipudroid/internal/http/middleware"
)

func SetupRouter(
	cfg *config.Config,
	otpHandler *handlers.OTPHandler,
	feedbackHandler *handlers.FeedbackHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokens middleware.TokenParser,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	otpGroup := api.Group("/otp")
	{
		otpGroup.POST("/send", otpHandler.Send)
		otpGroup.POST("/verify", otpHandler.Verify)
	}

	feedbackGroup := api.Group("/feedbacks")
	{
		feedbackGroup.GET("", feedbackHandler.List)
		feedbackGroup.GET("/summary", feedbackHandler.Summary)
		feedbackGroup.POST("", middleware.VerificationMiddleware(tokens), feedbackHandler.Submit)
		if wsHandler != nil {
			feedbackGroup.GET("/ws", wsHandler.Handle)
		}
	}

	return r
}
