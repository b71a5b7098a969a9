package routes

import (
	"github.com/gin-gonic/gin"

	"niplan/internal/authz"
	"niplan/internal/handlers"
	"niplan/internal/middleware"
	"niplan/internal/utils"
)

func SetupRoutes(
	r *gin.Engine,
	tokens *utils.TokenIssuer,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	devHandler *handlers.DevHandler, // nil unless dev.expose_otp
	phoneHandler *handlers.PhoneHandler, // nil unless auth.legacy_otp_endpoints
	integrationsHandler *handlers.IntegrationsHandler, // nil without a Telegram bot
) *gin.Engine {

	// ---- public
	r.GET("/healthz", healthHandler.Healthz)

	auth := r.Group("/api/auth")
	{
		auth.POST("/detect-flow", authHandler.DetectFlow)
		auth.POST("/register/request-otp", authHandler.RequestOTP)
		auth.POST("/register/verify-otp", authHandler.VerifyOTP)
		auth.POST("/legacy/set-password", authHandler.LegacySetPassword)
		auth.POST("/login", authHandler.Login)
		auth.POST("/token/refresh", authHandler.Refresh)
	}

	if devHandler != nil {
		auth.GET("/dev/otp", devHandler.PeekOTP)
	}

	if phoneHandler != nil {
		ph := r.Group("/api/phone")
		{
			ph.POST("/request-otp", phoneHandler.RequestOTP)
			ph.POST("/verify-otp", phoneHandler.VerifyOTP)
		}
	}

	if integrationsHandler != nil {
		r.POST("/api/integrations/telegram/webhook", integrationsHandler.Webhook)
	}

	// ---- protected
	protected := auth.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/me", authHandler.Me)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(authz.RoleSuperadmin))
	{
		admin.GET("/blocked/:phone", adminHandler.GetBlocked)
		admin.PUT("/blocked/:phone", adminHandler.Block)
		admin.DELETE("/blocked/:phone", adminHandler.Unblock)
	}

	return r
}
