package routes

import (
	"github.com/gin-gonic/gin"

	"driverhire/internal/handlers"
	"driverhire/internal/middleware"
	"driverhire/internal/services"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Proxy    *handlers.ProxyHandler
	Wizard   *handlers.WizardHandler
	Booking  *handlers.BookingHandler
	Realtime *handlers.RealtimeHandler
	Health   *handlers.HealthHandler
}

// Setup registers every route on the router.
func Setup(router *gin.Engine, h *Handlers, sessions services.SessionService) {
	router.GET("/health", h.Health.Health)

	// Legacy booking API passthrough, any verb
	router.Any("/api/booking/*path", h.Proxy.Forward)

	v1 := router.Group("/api/v1")
	SetupAuthRoutes(v1, h.Auth, sessions)
	SetupBookingRoutes(v1, h.Booking, sessions)
	SetupWizardRoutes(v1, h.Wizard, sessions)

	ws := router.Group("/ws")
	{
		ws.GET("/driver-location/:ref", h.Realtime.DriverLocation)
	}
}

func SetupAuthRoutes(r *gin.RouterGroup, h *handlers.AuthHandler, sessions services.SessionService) {
	auth := r.Group("/auth")
	{
		auth.POST("/otp/send", h.SendOTP)
		auth.POST("/otp/verify", h.VerifyOTP)
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.AuthRequired(sessions), h.Logout)
	}
}

func SetupBookingRoutes(r *gin.RouterGroup, h *handlers.BookingHandler, sessions services.SessionService) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthRequired(sessions))
	{
		bookings.GET("/history", h.History)
		bookings.GET("/:ref", h.Get)
		bookings.PATCH("/:ref/status", h.UpdateStatus)
	}
}

// SetupWizardRoutes serves the wizard and the daily form. Both accept an
// optional bearer token; a valid one skips the login step.
func SetupWizardRoutes(r *gin.RouterGroup, h *handlers.WizardHandler, sessions services.SessionService) {
	wizards := r.Group("/wizards")
	wizards.Use(middleware.OptionalAuth(sessions))
	{
		wizards.POST("", h.CreateWizard)
		flowRoutes(wizards, h)
		wizards.POST("/:id/next", h.Next)
		wizards.POST("/:id/back", h.Back)
	}

	daily := r.Group("/daily")
	daily.Use(middleware.OptionalAuth(sessions))
	{
		daily.POST("", h.CreateDaily)
		flowRoutes(daily, h)
	}
}

func flowRoutes(g *gin.RouterGroup, h *handlers.WizardHandler) {
	g.GET("/:id", h.GetState)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Close)
	g.POST("/:id/otp/send", h.SendOTP)
	g.POST("/:id/otp/verify", h.VerifyOTP)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/cancel", h.Cancel)
	g.GET("/:id/fare/stream", h.FareStream)
}
