package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/transport/http/handler"
	"github.com/hireloop/engine/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	respondHandler *handler.RespondHandler,
	introHandler *handler.IntroductionHandler,
	claimHandler *handler.ClaimHandler,
	interviewHandler *handler.InterviewHandler,
	adminHandler *handler.AdminHandler,
	hmacKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(hmacKey)

	// Public routes. The respond token in the URL is the candidate's only
	// credential.
	r.POST("/auth/magic-link", authHandler.RequestMagicLink)
	r.GET("/auth/verify", authHandler.Verify)
	r.GET("/api/introductions/respond/:token", respondHandler.Resolve)
	r.POST("/api/introductions/respond/:token", respondHandler.Respond)

	// Protected employer routes
	employer := r.Group("/api/employer", authMW)
	employer.POST("/candidates/:id/view", introHandler.RecordProfileView)
	employer.POST("/introductions/:id/resume", introHandler.RecordResumeDownload)
	employer.POST("/introductions/:id/request", introHandler.RequestIntro)
	employer.POST("/introductions/:id/interviewing", introHandler.MarkInterviewing)
	employer.POST("/introductions/:id/offer", introHandler.MarkOfferExtended)
	employer.POST("/introductions/:id/hired", introHandler.MarkHired)
	employer.GET("/introductions", introHandler.List)
	employer.GET("/claim/search", claimHandler.Search)
	employer.POST("/jobs/:id/claim", claimHandler.Claim)
	employer.GET("/jobs", claimHandler.ListClaimed)

	// Protected interview routes
	interviews := r.Group("/api/interviews", authMW)
	interviews.GET("", interviewHandler.List)
	interviews.POST("", interviewHandler.Propose)
	interviews.POST("/:id/select", interviewHandler.Select)
	interviews.POST("/:id/confirm", interviewHandler.Confirm)
	interviews.POST("/:id/complete", interviewHandler.Complete)
	interviews.POST("/:id/cancel", interviewHandler.Cancel)

	// Admin routes
	admin := r.Group("/api/admin", authMW, middleware.AdminOnly())
	admin.GET("/introductions", adminHandler.List)
	admin.GET("/introductions/stats", adminHandler.Stats)
	admin.GET("/introductions/:id", adminHandler.GetByID)
	admin.PATCH("/introductions/:id", adminHandler.OverrideStatus)
	admin.POST("/introductions/:id/reinvite", adminHandler.Reinvite)

	return r
}
