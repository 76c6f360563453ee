package router

import (
	"net/http"
	"time"

	"github.com/fluentprep/exam-engine/internal/config"
	"github.com/fluentprep/exam-engine/internal/handler"
	"github.com/fluentprep/exam-engine/internal/middleware"
	"github.com/fluentprep/exam-engine/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
}

// Setup configures the practice server's Gin route groups.
func Setup(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// ─── Public ────────────────────────────────────────────────────────
	v1.POST("/auth/login", handlers.Auth.Login)

	// ─── Candidate (JWT) ───────────────────────────────────────────────
	sessions := v1.Group("/sessions")
	sessions.Use(middleware.RequireCandidateJWT(cfg.JWTSecret))
	{
		sessions.POST("", handlers.Session.Create)
		sessions.GET("/:session_id", handlers.Session.Get)
		sessions.GET("/:session_id/questions", handlers.Session.Questions)
		sessions.PUT("/:session_id/answers/:question_id", handlers.Session.SaveAnswer)
		sessions.POST("/:session_id/complete", handlers.Session.Complete)
	}

	return router
}
