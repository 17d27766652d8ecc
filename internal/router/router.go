package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/handler"
	"github.com/stemsi/presensi-backend/internal/middleware"
	"github.com/stemsi/presensi-backend/internal/response"
	"github.com/stemsi/presensi-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Recognition *handler.RecognitionHandler
	Enrollment  *handler.EnrollmentHandler
	Group       *handler.GroupHandler
	Student     *handler.StudentHandler
	Attendance  *handler.AttendanceHandler
	Dashboard   *handler.DashboardHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Serve enrollment face thumbnails statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Recognition Group (Public, Rate Limited) ───────────────────
	// Kiosks are unauthenticated; the rate limiter keeps a stuck camera
	// loop from flooding the face provider.
	recognitionLimiter := middleware.NewRateLimiter(120, time.Minute)
	recognitions := router.Group("/api/v1/recognitions")
	recognitions.Use(recognitionLimiter.Middleware())
	{
		recognitions.POST("", handlers.Recognition.RecognizeFrame)
	}

	// ─── 2. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/admin/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/admin/logout", middleware.RequireAdminJWT(authService), handlers.Auth.Logout)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/groups", handlers.Group.List)
		adminAPI.POST("/groups", handlers.Group.Create)
		adminAPI.PUT("/groups/:id", handlers.Group.Update)
		adminAPI.DELETE("/groups/:id", handlers.Group.Delete)

		adminAPI.GET("/students", handlers.Student.List)
		adminAPI.GET("/students/:id", handlers.Student.Get)
		adminAPI.DELETE("/students/:id", handlers.Student.Delete)

		adminAPI.POST("/enrollments", handlers.Enrollment.Enroll)

		adminAPI.GET("/attendance", handlers.Attendance.List)
		adminAPI.GET("/attendance/export", handlers.Attendance.Export)

		adminAPI.GET("/dashboard/today", handlers.Dashboard.Today)
	}

	// ─── 4. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/recognitions/stream", handlers.WS.StreamRecognitions)
	}

	return router
}
