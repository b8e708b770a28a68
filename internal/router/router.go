package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/handler"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Student  *handler.StudentHandler
	Session  *handler.SessionHandler
	Location *handler.ClassLocationHandler
	WS       *handler.WSHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.GetTeacherProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/sessions/today", handlers.Student.TodaySessions)
		studentAPI.GET("/sessions/:id", handlers.Student.GetSession)
		studentAPI.POST("/sessions/:id/check-in", handlers.Student.CheckIn)
		studentAPI.GET("/sessions/:id/record", handlers.Student.GetRecord)
		studentAPI.GET("/history", handlers.Student.History)
		studentAPI.GET("/stats", handlers.Student.Stats)
	}

	// ─── 3. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Geofence management
		teacherAPI.GET("/locations", handlers.Location.List)
		teacherAPI.POST("/locations", handlers.Location.Create)
		teacherAPI.GET("/locations/:id", handlers.Location.Get)
		teacherAPI.PUT("/locations/:id", handlers.Location.Update)
		teacherAPI.DELETE("/locations/:id", handlers.Location.Delete)

		// Session lifecycle
		teacherAPI.POST("/sessions", handlers.Session.Create)
		teacherAPI.GET("/sessions/:id", handlers.Session.Get)
		teacherAPI.PATCH("/sessions/:id/toggle", handlers.Session.Toggle)
		teacherAPI.GET("/courses/:course_id/sessions", handlers.Session.ListByCourse)

		// Records and manual marks
		teacherAPI.GET("/sessions/:id/records", handlers.Session.ListRecords)
		teacherAPI.GET("/sessions/:id/stats", handlers.Session.Stats)
		teacherAPI.POST("/sessions/:id/records/batch", handlers.Session.BatchMark)
		teacherAPI.POST("/sessions/:id/records/:student_id", handlers.Session.ManualMark)

		// Single-device session reset
		teacherAPI.POST("/students/:student_id/reset-session", handlers.Auth.ResetStudentSession)
	}

	// ─── 4. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/teacher/sessions/:id/monitor", handlers.WS.SessionMonitorStream)
	}

	return router
}
