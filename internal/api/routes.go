package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/config"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/realtime"
	"github.com/sitrack/sitrack-gin/internal/service"
	"github.com/sitrack/sitrack-gin/internal/websocket"
	"gorm.io/gorm"
)

// Services groups everything the router dispatches to.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Reports  *service.ReportService
	Tracking *service.TrackingService
	Uploads  *service.UploadService
	Backups  *service.BackupService
}

// SetupRoutes wires middleware, controllers and realtime endpoints.
func SetupRoutes(cfg *config.Config, svcs Services, issuer *auth.TokenIssuer, hub *websocket.Hub, bridge *realtime.Bridge, db *gorm.DB, log *logrus.Logger) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(HTTPSRedirectMiddleware(config.IsProduction(cfg)))
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())

	healthController := NewHealthController(db, bridge)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	if hub != nil {
		router.GET("/ws", websocket.Handler(hub, issuer, log))
		router.GET("/sse/reports/:id", SSEHandler(hub, issuer))
	}

	authController := NewAuthController(svcs.Auth)
	userController := NewUserController(svcs.Users)
	reportController := NewReportController(svcs.Reports)
	trackingController := NewTrackingController(svcs.Tracking)
	uploadController := NewUploadController(svcs.Uploads)
	backupController := NewBackupController(svcs.Backups)

	authed := auth.Middleware(issuer)

	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/login", authController.Login)
			authRoutes.POST("/logout", authed, authController.Logout)
		}

		// Public lookup: no auth, but rate-limited.
		v1.GET("/tracking/:noSurat",
			RateLimitMiddleware(5, 10),
			trackingController.Track,
		)

		users := v1.Group("/users", authed, auth.RequireRole(model.RoleAdmin))
		{
			users.GET("", userController.List)
			users.POST("", userController.Create)
			users.PUT("/:id", userController.Update)
			users.DELETE("/:id", userController.Delete)
		}

		reports := v1.Group("/reports", authed)
		{
			reports.GET("", reportController.List)
			reports.GET("/:id", reportController.Get)
			reports.POST("", auth.RequireRole(model.RoleAdmin, model.RoleTU), reportController.Create)
			reports.PUT("/:id", auth.RequireRole(model.RoleAdmin, model.RoleTU), reportController.Update)
			reports.DELETE("/:id", auth.RequireRole(model.RoleAdmin), reportController.Delete)
			reports.POST("/:id/assignments", auth.RequireRole(model.RoleAdmin, model.RoleKoordinator), reportController.Assign)
			reports.PUT("/:id/assignments/:assignmentId", reportController.UpdateAssignment)
			reports.POST("/:id/revision", auth.RequireRole(model.RoleAdmin, model.RoleKoordinator), reportController.RequestRevision)
		}

		v1.POST("/upload", authed, uploadController.Upload)

		backups := v1.Group("/backups", authed, auth.RequireRole(model.RoleAdmin))
		{
			backups.POST("", backupController.Create)
			backups.GET("", backupController.List)
			backups.POST("/:filename/restore", backupController.Restore)
			backups.DELETE("/:filename", backupController.Delete)
		}
	}

	return router
}
