package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/guard"
	"salesintake/internal/handler"
	"salesintake/internal/middleware"
	"salesintake/internal/session"
)

// APIPrefix is the mount point of the portal API.
const APIPrefix = "/api/v1"

// Handlers groups the portal's HTTP handlers.
type Handlers struct {
	Auth     *handler.AuthHandler
	Intake   *handler.IntakeHandler
	Upload   *handler.UploadHandler
	Report   *handler.ReportHandler
	Admin    *handler.AdminHandler
	Template *handler.TemplateHandler
	Health   *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	resolver session.Resolver,
	uploadsEnabled func() bool,
	h Handlers,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group(APIPrefix)
	v1.GET("/healthz", h.Health.Liveness)
	v1.GET("/readyz", h.Health.Readiness)

	// Public auth and session routes
	auth := v1.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/sso", h.Auth.SSO)
	auth.POST("/logout", h.Auth.Logout)
	v1.GET("/session", h.Auth.Session)
	v1.GET("/session/route", h.Auth.Route)

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(guard.Middleware(resolver, cfg.Auth, guard.Requirement{}))

	intake := authed.Group("/intake")
	intake.POST("", h.Intake.Parse)
	intake.GET("/current", h.Intake.Current)
	intake.DELETE("/current", h.Intake.Discard)
	intake.POST("/current/upload", middleware.UploadsEnabled(uploadsEnabled), h.Intake.Upload)
	intake.POST("/zero-sales", h.Intake.ZeroSales)

	uploads := authed.Group("/uploads")
	uploads.GET("/recent", h.Upload.Recent)
	uploads.GET("/download/*key", h.Upload.Download)

	templates := authed.Group("/templates")
	templates.GET("", h.Template.List)
	templates.GET("/:name", h.Template.Download)

	// Internal-only routes
	internal := authed.Group("")
	internal.Use(guard.Require(guard.Requirement{RequireInternal: true}))

	reports := internal.Group("/reports")
	reports.GET("", h.Report.List)
	reports.GET("/export", h.Report.Export)
	reports.GET("/:reportNumber/summary", h.Report.Proxy)
	reports.GET("/:reportNumber/rows", h.Report.Proxy)
	reports.GET("/:reportNumber/audit-log", h.Report.Proxy)
	reports.PUT("/:reportNumber/approve", h.Report.Proxy)
	reports.PUT("/:reportNumber/row/:rowID", h.Report.Proxy)
	reports.PUT("/:reportNumber/row/:rowID/approve", h.Report.Proxy)

	ssp := internal.Group("/ssp/reports")
	ssp.GET("", h.Report.Proxy)
	ssp.GET("/:reportNumber/download", h.Report.Proxy)

	users := internal.Group("/users")
	users.GET("", h.Report.Proxy)
	users.POST("", h.Report.Proxy)
	users.GET("/audit/logs", h.Report.Proxy)
	users.PUT("/:id", h.Report.Proxy)
	users.DELETE("/:id", h.Report.Proxy)
	users.PUT("/:id/status", h.Report.Proxy)

	admin := internal.Group("/admin")
	admin.Use(guard.Require(guard.Requirement{
		RequireInternal: true,
		AllowedRoles:    []string{domain.RoleAdmin, domain.RoleAccounting},
	}))
	admin.GET("/orphans", h.Admin.Orphans)

	return r
}
