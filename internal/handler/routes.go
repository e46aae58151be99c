package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/middleware"
	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tasktrack-api/pkg/middleware/cors"
	"github.com/noah-isme/tasktrack-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/tasktrack-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Role    *RoleHandler
	Record  *RecordHandler
	Audit   *AuditHandler
	Metrics *MetricsHandler
}

// RouterConfig carries the cross-cutting collaborators of the router.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Authenticator  *service.Authenticator
	LoginLimiter   *ratelimit.Limiter
	Metrics        *service.MetricsService
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.AuditContext())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	RegisterRoutes(r.Group(cfg.APIPrefix), cfg, h)
	return r
}

// RegisterRoutes mounts the API under api.
func RegisterRoutes(api *gin.RouterGroup, cfg RouterConfig, h Handlers) {
	authn := middleware.Authenticate(cfg.Authenticator)
	can := middleware.RequirePermission

	auth := api.Group("/auth")
	auth.POST("/login", cfg.LoginLimiter.Middleware(), h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", authn, h.Auth.Me)

	users := api.Group("/users")
	users.POST("", h.User.Register)
	users.GET("", authn, can(models.PrivilegeUserView), h.User.List)
	users.PUT("/me", authn, h.User.UpdateMe)
	users.DELETE("/me", authn, h.User.DeleteMe)
	users.GET("/:id", authn, can(models.PrivilegeUserView), h.User.Get)
	users.PUT("/:id", authn, can(models.PrivilegeUserUpdate), h.User.Update)
	users.DELETE("/:id", authn, can(models.PrivilegeUserDelete), h.User.Delete)

	roles := api.Group("/roles", authn)
	roles.GET("/me", h.Role.Mine)
	roles.GET("/privileges", can(models.PrivilegeRoleView), h.Role.Privileges)
	roles.GET("", can(models.PrivilegeRoleView), h.Role.List)
	roles.POST("", can(models.PrivilegeRoleCreate), h.Role.Create)
	roles.GET("/:id", can(models.PrivilegeRoleView), h.Role.Get)
	roles.PUT("/:id", can(models.PrivilegeRoleUpdate), h.Role.Update)
	roles.DELETE("/:id", can(models.PrivilegeRoleDelete), h.Role.Delete)

	records := api.Group("/records", authn)
	records.POST("", can(models.PrivilegeRecordCreate), h.Record.Create)
	records.GET("", can(models.PrivilegeRecordView), h.Record.List)
	records.GET("/:id", can(models.PrivilegeRecordView), h.Record.Get)
	records.PUT("/:id", can(models.PrivilegeRecordUpdate), h.Record.Update)
	records.DELETE("/:id", can(models.PrivilegeRecordDelete), h.Record.Delete)

	audit := api.Group("/audit-logs", authn, can(models.PrivilegeAuditView))
	audit.GET("", h.Audit.List)
	audit.GET("/export", h.Audit.Export)
}
