package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/auth"
	"github.com/itechteam/formdesk/internal/config"
	"github.com/itechteam/formdesk/internal/http/handlers"
	"github.com/itechteam/formdesk/internal/http/middlewares"
	"github.com/itechteam/formdesk/internal/intake"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Service  *intake.Service

	// optional; echoed under components.notifier on /readyz
	NotifierState func() notifications.CircuitState

	// both nil unless the admin API is configured
	Admin  handlers.Authenticator
	Tokens middlewares.TokenVerifier
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if deps.Cfg.TracingEnabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.BlockAdblock())
	r.Use(middlewares.MaxBodyBytes(deps.Cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(func(ctx context.Context) error {
		return deps.Service.Ping(ctx)
	})
	if deps.NotifierState != nil {
		h.Report("notifier", func() string { return string(deps.NotifierState()) })
	}
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	formLimiter := middlewares.NewRateLimiter(deps.Cfg.RateLimitPerMinute, time.Minute)
	limitForms := formLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	submissions := handlers.NewSubmissionsHandler(deps.Service)
	api := r.Group("/api")
	forms := api.Group("", middlewares.RequireJSON(), limitForms)
	{
		forms.POST("/hire", submissions.Hire)
		forms.POST("/business", submissions.Business)
		forms.POST("/company", submissions.Company)
		forms.POST("/contact", submissions.Contact)
	}

	testimonials := handlers.NewTestimonialsHandler(deps.Service)
	r.GET("/testimonials", testimonials.List)
	r.POST("/testimonials", middlewares.RequireJSON(), limitForms, testimonials.Create)

	if deps.Admin != nil && deps.Tokens != nil {
		mountAdmin(api, deps)
	}

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Page not found")
	})

	return r
}

func mountAdmin(api *gin.RouterGroup, deps Deps) {
	admin := handlers.NewAdminHandler(deps.Admin, deps.Service)
	authMW := middlewares.NewAuthMiddleware(deps.Tokens)

	// login attempts share one small budget per IP
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	api.POST("/admin/login", middlewares.RequireJSON(), loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), admin.Login)

	adminLimiter := middlewares.NewRateLimiter(120, time.Minute)
	g := api.Group("/admin",
		authMW.RequireAuth(),
		authMW.RequireRole(auth.RoleAdmin),
		adminLimiter.RateLimiterMiddleware(middlewares.KeyBySubjectOrIP),
	)
	{
		g.GET("/records/:kind", admin.Records)
		g.GET("/notifications/dead", admin.DeadNotifications)
		g.POST("/notifications/dead/:id/retry", admin.RetryNotification)
	}
}
