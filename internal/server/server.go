package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tollgate/internal/billing"
	billingdomain "github.com/smallbiznis/tollgate/internal/billing/domain"
	"github.com/smallbiznis/tollgate/internal/config"
	"github.com/smallbiznis/tollgate/internal/observability"
	"github.com/smallbiznis/tollgate/internal/organization"
	orgdomain "github.com/smallbiznis/tollgate/internal/organization/domain"
	"github.com/smallbiznis/tollgate/internal/plan"
	"github.com/smallbiznis/tollgate/internal/ratelimit"
	"github.com/smallbiznis/tollgate/internal/signup"
	signupdomain "github.com/smallbiznis/tollgate/internal/signup/domain"
	"github.com/smallbiznis/tollgate/internal/usage"
	usagedomain "github.com/smallbiznis/tollgate/internal/usage/domain"
	"github.com/smallbiznis/tollgate/internal/workflow"
	workflowdomain "github.com/smallbiznis/tollgate/internal/workflow/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	plan.Module,
	organization.Module,
	usage.Module,
	billing.Module,
	workflow.Module,
	ratelimit.Module,
	signup.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *observability.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogMiddleware(log))
	r.Use(observability.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	catalog     *plan.Catalog
	orgSvc      orgdomain.Service
	usageSvc    usagedomain.Service
	billingSvc  billingdomain.Service
	signupSvc   signupdomain.Service
	workflowSvc workflowdomain.Service
	wfClient    *workflow.Client
	limiter     *ratelimit.Limiter
	metrics     *observability.HTTPMetrics
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Catalog     *plan.Catalog
	OrgSvc      orgdomain.Service
	UsageSvc    usagedomain.Service
	BillingSvc  billingdomain.Service
	SignupSvc   signupdomain.Service
	WorkflowSvc workflowdomain.Service
	WfClient    *workflow.Client
	Limiter     *ratelimit.Limiter
	Metrics     *observability.HTTPMetrics
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		catalog:     p.Catalog,
		orgSvc:      p.OrgSvc,
		usageSvc:    p.UsageSvc,
		billingSvc:  p.BillingSvc,
		signupSvc:   p.SignupSvc,
		workflowSvc: p.WorkflowSvc,
		wfClient:    p.WfClient,
		limiter:     p.Limiter,
		metrics:     p.Metrics,
		log:         p.Log.Named("server"),
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.POST("/auth/signup", s.RateLimit(ratelimit.ClassAuth), s.TokenRequired(), s.Signup)

	authed := api.Group("", s.AuthRequired(), s.RateLimit(ratelimit.ClassAPI))
	authed.POST("/usage/track", s.TrackUsage)
	authed.GET("/usage/summary", s.UsageSummary)
	authed.GET("/org", s.GetOrganization)
	authed.GET("/plans", s.ListPlans)
	authed.POST("/billing/checkout", s.RequireRole(orgdomain.RoleOwner, orgdomain.RoleAdmin), s.CreateCheckout)
	authed.POST("/billing/portal", s.RequireRole(orgdomain.RoleOwner, orgdomain.RoleAdmin), s.CreatePortal)

	webhooks := api.Group("/webhooks")
	webhooks.POST("/stripe", s.StripeWebhook)
	webhooks.POST("/workflow", s.RateLimit(ratelimit.ClassWebhook), s.WorkflowCallback)
}
