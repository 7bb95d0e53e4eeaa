package server

import (
	"context"
	"net/http"
	"time"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/cache"
	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/config"
	detectordomain "github.com/adwatchhq/adwatch/internal/detector/domain"
	notificationdomain "github.com/adwatchhq/adwatch/internal/notification/domain"
	"github.com/adwatchhq/adwatch/internal/observability"
	obsmiddleware "github.com/adwatchhq/adwatch/internal/observability/logger"
	obsmetrics "github.com/adwatchhq/adwatch/internal/observability/metrics"
	obstracing "github.com/adwatchhq/adwatch/internal/observability/tracing"
	quotadomain "github.com/adwatchhq/adwatch/internal/quota/domain"
	"github.com/adwatchhq/adwatch/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	adAccountSvc    adaccountdomain.Service
	adAccountRepo   adaccountdomain.Repository
	changeRepo      changedomain.Repository
	detectorSvc     detectordomain.Service
	notificationSvc notificationdomain.Service
	quotaSvc        quotadomain.Service
	accountCache    cache.AccountResolverCache
	webhookLimiter  *ratelimit.WebhookLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	AdAccountSvc    adaccountdomain.Service
	AdAccountRepo   adaccountdomain.Repository
	ChangeRepo      changedomain.Repository
	DetectorSvc     detectordomain.Service
	NotificationSvc notificationdomain.Service
	QuotaSvc        quotadomain.Service
	AccountCache    cache.AccountResolverCache
	WebhookLimiter  *ratelimit.WebhookLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		adAccountSvc:    p.AdAccountSvc,
		adAccountRepo:   p.AdAccountRepo,
		changeRepo:      p.ChangeRepo,
		detectorSvc:     p.DetectorSvc,
		notificationSvc: p.NotificationSvc,
		quotaSvc:        p.QuotaSvc,
		accountCache:    p.AccountCache,
		webhookLimiter:  p.WebhookLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerPlatformRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.OrgContext())

	// -------- Ad accounts --------
	v1.GET("/ad-accounts", s.ListAdAccounts)
	v1.POST("/ad-accounts", s.ConnectAdAccount)
	v1.GET("/ad-accounts/:id", s.GetAdAccountByID)

	// -------- Change events --------
	v1.GET("/changes", s.ListChangeEvents)
	v1.GET("/changes/:id", s.GetChangeEventByID)
	v1.GET("/changes/:id/notifications", s.ListNotificationLogs)

	// -------- Notification rules --------
	v1.GET("/rules", s.ListRules)
	v1.POST("/rules", s.CreateRule)
	v1.GET("/rules/:id", s.GetRuleByID)
	v1.PUT("/rules/:id", s.UpdateRule)
	v1.DELETE("/rules/:id", s.DeleteRule)

	// -------- Usage --------
	v1.GET("/usage", s.GetOrganizationUsage)
}

// registerPlatformRoutes wires the inbound push surface. Platform webhooks
// authenticate by HMAC signature, not org context.
func (s *Server) registerPlatformRoutes() {
	s.engine.POST("/v1/platforms/:platform/webhook", s.HandlePlatformWebhook)
}
