package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easyvisa/visaflow/internal/application"
	applicationdomain "github.com/easyvisa/visaflow/internal/application/domain"
	"github.com/easyvisa/visaflow/internal/auth"
	"github.com/easyvisa/visaflow/internal/auth/session"
	"github.com/easyvisa/visaflow/internal/config"
	"github.com/easyvisa/visaflow/internal/observability"
	obslogger "github.com/easyvisa/visaflow/internal/observability/logger"
	obsmetrics "github.com/easyvisa/visaflow/internal/observability/metrics"
	obstracing "github.com/easyvisa/visaflow/internal/observability/tracing"
	"github.com/easyvisa/visaflow/internal/payment"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
	"github.com/easyvisa/visaflow/internal/providers/email"
	"github.com/easyvisa/visaflow/internal/providers/slack"
	"github.com/easyvisa/visaflow/internal/ratelimit"
	"github.com/easyvisa/visaflow/internal/storage"
)

var Module = fx.Module("http.server",
	auth.Module,
	email.Module,
	slack.Module,
	storage.Module,
	application.Module,
	payment.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(m.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", m.Handler())

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
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
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	applicationSvc applicationdomain.Service
	paymentSvc     paymentdomain.Service
	uploads        *storage.Store
	credentials    *auth.Credentials
	sessions       *session.Manager
	sessionStore   *session.Store
	obsMetrics     *obsmetrics.Metrics

	checkoutLimiter *ratelimit.Limiter
	issueLimiter    *ratelimit.Limiter
	submitLimiter   *ratelimit.Limiter
	trackLimiter    *ratelimit.Limiter
	loginLimiter    *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	ApplicationSvc applicationdomain.Service
	PaymentSvc     paymentdomain.Service
	Uploads        *storage.Store
	Credentials    *auth.Credentials
	Sessions       *session.Manager
	SessionStore   *session.Store
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		applicationSvc: p.ApplicationSvc,
		paymentSvc:     p.PaymentSvc,
		uploads:        p.Uploads,
		credentials:    p.Credentials,
		sessions:       p.Sessions,
		sessionStore:   p.SessionStore,
		obsMetrics:     p.ObsMetrics,

		checkoutLimiter: ratelimit.New(30, 15*time.Minute),
		issueLimiter:    ratelimit.New(30, 15*time.Minute),
		submitLimiter:   ratelimit.New(10, 15*time.Minute),
		trackLimiter:    ratelimit.New(60, 15*time.Minute),
		loginLimiter:    ratelimit.New(5, 10*time.Minute),
	}
}

func registerRoutes(s *Server) {
	s.RegisterPublicRoutes()
	s.RegisterAdminRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterPublicRoutes() {
	s.engine.POST("/create-checkout-session", s.RateLimit(s.checkoutLimiter), s.CreateCheckoutSession)
	s.engine.POST("/api/stripe/webhook", s.HandleStripeWebhook)
	s.engine.POST("/api/application-numbers", s.RateLimit(s.issueLimiter), s.IssueApplicationNumber)
	s.engine.POST("/submit", s.RateLimit(s.submitLimiter), s.SubmitApplication)
	s.engine.POST("/track", s.RateLimit(s.trackLimiter), s.TrackApplication)
}

func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.POST("/login", s.RateLimit(s.loginLimiter), s.AdminLogin)
	admin.POST("/logout", s.AdminLogout)
	admin.GET("/applications", s.AdminRequired(), s.ListApplications)
	admin.POST("/update-status", s.AdminRequired(), s.UpdateApplicationStatus)

	s.engine.GET("/uploads/:name", s.AdminRequired(), s.ServeUpload)
}
