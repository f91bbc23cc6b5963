package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	analyticsdomain "github.com/smallbiznis/hullbook/internal/analytics/domain"
	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/config"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	mappingdomain "github.com/smallbiznis/hullbook/internal/mapping/domain"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	"github.com/smallbiznis/hullbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/hullbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/hullbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/hullbook/internal/observability/tracing"
	"github.com/smallbiznis/hullbook/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module serves the admin API. Domain modules are composed by the app.
var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.ClientOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.ClientOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AddAllowMethods(http.MethodPatch)
	corsCfg.AddAllowHeaders(HeaderOwner, obsmiddleware.HeaderRequestID)
	corsCfg.AddExposeHeaders("Content-Disposition", "Retry-After", obsmiddleware.HeaderRequestID)
	return corsCfg
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	bookingSvc      bookingdomain.Service
	completionSvc   completiondomain.Service
	mappingSvc      mappingdomain.Service
	invoicingSvc    invoicingdomain.Service
	analyticsSvc    analyticsdomain.Service
	integrationSvc  integrationdomain.Service
	notificationSvc notificationdomain.Service
	syncLimiter     *ratelimit.SyncLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	BookingSvc      bookingdomain.Service
	CompletionSvc   completiondomain.Service
	MappingSvc      mappingdomain.Service
	InvoicingSvc    invoicingdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	IntegrationSvc  integrationdomain.Service
	NotificationSvc notificationdomain.Service
	SyncLimiter     *ratelimit.SyncLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		bookingSvc:      p.BookingSvc,
		completionSvc:   p.CompletionSvc,
		mappingSvc:      p.MappingSvc,
		invoicingSvc:    p.InvoicingSvc,
		analyticsSvc:    p.AnalyticsSvc,
		integrationSvc:  p.IntegrationSvc,
		notificationSvc: p.NotificationSvc,
		syncLimiter:     p.SyncLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", OwnerRequired())

	// -------- Bookings --------
	api.GET("/bookings", s.ListBookings)
	api.POST("/bookings/sync", s.SyncRateLimit(), s.SyncBookings)
	api.GET("/bookings/:id", s.GetBooking)
	api.POST("/bookings/:id/invoice", s.CreateInvoiceFromTemplate)

	// -------- Completions --------
	api.GET("/completions", s.ListCompletions)
	api.POST("/completions", s.RecordCompletion)

	// -------- Mappings --------
	api.GET("/mappings", s.ListMappings)
	api.POST("/mappings", s.LinkMapping)
	api.DELETE("/mappings/:id", s.UnlinkMapping)

	// -------- Invoices --------
	api.POST("/invoices/:family/sync", s.SyncRateLimit(), s.SyncInvoices)
	api.POST("/invoices/:family/custom", s.CreateCustomInvoice)
	api.GET("/invoices/:family", s.ListInvoices)
	api.GET("/invoices/:family/:external_id", s.GetInvoice)
	api.GET("/invoices/:family/:external_id/pdf", s.RenderInvoicePDF)
	api.GET("/square/locations", s.ListSquareLocations)

	// -------- Analytics --------
	api.GET("/analytics/summary", s.AnalyticsSummary)
	api.GET("/analytics/customers", s.AnalyticsByCustomer)
	api.GET("/analytics/customers/export", s.ExportAnalyticsByCustomer)

	// -------- Integrations --------
	api.GET("/integrations", s.GetIntegrations)
	api.PATCH("/integrations", s.UpdateIntegrations)

	// -------- Push --------
	api.POST("/push/register", s.RegisterPushDevice)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
