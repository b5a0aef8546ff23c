// Package api is the JSON HTTP surface over the active storage backend.
package api

import (
	"net/http"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/uploads"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("invgen-api")

type Options struct {
	SessionTTL   time.Duration
	CookieSecure bool
	// Production restricts CORS to AllowedOrigins; otherwise any origin is allowed.
	Production     bool
	AllowedOrigins []string
	// UploadDir is served under /uploads when set.
	UploadDir string
}

type Server struct {
	store    storage.Storage
	sessions storage.SessionStore
	uploads  *uploads.Service
	limiter  *RateLimiter
	metrics  *Metrics
	opts     Options
	now      func() time.Time
}

type Option func(*Server)

// WithSessions replaces the backend's own session store.
func WithSessions(sessions storage.SessionStore) Option {
	return func(s *Server) { s.sessions = sessions }
}

func WithUploads(svc *uploads.Service) Option {
	return func(s *Server) { s.uploads = svc }
}

// WithLoginRateLimit limits login and register attempts.
func WithLoginRateLimit(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func New(store storage.Storage, opts Options, options ...Option) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	s := &Server{
		store:    store,
		sessions: store.Sessions(),
		opts:     opts,
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if s.opts.Production {
		// deny all unless configured
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders(tokenHeader, "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", tokenHeader)
	corsConfig.AllowCredentials = true
	return corsConfig
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(correlationID())
	r.Use(s.metrics.middleware())
	r.Use(errorLogger(config.GetLogger()))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	if s.opts.UploadDir != "" {
		files := r.Group("/uploads", crossOriginResource())
		files.Static("/", s.opts.UploadDir)
	}

	api := r.Group("/api", s.loadSession())

	auth := api.Group("")
	if s.limiter != nil {
		auth.Use(s.limiter.Middleware())
	}
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)
	api.POST("/logout", s.logout)

	protected := api.Group("", requireAuth())
	protected.GET("/user", s.me)

	protected.GET("/company", s.getCompany)
	protected.POST("/company", s.updateCompany)

	protected.GET("/clients", s.getClients)
	protected.GET("/clients/:id", s.getClient)
	protected.GET("/clients/:id/invoices", s.getClientInvoices)
	protected.POST("/clients", s.createClient)
	protected.PUT("/clients/:id", s.updateClient)

	protected.GET("/invoices", s.getInvoices)
	protected.GET("/invoices/export", s.exportInvoices)
	protected.GET("/invoices/:id", s.getInvoice)
	protected.POST("/invoices", s.createInvoice)
	protected.PUT("/invoices/:id", s.updateInvoice)
	protected.DELETE("/invoices/:id", s.deleteInvoice)

	protected.GET("/dashboard", s.dashboard)
	protected.POST("/upload", s.upload)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}
