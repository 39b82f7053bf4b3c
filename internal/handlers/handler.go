package handlers

import (
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/metrics"
	"gsj_gateway/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	log         *logger.Logger
	metrics     *metrics.Metrics
	corsOrigins []string
	tokenAuth   bool
	// loginCookies are the only cookies /login hands back.
	loginCookies []string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCORS allows browser dashboards on the given origins.
func WithCORS(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// WithTokenAuth requires a bearer token on control, session and log routes.
func WithTokenAuth() Option {
	return func(h *Handler) { h.tokenAuth = true }
}

// WithLoginCookies names the portal cookies /login returns, normally the
// session and CSRF cookies.
func WithLoginCookies(names ...string) Option {
	return func(h *Handler) { h.loginCookies = names }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		services:     services,
		log:          log,
		loginCookies: []string{"gsj_session", "XSRF-TOKEN"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if h.metrics != nil {
		router.Use(metrics.Middleware(h.metrics))
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	if len(h.corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.corsOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/sensors", h.sensors)
	router.GET("/ws", h.wsConnect)

	protected := router.Group("")
	if h.tokenAuth {
		protected.Use(h.bearerMiddleware)
	}
	h.registerControlRoutes(protected)
	h.registerSessionRoutes(protected)
	h.registerLogRoutes(protected)

	return router
}

func (h *Handler) registerControlRoutes(r *gin.RouterGroup) {
	set := r.Group("/set")
	{
		set.POST("/co/:state", h.setMode(service.CircuitHeating))
		set.POST("/cwu/:state", h.setMode(service.CircuitHotWater))
		set.POST("/temperature/co/:value", h.setSetpoint(service.CircuitHeating))
		set.POST("/temperature/cwu/:value", h.setSetpoint(service.CircuitHotWater))
	}
}

func (h *Handler) registerSessionRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/session/relogin", h.relogin)
}

func (h *Handler) registerLogRoutes(r *gin.RouterGroup) {
	r.GET("/logs", h.getLogs)
}
