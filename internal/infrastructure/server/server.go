// Package server wires the engine together: providers, domain managers,
// middleware, and routes.
package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/blipk/worksetsd/internal/api/http"
	"github.com/blipk/worksetsd/internal/api/middleware"
	"github.com/blipk/worksetsd/internal/api/ws"
	"github.com/blipk/worksetsd/internal/domain/bridge"
	"github.com/blipk/worksetsd/internal/domain/session"
	"github.com/blipk/worksetsd/internal/infrastructure/config"
	"github.com/blipk/worksetsd/internal/infrastructure/logging"
	"github.com/blipk/worksetsd/internal/infrastructure/monitoring"
	"github.com/blipk/worksetsd/internal/infrastructure/store"
	"github.com/blipk/worksetsd/internal/providers/appscan"
	"github.com/blipk/worksetsd/internal/providers/desktop"
	"github.com/blipk/worksetsd/internal/providers/notify"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New creates a server instance, loading or bootstrapping the session.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else if l, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: false,
		OutputPaths: []string{"stdout"},
	}); err == nil {
		logger = l
	} else {
		// A bad log level should not keep the daemon from starting.
		logger = logging.NewDefault()
		logger.Warn("invalid log level, using info", zap.String("level", cfg.Logging.Level))
	}

	logger.Info("Initializing worksets engine",
		zap.String("port", cfg.Server.Port),
		zap.String("config_dir", cfg.Session.ConfigDir),
	)

	metrics := monitoring.NewMetrics()

	gnome := desktop.NewGNOME()
	scanner := appscan.NewXDGScanner()
	appBridge := bridge.New(scanner)

	var notifier notify.Notifier = notify.NewLogNotifier(logger.Logger)
	if cfg.Session.DesktopNotifications {
		notifier = notify.NewDesktopNotifier()
	}

	sessions := session.NewManager(cfg.Session.ConfigDir, store.New(), gnome, appBridge, notifier, logger).
		WithMetrics(metrics)
	if err := sessions.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		if cfg.RateLimit.RequestsPerSecond > 0 {
			rlCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		}
		if cfg.RateLimit.Burst > 0 {
			rlCfg.Burst = cfg.RateLimit.Burst
		}
		logger.Info("Rate limiting enabled",
			zap.Int("rps", rlCfg.RequestsPerSecond),
			zap.Int("burst", rlCfg.Burst),
		)
		router.Use(middleware.RateLimit(rlCfg))
	}

	wsHandler := ws.NewHandler(logger)
	sessions.Subscribe(wsHandler.BroadcastSessionChanged)
	handlers := apihttp.NewHandlers(sessions, metrics, Version).
		WithStreamClients(wsHandler.Clients)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Session document
	router.GET("/session", handlers.GetSession)
	router.POST("/session/new", handlers.NewSession)
	router.POST("/session/load", handlers.LoadSession)
	router.POST("/session/import", handlers.ImportSession)

	// Worksets
	router.GET("/worksets", handlers.ListWorksets)
	router.POST("/worksets", handlers.CreateWorkset)
	router.POST("/worksets/import", handlers.ImportWorkset)
	router.GET("/worksets/:name", handlers.GetWorkset)
	router.PATCH("/worksets/:name", handlers.EditWorkset)
	router.DELETE("/worksets/:name", handlers.DeleteWorkset)
	router.POST("/worksets/:name/display", handlers.DisplayWorkset)
	router.POST("/worksets/:name/close", handlers.CloseWorkset)
	router.POST("/worksets/:name/favorite", handlers.ToggleFavorite)
	router.POST("/worksets/:name/background", handlers.SetBackgroundImage)
	router.POST("/worksets/:name/save", handlers.SaveWorkset)
	router.DELETE("/worksets/:name/apps/:appid", handlers.RemoveFavoriteApp)

	// Options
	router.GET("/options", handlers.GetOptions)
	router.PUT("/options", handlers.SetOptions)

	// Desktop signal forwarding
	router.POST("/events/favorites-changed", handlers.FavoritesChanged)

	// WebSocket event stream
	router.GET("/stream", wsHandler.HandleConnection)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	logger.Info("Engine initialized",
		zap.Int("worksets", len(sessions.Worksets())),
	)

	return &Server{
		router:   router,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close shuts the server down.
func (s *Server) Close() error {
	s.logger.Info("Shutting down")
	s.logger.Sync()
	return nil
}
