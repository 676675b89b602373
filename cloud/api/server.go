// Package api provides the HTTP server that runs estimations on a worker
// and reports coarse progress to polling clients.
package api

import (
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/container-make/sizer/cloud/db"
	"github.com/container-make/sizer/pkg/batch"
	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/progress"
)

// Config holds API server configuration
type Config struct {
	Port int

	// Database
	DatabaseURL    string
	DatabaseDriver string // sqlite or postgres
}

// Server is the API server. One estimation (single or bulk) runs at a time;
// its progress is exposed through the shared tracker.
type Server struct {
	echo      *echo.Echo
	config    Config
	db        *db.Database
	estimator *estimate.Estimator
	tracker   *progress.Tracker

	mu          sync.RWMutex
	lastResults []batch.Result
}

// NewServer creates a new API server backed by the given estimator.
func NewServer(cfg Config, est *estimate.Estimator) (*Server, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestID())

	dbConfig := db.DefaultSQLiteConfig()
	if cfg.DatabaseDriver != "" {
		dbConfig.Driver = cfg.DatabaseDriver
	}
	if cfg.DatabaseURL != "" {
		dbConfig.DSN = cfg.DatabaseURL
	}

	database, err := db.New(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s := &Server{
		echo:      e,
		config:    cfg,
		db:        database,
		estimator: est,
		tracker:   progress.NewTracker(),
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	apiGroup := s.echo.Group("/api")
	apiGroup.POST("/estimate", s.startEstimate)
	apiGroup.POST("/bulk", s.startBulk)
	apiGroup.GET("/progress", s.getProgress)
	apiGroup.GET("/results", s.getResults)
	apiGroup.GET("/history", s.getHistory)
	apiGroup.GET("/catalog", s.getCatalog)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%d", s.config.Port))
}
