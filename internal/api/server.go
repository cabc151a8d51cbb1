// Package api exposes the reconciliation service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/handlers"
	"github.com/sanjay-madala/intellicarrier-backend/internal/api/middleware"
	"github.com/sanjay-madala/intellicarrier-backend/internal/reconcile"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	service    *reconcile.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, service *reconcile.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:  cfg,
		router:  router,
		logger:  logger,
		service: service,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	base := handlers.NewBase(s.service, s.logger)

	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Get)

	api := s.router.Group("/api")
	{
		// Trips and stage reporting
		tripsHandler := handlers.NewTripsHandler(base)
		api.POST("/trips", tripsHandler.Create)
		api.GET("/trips", tripsHandler.List)
		api.GET("/trips/:tripId", tripsHandler.Get)
		api.POST("/trips/:tripId/stages/:seq/report", tripsHandler.ReportStage)

		// Refill log
		refillsHandler := handlers.NewRefillsHandler(base)
		api.POST("/refills", refillsHandler.Create)
		api.GET("/vehicles/:vehicleId/refills", refillsHandler.ListByVehicle)

		// Fuel reports
		reportsHandler := handlers.NewReportsHandler(base)
		api.POST("/trips/:tripId/fuel-report", reportsHandler.Build)
		api.GET("/trips/:tripId/fuel-report", reportsHandler.GetLatest)
		api.GET("/trips/:tripId/fuel-report/history", reportsHandler.List)
		api.GET("/trips/:tripId/fuel-report/export", reportsHandler.ExportCSV)

		// Tolerance configuration
		tolerancesHandler := handlers.NewTolerancesHandler(base)
		api.GET("/tolerances/:businessUnit", tolerancesHandler.Get)
		api.PUT("/tolerances/:businessUnit", tolerancesHandler.Put)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
