package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ledgerapi "github.com/viamundo/backoffice/internal/ledger/api"
	paymentsapi "github.com/viamundo/backoffice/internal/payments/api"
	supplierapi "github.com/viamundo/backoffice/internal/supplier/api"
)

// Server wraps the HTTP engine and its middleware chain.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer assembles the middleware chain and mounts every module's routes
// under /api/v1.
func NewServer(
	logger *zap.Logger,
	cfgPort string,
	cfgMode string,
	ledgerHandler *ledgerapi.LedgerHandler,
	paymentHandler *paymentsapi.PaymentHandler,
	supplierHandler *supplierapi.SupplierHandler,
) *Server {

	if cfgMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())

	// Request log through zap instead of gin's default writer.
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		logger.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", cost),
		)
	})

	// CORS for the desk frontend.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	v1 := r.Group("/api/v1")
	{
		ledgerHandler.RegisterRoutes(v1)
		paymentHandler.RegisterRoutes(v1)
		supplierHandler.RegisterRoutes(v1)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "UP"})
		})
	}

	return &Server{
		engine: r,
		logger: logger,
		port:   cfgPort,
	}
}

// Run starts listening and blocks until the listener stops.
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.engine,
	}
	s.logger.Info("backoffice API started", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
