package server

import (
	"net/http"
	"sync"
	"time"

	"annbench/internal/adapter"
	"annbench/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes a single adapter over HTTP. Requests are serialised.
type Server struct {
	router *gin.Engine

	mu  sync.Mutex
	ann adapter.ANN
}

// New creates a new server instance with no adapter constructed
func New() *Server {
	s := &Server{
		router: gin.New(),
	}
	s.router.Use(requestLogger(), gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHealthCheck())

	s.router.POST("/v1/index", s.handleCreateIndex())
	s.router.GET("/v1/index", s.handleDescribeIndex())
	s.router.DELETE("/v1/index", s.handleFreeIndex())
	s.router.POST("/v1/index/fit", s.handleFit())
	s.router.PUT("/v1/index/query-args", s.handleSetQueryArgs())
	s.router.POST("/v1/index/query", s.handleQuery())
	s.router.POST("/v1/index/batch-query", s.handleBatchQuery())
	s.router.GET("/v1/index/batch-results", s.handleBatchResults())
	s.router.GET("/v1/index/memory", s.handleMemoryUsage())
}

// Handler returns the router for embedding in another server or a test.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	logger.Info("Serving adapter", "addr", addr)
	return s.router.Run(addr)
}

// Close frees the current adapter, if any.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ann != nil {
		s.ann.Free()
		s.ann = nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
