package server

import (
	"errors"
	"fmt"
	"net/http"

	"annbench/internal/adapter"
	pkgerrors "annbench/pkg/errors"
	"annbench/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps adapter errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, pkgerrors.ErrUnsupportedConfiguration),
		errors.Is(err, pkgerrors.ErrInvalidParameter),
		errors.Is(err, pkgerrors.ErrDimensionMismatch),
		errors.Is(err, pkgerrors.ErrDuplicateLabel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: pkgerrors.Code(err)})
}

// current returns the adapter or an InvalidState error. Callers hold s.mu.
func (s *Server) current() (adapter.ANN, error) {
	if s.ann == nil {
		return nil, fmt.Errorf("%w: no index constructed", pkgerrors.ErrInvalidState)
	}
	return s.ann, nil
}

func (s *Server) handleHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) handleCreateIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateIndexRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		ann, err := adapter.New(adapter.Definition{
			Algorithm:  req.Algorithm,
			Metric:     req.Metric,
			Precision:  req.Precision,
			Parameters: req.Parameters,
		})
		if err != nil {
			abort(c, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ann != nil {
			s.ann.Free()
		}
		s.ann = ann
		c.JSON(http.StatusCreated, DescribeIndexResponse{Name: ann.String()})
	}
}

func (s *Server) handleDescribeIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, DescribeIndexResponse{Name: ann.String()})
	}
}

// handleFreeIndex releases the index but keeps the adapter so it can be refitted.
func (s *Server) handleFreeIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ann != nil {
			s.ann.Free()
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleFit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		if err := ann.Fit(req.Vectors); err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, MemoryResponse{KiB: ann.MemoryUsage()})
	}
}

func (s *Server) handleSetQueryArgs() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QueryArgsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		if err := ann.SetQueryArguments(req.Ef); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		labels, err := ann.Query(req.Vector, req.N)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, QueryResponse{Labels: labels})
	}
}

func (s *Server) handleBatchQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		if err := ann.BatchQuery(req.Vectors, req.N); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleBatchResults() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		results, err := ann.GetBatchResults()
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, BatchResultsResponse{Results: results})
	}
}

func (s *Server) handleMemoryUsage() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ann, err := s.current()
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, MemoryResponse{KiB: ann.MemoryUsage()})
	}
}
