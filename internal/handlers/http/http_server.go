package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/service"
	"wallet-persona-engine/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server exposes the persona analysis service over HTTP
type Server struct {
	analysisService service.PersonaAnalysisService
	logger          *logger.Logger
	engine          *gin.Engine
	server          *http.Server
}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	WalletAddress string                  `json:"walletAddress" binding:"required"`
	Transactions  []entity.RawTransaction `json:"transactions"`
}

// NewServer creates a new HTTP server with configured routes
func NewServer(port int, analysisService service.PersonaAnalysisService, logger *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		analysisService: analysisService,
		logger:          logger.WithComponent("http-server"),
		engine:          engine,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	engine.Use(gin.Recovery())
	engine.Use(s.requestID())
	s.registerRoutes()

	return s
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api/v1")
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/personas/:address", s.handleGetPersona)
}

// requestID tags every request with a correlation id for log tracing
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// handleAnalyze analyzes the transactions supplied in the request body
func (s *Server) handleAnalyze(c *gin.Context) {
	var request AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	result, err := s.analysisService.AnalyzeWallet(c.Request.Context(), request.WalletAddress, request.Transactions)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      "transaction validation failed",
				"violations": validationErr.Violations,
			})
			return
		}

		s.logger.Error("Wallet analysis failed",
			zap.String("wallet_address", request.WalletAddress),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetPersona returns a previously analyzed persona. With
// ?refresh=true the wallet's history is re-fetched from the explorer and
// re-analyzed instead.
func (s *Server) handleGetPersona(c *gin.Context) {
	address := c.Param("address")

	var result *entity.PersonaResult
	var err error
	if c.Query("refresh") == "true" {
		result, err = s.analysisService.RefreshPersona(c.Request.Context(), address)
	} else {
		result, err = s.analysisService.GetPersona(c.Request.Context(), address)
	}

	if err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no persona found for wallet"})
			return
		}

		s.logger.Error("Persona lookup failed",
			zap.String("wallet_address", address),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persona lookup failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler exposes the underlying router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
