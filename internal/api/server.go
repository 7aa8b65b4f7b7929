package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/middleware"
)

// AnalyzeRequest is the body of POST /api/v1/analyze and /api/v1/patients/enhance
type AnalyzeRequest struct {
	Patient domain.PatientData `json:"patient"`
}

// RecommendationRequest is the body of POST /api/v1/recommendation
type RecommendationRequest struct {
	PatientID string             `json:"patient_id"`
	Patient   domain.PatientData `json:"patient"`
}

// Server represents the HTTP server
type Server struct {
	config      *domain.Config
	logger      *logrus.Logger
	engine      domain.ExplanationEngine
	knowledge   domain.KnowledgeBaseProvider
	recommender domain.RecommendationService
	router      *gin.Engine
	server      *http.Server
}

// NewServer creates a new HTTP server instance. recommender may be nil when no
// remote recommendation service is configured.
func NewServer(
	config *domain.Config,
	logger *logrus.Logger,
	engine domain.ExplanationEngine,
	knowledge domain.KnowledgeBaseProvider,
	recommender domain.RecommendationService,
) (*Server, error) {
	// Set Gin mode based on environment
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.AuditLogger(logger))

	limiter, err := middleware.NewRateLimiter(config.Server.RateLimit, config.Server.RateBurst, config.Server.RateClients)
	if err != nil {
		return nil, err
	}
	router.Use(middleware.RateLimit(limiter))

	server := &Server{
		config:      config,
		logger:      logger,
		engine:      engine,
		knowledge:   knowledge,
		recommender: recommender,
		router:      router,
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/diseases", s.handleListDiseases)
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/patients/enhance", s.handleEnhance)
		v1.POST("/recommendation", s.handleRecommendation)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	diseases := 0

	kb, err := s.knowledge.Current()
	if kb == nil {
		status, code = "degraded", http.StatusServiceUnavailable
	} else {
		diseases = len(kb.Diseases)
	}

	body := gin.H{
		"status":         status,
		"timestamp":      time.Now().UTC(),
		"version":        s.config.MCP.ServerVersion,
		"diseases":       diseases,
		"recommendation": s.recommender != nil,
	}
	if err != nil {
		body["knowledge_base_error"] = err.Error()
	}
	c.JSON(code, body)
}

// handleListDiseases returns the disease names of the loaded knowledge base
func (s *Server) handleListDiseases(c *gin.Context) {
	kb, ok := s.currentKnowledgeBase(c)
	if !ok {
		return
	}
	names := kb.DiseaseNames()
	c.JSON(http.StatusOK, gin.H{
		"diseases": names,
		"count":    len(names),
	})
}

// handleAnalyze runs a full analysis for the posted patient
func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	kb, ok := s.currentKnowledgeBase(c)
	if !ok {
		return
	}

	analysis := s.engine.Explain(req.Patient, kb)

	s.logger.WithFields(logrus.Fields{
		"correlation_id": c.GetString(middleware.CorrelationIDKey),
		"analysis_id":    analysis.ID,
		"error_code":     analysis.ErrorCode,
		"candidates":     len(analysis.Candidates),
	}).Debug("Analysis served")

	c.JSON(analysisStatus(analysis.ErrorCode), analysis)
}

// handleEnhance returns the patient map with derived attributes
func (s *Server) handleEnhance(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}
	if len(req.Patient) == 0 {
		s.respondError(c, http.StatusUnprocessableEntity, domain.ErrMissingInput, "Patient data is empty", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"patient": s.engine.EnhancePatient(req.Patient)})
}

// handleRecommendation forwards the patient as a visit record to the remote service
func (s *Server) handleRecommendation(c *gin.Context) {
	if s.recommender == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrServiceNotConfigured, "Recommendation service is not configured", "")
		return
	}

	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}
	if len(req.Patient) == 0 {
		s.respondError(c, http.StatusUnprocessableEntity, domain.ErrMissingInput, "Patient data is empty", "")
		return
	}

	record := domain.NewVisitRecord(req.PatientID, s.engine.EnhancePatient(req.Patient), time.Now())
	recommendation, err := s.recommender.Recommend(c.Request.Context(), record)
	if err != nil {
		s.logger.WithError(err).WithField("patient_id", record.PatientID).Warn("Remote recommendation failed")
		s.respondError(c, http.StatusBadGateway, domain.ErrExternalAPI, "Recommendation service failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"patient_id":     record.PatientID,
		"recommendation": recommendation,
	})
}

// currentKnowledgeBase writes a 503 and returns false when no knowledge base
// is available. A document without a disease index still serves requests.
func (s *Server) currentKnowledgeBase(c *gin.Context) (*domain.KnowledgeBase, bool) {
	kb, err := s.knowledge.Current()
	if kb == nil {
		details := ""
		if err != nil {
			details = err.Error()
		}
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrMalformedKnowledge, "Knowledge base is not available", details)
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("Serving degraded knowledge base")
	}
	return kb, true
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": domain.NewAnalysisError(code, message, details, c.GetString(middleware.CorrelationIDKey)),
	})
}

// analysisStatus maps an analysis error code to an HTTP status
func analysisStatus(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case domain.ErrMissingInput, domain.ErrUnresolvedDiagnosis:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
