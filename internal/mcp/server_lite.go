// Package mcp exposes the clinical recommendation advisor over the Model Context Protocol.
// This file contains the lightweight server configured from environment variables.
package mcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	litecfg "github.com/clinrec-advisor/internal/config"
	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/knowledge"
	"github.com/clinrec-advisor/internal/service"
	"github.com/clinrec-advisor/pkg/external"
)

// LiteServer is a self-contained MCP server reading the protocol document
// from the data directory.
type LiteServer struct {
	config      *litecfg.LiteConfig
	server      *Server
	knowledge   domain.KnowledgeBaseProvider
	recommender domain.RecommendationService
	logger      *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithKnowledgeProvider replaces the file-backed knowledge base store.
func WithKnowledgeProvider(provider domain.KnowledgeBaseProvider) LiteServerOption {
	return func(s *LiteServer) error {
		s.knowledge = provider
		return nil
	}
}

// WithRecommender sets the remote recommendation service.
func WithRecommender(recommender domain.RecommendationService) LiteServerOption {
	return func(s *LiteServer) error {
		s.recommender = recommender
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	full := cfg.ToConfig()
	server := &LiteServer{
		config: cfg,
		logger: litecfg.NewLogger(full.Logging),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.knowledge == nil {
		store, err := knowledge.NewStore(server.logger, full.KnowledgeBase.Path, full.KnowledgeBase.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create knowledge base store: %w", err)
		}
		server.knowledge = store
	}

	if server.recommender == nil && full.Recommendation.Enabled() {
		client, err := external.NewRecommendationClient(full.Recommendation, server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create recommendation client: %w", err)
		}
		server.recommender = client
	}

	engine := service.NewExplanationService(server.logger, full.Analysis.SurgicalHistoryPolicy, nil)
	server.server = NewServer(full, server.logger, engine, server.knowledge, server.recommender)

	server.logger.WithFields(logrus.Fields{
		"knowledge_base": full.KnowledgeBase.Path,
		"transport":      cfg.Transport,
		"recommendation": server.recommender != nil,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// Start starts the lite MCP server.
func (s *LiteServer) Start(ctx context.Context) error {
	return s.server.Start(ctx, s.config.Transport, s.config.HTTPPort)
}

// Close drops cached knowledge bases.
func (s *LiteServer) Close() error {
	if store, ok := s.knowledge.(*knowledge.Store); ok {
		store.Purge()
	}
	return nil
}
