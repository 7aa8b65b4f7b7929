package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinrec-advisor/internal/config"
	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/knowledge"
	"github.com/clinrec-advisor/internal/mcp"
	"github.com/clinrec-advisor/internal/service"
	"github.com/clinrec-advisor/pkg/external"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	store, err := knowledge.NewStore(logger, cfg.KnowledgeBase.Path, cfg.KnowledgeBase.CacheSize)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create knowledge base store")
	}

	var recommender domain.RecommendationService
	if cfg.Recommendation.Enabled() {
		client, err := external.NewRecommendationClient(cfg.Recommendation, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create recommendation client")
		}
		recommender = client
	}

	engine := service.NewExplanationService(logger, cfg.Analysis.SurgicalHistoryPolicy, nil)
	mcpServer := mcp.NewServer(cfg, logger, engine, store, recommender)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start MCP server
	if err := mcpServer.Start(ctx, mcp.TransportStdio, 0); err != nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("MCP server stopped")
}
