package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/api"
	"github.com/clinrec-advisor/internal/config"
	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/knowledge"
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
	if _, err := store.Current(); err != nil {
		// the server still starts and reports the problem on /health
		logger.WithError(err).Warn("Knowledge base could not be loaded")
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
	server, err := api.NewServer(cfg, logger, engine, store, recommender)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create HTTP server")
	}

	logger.WithFields(logrus.Fields{
		"host":           cfg.Server.Host,
		"port":           cfg.Server.Port,
		"environment":    cfg.Environment,
		"knowledge_base": cfg.KnowledgeBase.Path,
	}).Info("Starting clinical recommendation advisor")

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
