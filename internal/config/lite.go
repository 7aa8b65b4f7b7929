// Package config provides configuration management for the advisor.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/clinrec-advisor/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It is read from plain environment variables and needs no config file.
type LiteConfig struct {
	// Data storage
	DataDir           string // Base directory for data files
	KnowledgeBasePath string // Protocol document; defaults to DataDir/knowledge_base.json

	// Cache settings
	CacheSize int // Decoded knowledge bases kept in memory

	// Analysis
	SurgicalPolicy string // assume_negative or unknown

	// Optional remote recommendation service
	RecommendationURL string

	// Transport settings
	Transport string // Transport type: stdio, http
	HTTPPort  int    // HTTP port (if transport is http)

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".clinrec-advisor")

	return &LiteConfig{
		DataDir:        dataDir,
		CacheSize:      4,
		SurgicalPolicy: domain.SurgicalPolicyAssumeNegative,
		Transport:      "stdio",
		HTTPPort:       8080,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data
	if v := os.Getenv("CLINREC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.KnowledgeBasePath = os.Getenv("CLINREC_KB_PATH")

	// Cache settings
	if v := os.Getenv("CLINREC_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}

	// Analysis
	if v := os.Getenv("CLINREC_SURGICAL_POLICY"); v != "" {
		cfg.SurgicalPolicy = v
	}

	cfg.RecommendationURL = os.Getenv("CLINREC_RECOMMENDATION_URL")

	// Transport
	if v := os.Getenv("CLINREC_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("CLINREC_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("CLINREC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLINREC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// KnowledgeBaseFile returns the protocol document path.
func (c *LiteConfig) KnowledgeBaseFile() string {
	if c.KnowledgeBasePath != "" {
		return c.KnowledgeBasePath
	}
	return filepath.Join(c.DataDir, "knowledge_base.json")
}

// ToConfig expands the lite settings into a full configuration.
func (c *LiteConfig) ToConfig() *domain.Config {
	return &domain.Config{
		Environment: "development",
		Server: domain.ServerConfig{
			Host:         "127.0.0.1",
			Port:         c.HTTPPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			RateClients:  1024,
		},
		KnowledgeBase: domain.KnowledgeBaseConfig{
			Path:      c.KnowledgeBaseFile(),
			CacheSize: c.CacheSize,
		},
		Analysis: domain.AnalysisConfig{
			SurgicalHistoryPolicy: c.SurgicalPolicy,
		},
		Recommendation: domain.RecommendationConfig{
			BaseURL:        c.RecommendationURL,
			Timeout:        30 * time.Second,
			RateLimit:      5,
			MaxRequests:    3,
			Interval:       60 * time.Second,
			BreakerTimeout: 30 * time.Second,
		},
		Logging: domain.LoggingConfig{
			Level:  c.LogLevel,
			Format: c.LogFormat,
		},
		MCP: domain.MCPConfig{
			ServerName:    "clinrec-advisor",
			ServerVersion: "1.0.0",
		},
	}
}

// Validate checks the lite settings.
func (c *LiteConfig) Validate() error {
	return ValidateConfig(c.ToConfig())
}
