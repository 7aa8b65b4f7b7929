package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/clinrec-advisor/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

// NewManager creates a new configuration manager that searches the default
// locations for config.yaml
func NewManager() (*Manager, error) {
	return newManager("")
}

// NewManagerFromFile creates a configuration manager reading an explicit file
func NewManagerFromFile(path string) (*Manager, error) {
	if path == "" {
		return nil, errors.New("config file path is empty")
	}
	return newManager(path)
}

func newManager(file string) (*Manager, error) {
	m := &Manager{file: file}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/clinrec-advisor/")
	}

	// CLINREC_KNOWLEDGE_BASE_PATH overrides knowledge_base.path
	v.SetEnvPrefix("CLINREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.rate_clients", 1024)

	// Knowledge base defaults
	v.SetDefault("knowledge_base.path", "./data/knowledge_base.json")
	v.SetDefault("knowledge_base.cache_size", 4)

	// Analysis defaults
	v.SetDefault("analysis.surgical_history_policy", domain.SurgicalPolicyAssumeNegative)

	// Remote recommendation service defaults (disabled until base_url is set)
	v.SetDefault("recommendation.base_url", "")
	v.SetDefault("recommendation.timeout", "30s")
	v.SetDefault("recommendation.rate_limit", 5)
	v.SetDefault("recommendation.max_requests", 3)
	v.SetDefault("recommendation.interval", "60s")
	v.SetDefault("recommendation.breaker_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "clinrec-advisor")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetKnowledgeBaseConfig returns knowledge base configuration
func (m *Manager) GetKnowledgeBaseConfig() *domain.KnowledgeBaseConfig {
	return &m.config.KnowledgeBase
}

// GetRecommendationConfig returns the remote recommendation service configuration
func (m *Manager) GetRecommendationConfig() *domain.RecommendationConfig {
	return &m.config.Recommendation
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return ValidateConfig(m.config)
}

// ValidateConfig checks a configuration regardless of where it was loaded from
func ValidateConfig(config *domain.Config) error {
	if config == nil {
		return errors.New("configuration is nil")
	}

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server rate limit: %v", config.Server.RateLimit)
	}
	if config.Server.RateLimit > 0 && config.Server.RateClients <= 0 {
		return fmt.Errorf("invalid server rate limit client capacity: %d", config.Server.RateClients)
	}

	// Validate knowledge base configuration
	if config.KnowledgeBase.Path == "" {
		return fmt.Errorf("knowledge base path is required")
	}
	if config.KnowledgeBase.CacheSize < 0 {
		return fmt.Errorf("invalid knowledge base cache size: %d", config.KnowledgeBase.CacheSize)
	}

	if err := ValidateSurgicalPolicy(config.Analysis.SurgicalHistoryPolicy); err != nil {
		return err
	}

	// Validate remote service configuration only when enabled
	if config.Recommendation.Enabled() {
		if !strings.HasPrefix(config.Recommendation.BaseURL, "http://") && !strings.HasPrefix(config.Recommendation.BaseURL, "https://") {
			return fmt.Errorf("invalid recommendation base URL: %s", config.Recommendation.BaseURL)
		}
		if config.Recommendation.RateLimit <= 0 {
			return fmt.Errorf("recommendation rate limit must be positive")
		}
	}

	return ValidateLogging(config.Logging)
}

// ValidateSurgicalPolicy checks the surgical-history policy name
func ValidateSurgicalPolicy(policy string) error {
	switch policy {
	case "", domain.SurgicalPolicyAssumeNegative, domain.SurgicalPolicyUnknown:
		return nil
	default:
		return fmt.Errorf("invalid surgical history policy: %s", policy)
	}
}

// ValidateLogging checks log level and format
func ValidateLogging(logging domain.LoggingConfig) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(logging.Level)] {
		return fmt.Errorf("invalid log level: %s", logging.Level)
	}
	switch strings.ToLower(logging.Format) {
	case "", "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", logging.Format)
	}
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
