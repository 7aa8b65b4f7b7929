package domain

import (
	"time"
)

// Surgical-history policies for patients whose operation history says nothing
// about a liver transplant.
const (
	SurgicalPolicyAssumeNegative = "assume_negative"
	SurgicalPolicyUnknown        = "unknown"
)

// Config represents the main application configuration
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	KnowledgeBase  KnowledgeBaseConfig  `mapstructure:"knowledge_base"`
	Analysis       AnalysisConfig       `mapstructure:"analysis"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	MCP            MCPConfig            `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second per client
	RateBurst    int           `mapstructure:"rate_burst"`
	RateClients  int           `mapstructure:"rate_clients"` // per-client limiters kept in memory
}

// KnowledgeBaseConfig locates the protocol document
type KnowledgeBaseConfig struct {
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

// AnalysisConfig holds matching policy switches
type AnalysisConfig struct {
	SurgicalHistoryPolicy string `mapstructure:"surgical_history_policy"`
}

// RecommendationConfig represents the remote recommendation service configuration
type RecommendationConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	MaxRequests    uint32        `mapstructure:"max_requests"`
	Interval       time.Duration `mapstructure:"interval"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

// Enabled reports whether a remote endpoint is configured.
func (c RecommendationConfig) Enabled() bool {
	return c.BaseURL != ""
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
