package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinrec-advisor/internal/domain"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 4, cfg.CacheSize)
	assert.Equal(t, domain.SurgicalPolicyAssumeNegative, cfg.SurgicalPolicy)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	// Clear relevant env vars
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 4, cfg.CacheSize)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Empty(t, cfg.RecommendationURL)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("CLINREC_DATA_DIR", "/tmp/test-clinrec")
	os.Setenv("CLINREC_KB_PATH", "/srv/kb/protocols.json")
	os.Setenv("CLINREC_CACHE_SIZE", "8")
	os.Setenv("CLINREC_SURGICAL_POLICY", "unknown")
	os.Setenv("CLINREC_RECOMMENDATION_URL", "http://localhost:5000")
	os.Setenv("CLINREC_TRANSPORT", "http")
	os.Setenv("CLINREC_HTTP_PORT", "9090")
	os.Setenv("CLINREC_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-clinrec", cfg.DataDir)
	assert.Equal(t, "/srv/kb/protocols.json", cfg.KnowledgeBaseFile())
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, domain.SurgicalPolicyUnknown, cfg.SurgicalPolicy)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)

	full := cfg.ToConfig()
	assert.True(t, full.Recommendation.Enabled())
	assert.Equal(t, 9090, full.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLiteConfig_IgnoresInvalidNumbers(t *testing.T) {
	clearEnvVars(t)
	os.Setenv("CLINREC_CACHE_SIZE", "-3")
	os.Setenv("CLINREC_HTTP_PORT", "port")
	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, 4, cfg.CacheSize)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLiteConfig_KnowledgeBaseFile(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.clinrec-advisor"}

	assert.Equal(t, "/home/user/.clinrec-advisor/knowledge_base.json", cfg.KnowledgeBaseFile())
}

func TestLiteConfig_ValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := DefaultLiteConfig()
	cfg.SurgicalPolicy = "guess"

	assert.Error(t, cfg.Validate())
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"CLINREC_DATA_DIR",
		"CLINREC_KB_PATH",
		"CLINREC_CACHE_SIZE",
		"CLINREC_SURGICAL_POLICY",
		"CLINREC_RECOMMENDATION_URL",
		"CLINREC_TRANSPORT",
		"CLINREC_HTTP_PORT",
		"CLINREC_LOG_LEVEL",
		"CLINREC_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
