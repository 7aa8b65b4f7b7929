package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinrec-advisor/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, m.GetKnowledgeBaseConfig().CacheSize)
	assert.Equal(t, domain.SurgicalPolicyAssumeNegative, cfg.Analysis.SurgicalHistoryPolicy)
	assert.False(t, m.GetRecommendationConfig().Enabled())
	assert.Equal(t, "clinrec-advisor", cfg.MCP.ServerName)
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())
	assert.NoError(t, m.Validate())
}

func TestNewManagerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
environment: production
server:
  port: 9000
  rate_limit: 2.5
knowledge_base:
  path: /srv/kb.json
  cache_size: 2
analysis:
  surgical_history_policy: unknown
recommendation:
  base_url: http://recommender:5000
  timeout: 5s
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := NewManagerFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, m.GetServerConfig().Port)
	assert.Equal(t, 2.5, m.GetServerConfig().RateLimit)
	assert.Equal(t, "/srv/kb.json", m.GetKnowledgeBaseConfig().Path)
	assert.Equal(t, domain.SurgicalPolicyUnknown, m.GetConfig().Analysis.SurgicalHistoryPolicy)
	assert.Equal(t, 5*time.Second, m.GetRecommendationConfig().Timeout)
	assert.True(t, m.GetRecommendationConfig().Enabled())
	assert.True(t, m.IsProduction())
	assert.NoError(t, m.Validate())
}

func TestNewManager_EnvironmentOverride(t *testing.T) {
	t.Setenv("CLINREC_SERVER_PORT", "7070")
	t.Setenv("CLINREC_KNOWLEDGE_BASE_PATH", "/tmp/kb.json")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 7070, m.GetServerConfig().Port)
	assert.Equal(t, "/tmp/kb.json", m.GetKnowledgeBaseConfig().Path)

	t.Setenv("CLINREC_SERVER_PORT", "7171")
	require.NoError(t, m.Reload())
	assert.Equal(t, 7171, m.GetServerConfig().Port)
}

func TestNewManagerFromFile_Errors(t *testing.T) {
	_, err := NewManagerFromFile("")
	assert.Error(t, err)

	_, err = NewManagerFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *domain.Config {
		return DefaultLiteConfig().ToConfig()
	}

	tests := []struct {
		name    string
		mutate  func(c *domain.Config)
		wantErr bool
	}{
		{"Valid", func(c *domain.Config) {}, false},
		{"Bad port", func(c *domain.Config) { c.Server.Port = 70000 }, true},
		{"Negative rate limit", func(c *domain.Config) { c.Server.RateLimit = -1 }, true},
		{"Rate limit without client capacity", func(c *domain.Config) {
			c.Server.RateLimit = 1
			c.Server.RateClients = 0
		}, true},
		{"Missing knowledge base", func(c *domain.Config) { c.KnowledgeBase.Path = "" }, true},
		{"Negative cache", func(c *domain.Config) { c.KnowledgeBase.CacheSize = -1 }, true},
		{"Unknown policy", func(c *domain.Config) { c.Analysis.SurgicalHistoryPolicy = "maybe" }, true},
		{"Remote without scheme", func(c *domain.Config) { c.Recommendation.BaseURL = "recommender:5000" }, true},
		{"Remote without rate", func(c *domain.Config) {
			c.Recommendation.BaseURL = "http://recommender"
			c.Recommendation.RateLimit = 0
		}, true},
		{"Bad log level", func(c *domain.Config) { c.Logging.Level = "verbose" }, true},
		{"Bad log format", func(c *domain.Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, ValidateConfig(nil))
}
