// Package setup prepares and checks the data directory used by the lite server.
package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/config"
	"github.com/clinrec-advisor/internal/knowledge"
)

// warningMarker flags issues that do not block the server from starting
const warningMarker = "will be created"

// Status represents the current setup status.
type Status struct {
	DataDir             string
	DataDirExists       bool
	KnowledgeBasePath   string
	KnowledgeBaseExists bool
	Diseases            []string
	Issues              []string
}

// GetStatus inspects the data directory and the knowledge base document.
func GetStatus(cfg *config.LiteConfig) *Status {
	status := &Status{
		DataDir:           cfg.DataDir,
		KnowledgeBasePath: cfg.KnowledgeBaseFile(),
		Issues:            []string{},
	}

	if info, err := os.Stat(status.DataDir); err == nil && info.IsDir() {
		status.DataDirExists = true
	} else {
		status.Issues = append(status.Issues, fmt.Sprintf("Data directory %s: %s", warningMarker, status.DataDir))
	}

	if _, err := os.Stat(status.KnowledgeBasePath); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Knowledge base not found: %s", status.KnowledgeBasePath))
		return status
	}
	status.KnowledgeBaseExists = true

	kb, err := knowledge.NewLoader(quietLogger()).LoadFile(status.KnowledgeBasePath)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Knowledge base is malformed: %v", err))
	}
	if kb != nil {
		status.Diseases = kb.DiseaseNames()
		if len(status.Diseases) == 0 {
			status.Issues = append(status.Issues, "Knowledge base contains no diseases")
		}
	}

	return status
}

// Validate checks the configuration and the knowledge base. The result is
// true when only warnings were found.
func Validate(cfg *config.LiteConfig) (bool, []string) {
	var issues []string

	if err := cfg.Validate(); err != nil {
		issues = append(issues, fmt.Sprintf("Invalid configuration: %v", err))
	}
	issues = append(issues, GetStatus(cfg).Issues...)

	return len(issues) == 0 || allWarnings(issues), issues
}

// allWarnings returns true if all issues are just warnings (not errors).
func allWarnings(issues []string) bool {
	for _, issue := range issues {
		if !strings.Contains(issue, warningMarker) {
			return false
		}
	}
	return true
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir(dataDir string) error {
	if dataDir == "" {
		dataDir = config.DefaultLiteConfig().DataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// InstallKnowledgeBase validates the document at source and copies it to the
// configured knowledge base path.
func InstallKnowledgeBase(cfg *config.LiteConfig, source string) ([]string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	kb, err := knowledge.NewLoader(quietLogger()).Parse(data)
	if err != nil {
		return nil, fmt.Errorf("refusing to install %s: %w", source, err)
	}

	target := cfg.KnowledgeBaseFile()
	if err := EnsureDataDir(filepath.Dir(target)); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write knowledge base: %w", err)
	}

	return kb.DiseaseNames(), nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
