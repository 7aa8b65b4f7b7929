package setup

import (
	"fmt"
	"io"
	"os"

	"github.com/clinrec-advisor/internal/config"
)

// CLI provides command-line interface for setup operations.
type CLI struct {
	config *config.LiteConfig
	out    io.Writer
}

// NewCLI creates a new setup CLI instance writing to stdout.
func NewCLI(cfg *config.LiteConfig) *CLI {
	return &CLI{config: cfg, out: os.Stdout}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "init":
		return c.initDataDir()
	case "install":
		if len(args) < 2 {
			return fmt.Errorf("usage: mcp-server-lite setup install <knowledge_base.json>")
		}
		return c.install(args[1])
	case "status":
		return c.showStatus()
	case "validate":
		return c.validate()
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		return c.showHelp()
	}
}

// showHelp displays usage information.
func (c *CLI) showHelp() error {
	help := `
Clinical Recommendation Advisor Setup

Usage:
  mcp-server-lite setup <command> [options]

Commands:
  init                    Create the data directory
  install <file.json>     Validate a protocol document and install it as the knowledge base
  status                  Show data directory and knowledge base status
  validate                Validate configuration and knowledge base

Environment:
  CLINREC_DATA_DIR, CLINREC_KB_PATH, CLINREC_SURGICAL_POLICY, CLINREC_LOG_LEVEL
`
	fmt.Fprintln(c.out, help)
	return nil
}

func (c *CLI) initDataDir() error {
	if err := EnsureDataDir(c.config.DataDir); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✓ Data directory ready: %s\n", c.config.DataDir)
	return nil
}

func (c *CLI) install(source string) error {
	diseases, err := InstallKnowledgeBase(c.config, source)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✓ Installed knowledge base at %s (%d diseases)\n", c.config.KnowledgeBaseFile(), len(diseases))
	return nil
}

// showStatus displays the current setup status.
func (c *CLI) showStatus() error {
	status := GetStatus(c.config)

	fmt.Fprintln(c.out, "Clinical Recommendation Advisor Status")
	fmt.Fprintln(c.out, "======================================")
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Data Directory:")
	fmt.Fprintf(c.out, "  Path: %s\n", status.DataDir)
	if status.DataDirExists {
		fmt.Fprintln(c.out, "  Status: ✓ Exists")
	} else {
		fmt.Fprintln(c.out, "  Status: - Will be created on first run")
	}
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Knowledge Base:")
	fmt.Fprintf(c.out, "  Path: %s\n", status.KnowledgeBasePath)
	if status.KnowledgeBaseExists {
		fmt.Fprintf(c.out, "  Diseases: %d\n", len(status.Diseases))
		for _, name := range status.Diseases {
			fmt.Fprintf(c.out, "    • %s\n", name)
		}
	} else {
		fmt.Fprintln(c.out, "  Status: ✗ Not installed")
	}
	fmt.Fprintln(c.out)

	// Issues
	if len(status.Issues) > 0 {
		fmt.Fprintln(c.out, "Issues:")
		for _, issue := range status.Issues {
			fmt.Fprintf(c.out, "  ⚠ %s\n", issue)
		}
		fmt.Fprintln(c.out)
	}

	return nil
}

// validate checks the current configuration.
func (c *CLI) validate() error {
	fmt.Fprintln(c.out, "Validating configuration...")
	fmt.Fprintln(c.out)

	valid, issues := Validate(c.config)

	if valid {
		fmt.Fprintln(c.out, "✓ Configuration is valid!")
		return nil
	}

	fmt.Fprintln(c.out, "✗ Configuration has issues:")
	for _, issue := range issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
	return fmt.Errorf("configuration has %d issue(s)", len(issues))
}
