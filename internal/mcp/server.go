package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// Supported transports
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Server exposes the advisor as MCP tools
type Server struct {
	config      *domain.Config
	mcpServer   *mcp.Server
	engine      domain.ExplanationEngine
	knowledge   domain.KnowledgeBaseProvider
	recommender domain.RecommendationService
	logger      *logrus.Logger
}

// NewServer creates a new MCP server instance and registers its tools.
// recommender may be nil, in which case request_recommendation is not offered.
func NewServer(
	config *domain.Config,
	logger *logrus.Logger,
	engine domain.ExplanationEngine,
	knowledge domain.KnowledgeBaseProvider,
	recommender domain.RecommendationService,
) *Server {
	// Create server info
	serverInfo := &mcp.Implementation{
		Name:    config.MCP.ServerName,
		Version: config.MCP.ServerVersion,
	}

	server := &Server{
		config:      config,
		mcpServer:   mcp.NewServer(serverInfo, nil),
		engine:      engine,
		knowledge:   knowledge,
		recommender: recommender,
		logger:      logger,
	}

	server.registerTools()
	return server
}

// registerTools registers every advisor tool with the MCP SDK
func (s *Server) registerTools() {
	s.logger.Info("Registering MCP tools...")

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolAnalyzePatient,
		Description: "Match patient attributes against the clinical recommendation protocols and return the ranked treatment report",
	}, s.handleAnalyzePatient)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListDiseases,
		Description: "List the diseases covered by the loaded knowledge base",
	}, s.handleListDiseases)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolEnhancePatient,
		Description: "Return the patient attributes with derived clinical facts added",
	}, s.handleEnhancePatient)

	count := 3
	if s.recommender != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        ToolRequestRecommendation,
			Description: "Forward the patient as a visit record to the remote recommendation service",
		}, s.handleRequestRecommendation)
		count++
	}

	s.logger.WithField("tool_count", count).Info("Successfully registered all tools")
}

// Start runs the MCP server on the given transport until ctx is cancelled
func (s *Server) Start(ctx context.Context, transport string, httpPort int) error {
	s.logger.WithField("transport_type", transport).Info("Starting clinical recommendation MCP server...")

	switch transport {
	case "", TransportStdio:
		if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	case TransportHTTP:
		return s.serveHTTP(ctx, httpPort)
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}

// serveHTTP serves the streamable HTTP transport on the given port
func (s *Server) serveHTTP(ctx context.Context, port int) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", port).Info("MCP HTTP transport listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("MCP HTTP transport failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
