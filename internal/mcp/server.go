package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
	"github.com/osa-screening-server/internal/service"
)

// TransportStdio is the only transport the screening server speaks
const TransportStdio = "stdio"

// Server exposes the screening engine as MCP tools
type Server struct {
	mcpServer    *mcp.Server
	evaluator    *service.EvaluationService
	displayLimit int
	transport    string
	logger       *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg domain.MCPConfig, displayLimit int, evaluator *service.EvaluationService, logger *logrus.Logger) (*Server, error) {
	transport := cfg.TransportType
	if transport == "" {
		transport = TransportStdio
	}
	if transport != TransportStdio {
		return nil, fmt.Errorf("unsupported MCP transport: %s", transport)
	}
	if displayLimit <= 0 {
		displayLimit = domain.DefaultDisplayLimit
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		mcpServer:    mcp.NewServer(serverInfo, nil),
		evaluator:    evaluator,
		displayLimit: displayLimit,
		transport:    transport,
		logger:       logger,
	}

	server.registerTools()

	return server, nil
}

// Start runs the MCP session until the client disconnects or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"transport_type": s.transport,
		"tools":          len(toolDefinitions),
	}).Info("Starting OSA screening MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// registerTools registers every screening tool with the SDK
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, toolDefinitions[toolEvaluate], s.handleEvaluate)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolComputeBMI], s.handleComputeBMI)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolScoreESS], s.handleScoreESS)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolScoreBerlin], s.handleScoreBerlin)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolScoreStopBang], s.handleScoreStopBang)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolListRules], s.handleListRules)
	mcp.AddTool(s.mcpServer, toolDefinitions[toolExplainRule], s.handleExplainRule)

	s.logger.WithField("tool_count", len(toolDefinitions)).Debug("Registered MCP tools")
}
