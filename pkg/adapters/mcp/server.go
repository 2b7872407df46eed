package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/recon"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Matcher screens a command against the denylist without asking anyone.
type Matcher interface {
	Match(cmd domain.Command) (string, bool)
}

// DetectArgs are the arguments of the detect_recon tool.
type DetectArgs struct {
	Output string `json:"output"`
}

// DetectResult aligns with the HTTP /v1/recon response.
type DetectResult struct {
	Suggestions  []string `json:"suggestions" jsonschema_description:"Follow-up command templates, TARGET left unsubstituted"`
	MatchedRules []string `json:"matched_rules" jsonschema_description:"Names of the rules that matched"`
}

// CheckArgs are the arguments of the check_command tool.
type CheckArgs struct {
	Command string `json:"command"`
}

// CheckResult reports whether a command would need operator confirmation.
type CheckResult struct {
	Command       string `json:"command" jsonschema_description:"The trimmed command"`
	Flagged       bool   `json:"flagged" jsonschema_description:"True when the command matches the denylist"`
	MatchedPrefix string `json:"matched_prefix,omitempty" jsonschema_description:"The denylist prefix that matched"`
}

// Server exposes the reconnaissance rules and the safety denylist as MCP tools.
// It never executes commands.
type Server struct {
	gate      Matcher
	denylist  []string
	rules     *recon.RuleSet
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDenylist publishes prefixes as the silvershell://denylist resource.
func WithDenylist(prefixes []string) Option {
	return func(s *Server) {
		s.denylist = prefixes
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(gate Matcher, rules *recon.RuleSet, version string, opts ...Option) *Server {
	s := &Server{
		gate:      gate,
		rules:     rules,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("silvershell-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: detect_recon
	detectTool := mcp.NewTool("detect_recon",
		mcp.WithDescription("Suggest follow-up reconnaissance commands for the output of a scan or shell command."),
		mcp.WithString("output", mcp.Required(), mcp.Description("Raw command output to classify")),
		mcp.WithOutputSchema[DetectResult](),
	)
	s.mcpServer.AddTool(detectTool, mcp.NewStructuredToolHandler(s.handleDetectRecon))

	// TOOL: check_command
	checkTool := mcp.NewTool("check_command",
		mcp.WithDescription("Report whether a shell command matches the SilverShell denylist and would require confirmation."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command line, without the leading '!'")),
		mcp.WithOutputSchema[CheckResult](),
	)
	s.mcpServer.AddTool(checkTool, mcp.NewStructuredToolHandler(s.handleCheckCommand))
}

func (s *Server) handleDetectRecon(ctx context.Context, request mcp.CallToolRequest, args DetectArgs) (DetectResult, error) {
	suggestions := s.rules.Detect(args.Output)
	matched := s.rules.Matches(args.Output)
	s.logger.Debug("MCP detect_recon", "output_bytes", len(args.Output), "suggestions", len(suggestions))

	result := DetectResult{
		Suggestions:  []string(suggestions),
		MatchedRules: matched,
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	if result.MatchedRules == nil {
		result.MatchedRules = []string{}
	}
	return result, nil
}

func (s *Server) handleCheckCommand(ctx context.Context, request mcp.CallToolRequest, args CheckArgs) (CheckResult, error) {
	cmd, err := domain.Command(args.Command).Normalize()
	if err != nil {
		return CheckResult{}, fmt.Errorf("check_command: %w", err)
	}
	prefix, flagged := s.gate.Match(cmd)
	s.logger.Debug("MCP check_command", "command", cmd.String(), "flagged", flagged)
	return CheckResult{Command: cmd.String(), Flagged: flagged, MatchedPrefix: prefix}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: silvershell://rules
	s.mcpServer.AddResource(mcp.NewResource("silvershell://rules", "Reconnaissance Rules",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.rulesJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "silvershell://rules",
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})

	if len(s.denylist) == 0 {
		return
	}
	// EXPOSE: silvershell://denylist
	s.mcpServer.AddResource(mcp.NewResource("silvershell://denylist", "Safety Denylist",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.denylist)
		if err != nil {
			return nil, fmt.Errorf("failed to encode denylist: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "silvershell://denylist",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) rulesJSON() (string, error) {
	rules := s.rules.Rules()
	specs := make([]recon.RuleSpec, 0, len(rules))
	for _, rule := range rules {
		specs = append(specs, rule.Spec())
	}
	jsonBytes, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("failed to encode rules: %w", err)
	}
	return string(jsonBytes), nil
}
