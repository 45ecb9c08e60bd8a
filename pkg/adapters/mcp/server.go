package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/internal/presentation/graph"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the Mermaid rendering of the survey graph.
const GraphURI = "survey://graph"

// Server exposes survey sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("survey-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

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

type startArgs struct {
	SessionID string `json:"session_id"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type answerArgs struct {
	SessionID  string   `json:"session_id"`
	NodeID     string   `json:"node_id"`
	Selections []string `json:"selections"`
	Append     bool     `json:"append"`
}

type textArgs struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
	Text      string `json:"text"`
}

type enqueueArgs struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a survey session at the entry node, or resume it if the id exists."),
		mcp.WithString("session_id", mcp.Description("Session ID (optional, a UUID is generated when omitted)")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current question, pending queue and answers of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Select option keys for a question. Follow-up questions are scheduled in key order."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("node_id", mcp.Description("Question ID (defaults to the current question)")),
		mcp.WithArray("selections", mcp.Required(), mcp.WithStringItems(), mcp.Description("Selected option keys")),
		mcp.WithBoolean("append", mcp.Description("Keep the previous branch and add new follow-ups at the end")),
		mcp.WithOutputSchema[session.CommandView](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("answer_text",
		mcp.WithDescription("Store a free text answer for a question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("node_id", mcp.Description("Question ID (defaults to the current question)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Answer text")),
		mcp.WithOutputSchema[session.CommandView](),
	), mcp.NewStructuredToolHandler(s.handleText))

	s.mcpServer.AddTool(mcp.NewTool("enqueue",
		mcp.WithDescription("Schedule a question at the end of the pending queue."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Question ID")),
		mcp.WithOutputSchema[session.CommandView](),
	), mcp.NewStructuredToolHandler(s.handleEnqueue))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Move to the next question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[session.CommandView](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Return to the previous question. Answers are kept."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[session.CommandView](),
	), mcp.NewStructuredToolHandler(s.handleBack))
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (session.View, error) {
	id, state, err := s.sessions.Start(ctx, args.SessionID)
	if err != nil {
		return session.View{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("MCP session started", "session_id", id)
	return s.sessions.View(id, state), nil
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.View, error) {
	state, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return session.View{}, err
	}
	return s.sessions.View(args.SessionID, state), nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args answerArgs) (session.CommandView, error) {
	return s.apply(ctx, args.SessionID, domain.Command{
		Kind:       domain.CommandAnswer,
		NodeID:     args.NodeID,
		Selections: args.Selections,
		Append:     args.Append,
	})
}

func (s *Server) handleText(ctx context.Context, _ mcp.CallToolRequest, args textArgs) (session.CommandView, error) {
	return s.apply(ctx, args.SessionID, domain.Command{Kind: domain.CommandText, NodeID: args.NodeID, Text: args.Text})
}

func (s *Server) handleEnqueue(ctx context.Context, _ mcp.CallToolRequest, args enqueueArgs) (session.CommandView, error) {
	return s.apply(ctx, args.SessionID, domain.Command{Kind: domain.CommandEnqueue, NodeID: args.NodeID})
}

func (s *Server) handleAdvance(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.CommandView, error) {
	return s.apply(ctx, args.SessionID, domain.Command{Kind: domain.CommandAdvance})
}

func (s *Server) handleBack(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.CommandView, error) {
	return s.apply(ctx, args.SessionID, domain.Command{Kind: domain.CommandBack})
}

func (s *Server) apply(ctx context.Context, sessionID string, cmd domain.Command) (session.CommandView, error) {
	state, res, err := s.sessions.Apply(ctx, sessionID, cmd)
	if err != nil {
		s.logger.Warn("MCP command rejected", "session_id", sessionID, "kind", cmd.Kind, "err", err)
		return session.CommandView{}, fmt.Errorf("%s failed: %w", cmd.Kind, err)
	}
	return session.CommandView{Session: s.sessions.View(sessionID, state), Result: res}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Survey Graph",
		mcp.WithResourceDescription("Mermaid flowchart of the survey questions and branches"),
		mcp.WithMIMEType("text/plain"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "text/plain",
			Text:     graph.GenerateMermaid(s.sessions.Navigator().Graph(), nil),
		},
	}, nil
}
