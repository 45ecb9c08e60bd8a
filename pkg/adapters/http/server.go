package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/internal/presentation/graph"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server exposes survey sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion reports version on GET /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a Server over a session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/snapshot", s.GetSnapshot)
			r.Get("/events", s.SubscribeEvents)

			r.Post("/commands", s.PostCommand)
			r.Post("/answers", s.command(domain.CommandAnswer))
			r.Post("/text", s.command(domain.CommandText))
			r.Post("/enqueue", s.command(domain.CommandEnqueue))
			r.Post("/advance", s.command(domain.CommandAdvance))
			r.Post("/back", s.command(domain.CommandBack))
			r.Post("/reset", s.command(domain.CommandReset))
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "survey-http",
		"version": strings.TrimSpace(s.version),
	})
}

// GetGraph handles GET /graph. With ?session_id= the session state is overlaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		state, err := s.Sessions.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		overlay = graph.OverlayFrom(state)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(s.Sessions.Navigator().Graph(), overlay))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

type createRequest struct {
	SessionID string `json:"session_id"`
}

// CreateSession handles POST /sessions. The body is optional.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}

	id, state, err := s.Sessions.Start(r.Context(), body.SessionID)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.logger.Info("session created", "session_id", id)
	s.writeJSON(w, http.StatusCreated, s.Sessions.View(id, state))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Sessions.View(id, state))
}

// GetSnapshot handles GET /sessions/{sessionID}/snapshot.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, domain.NewSnapshot(state))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostCommand handles POST /sessions/{sessionID}/commands with a full domain.Command body.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	var cmd domain.Command
	if err := decodeBody(r, &cmd); err != nil {
		s.badRequest(w, err)
		return
	}
	s.apply(w, r, cmd)
}

// command returns a handler that forces the command kind and reads the rest from the body.
func (s *Server) command(kind domain.CommandKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd domain.Command
		if err := decodeBody(r, &cmd); err != nil {
			s.badRequest(w, err)
			return
		}
		cmd.Kind = kind
		s.apply(w, r, cmd)
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd domain.Command) {
	id := chi.URLParam(r, "sessionID")
	state, res, err := s.Sessions.Apply(r.Context(), id, cmd)

	if len(res.Events) > 0 {
		if data, mErr := json.Marshal(res.Events); mErr == nil {
			s.Streams.Broadcast(id, string(data))
		}
	}

	if err != nil {
		if len(res.Events) > 0 {
			s.writeError(w, err, &res)
		} else {
			s.writeError(w, err, nil)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, session.CommandView{
		Session: s.Sessions.View(id, state),
		Result:  res,
	})
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
// Each message carries the JSON event list of one applied command.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: client subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

type errorResponse struct {
	Error  string         `json:"error"`
	Result *domain.Result `json:"result,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, res *domain.Result) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Result: res})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.logger.Warn("invalid request body", "err", err)
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
