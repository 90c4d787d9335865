// Package server provides the AI API: the math, research and document agents over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/callbacks"
	"github.com/effective-security/academix/pkg/webutil"
	"github.com/effective-security/academix/stream"
	"github.com/effective-security/academix/toolkits/documents"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "server")

// DefaultTimeout of an agent run
const DefaultTimeout = 240 * time.Second

// TimeoutMessage is the answer of a run that did not finish in time
const TimeoutMessage = "The AI agent took too long.\nThe request timed out."

// Routes
const (
	MathPath               = "/math"
	MathStreamPath         = "/math/stream"
	ResearchPath           = "/research"
	ResearchStreamPath     = "/research/stream"
	DocumentPath           = "/document"
	DocumentStructuresPath = "/document/structures"
	HealthPath             = "/health"
)

// TokensField switches a stream endpoint to token mode
const TokensField = "tokens"

// MaxBodySize is the limit of the request body
const MaxBodySize = 1 << 20

// Server serves the agents
type Server struct {
	agents     Agents
	timeout    time.Duration
	scratchpad *callbacks.Scratchpad
	router     *chi.Mux
}

// Option configures the Server
type Option func(*Server)

// WithTimeout sets the timeout of an agent run
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithScratchpad collects the run transcript of every request.
// The scratchpad must also be a callback of the agents.
func WithScratchpad(sp *callbacks.Scratchpad) Option {
	return func(s *Server) {
		s.scratchpad = sp
	}
}

// WithCORS enables CORS
func WithCORS(enable bool) Option {
	return func(s *Server) {
		s.router = webutil.NewRouter(enable)
	}
}

// New returns the Server
func New(agents Agents, opts ...Option) *Server {
	s := &Server{
		agents:  agents,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.router == nil {
		s.router = webutil.NewRouter(false)
	}
	s.setupRoutes()
	return s
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Serve runs the server until ctx is cancelled
func (s *Server) Serve(ctx context.Context, addr string) error {
	return webutil.Serve(ctx, addr, s.router)
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Get(HealthPath, s.health)

	r.Post(MathPath, s.invoke(s.agents.MainAgent))
	r.Post(MathStreamPath, s.stream(s.agents.MainAgent))
	r.Post(ResearchPath, s.invoke(s.agents.ResearchAgent))
	r.Post(ResearchStreamPath, s.stream(s.agents.ResearchAgent))

	r.Post(DocumentPath, s.document)
	r.Get(DocumentStructuresPath, s.documentStructures)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	webutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// agentFactory returns the agent of a request
type agentFactory func() (agent.Invoker, error)

func (s *Server) invoke(build agentFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := parseFields(r)
		if err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		text := strings.TrimSpace(fields["text"])
		if text == "" {
			webutil.WriteError(w, http.StatusBadRequest, "text is required")
			return
		}

		a, err := build()
		if err != nil {
			logger.ContextKV(r.Context(), xlog.ERROR, "reason", "build", "err", err.Error())
			webutil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}

		answer, err := s.run(r.Context(), func(ctx context.Context) (string, error) {
			return a.Invoke(ctx, text)
		})
		s.writeAnswer(w, r, answer, err)
	}
}

func (s *Server) stream(build agentFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fields, err := parseFields(r)
		if err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		text := strings.TrimSpace(fields["text"])
		if text == "" {
			webutil.WriteError(w, http.StatusBadRequest, "text is required")
			return
		}

		a, err := build()
		if err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "build", "err", err.Error())
			webutil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		st := stream.New()
		defer st.Close()

		// in token mode the step tokens and the tool phases are streamed,
		// instead of the workflow lines
		tokens := isTrue(fields[TokensField])
		opts := []agent.InvokeOption{agent.WithStream(st)}
		if tokens {
			ctx = stream.NewContext(ctx, st)
			opts = []agent.InvokeOption{
				agent.WithStream(stream.New(stream.WithDiscard())),
				agent.WithStepHandlers(stream.NewTokenHandler(st)),
			}
		}

		s.startRun(ctx)
		go func() {
			defer s.endRun(ctx)
			defer st.Close()
			_, err := a.Invoke(ctx, text, opts...)
			if err != nil {
				logger.ContextKV(ctx, xlog.ERROR, "reason", "invoke", "err", err.Error())
			}
		}()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)

		for {
			line, err := st.Next(ctx)
			if err != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					_, _ = io.WriteString(w, TimeoutMessage+"\n")
				}
				return
			}
			if !tokens {
				line += "\n"
			}
			if _, err = io.WriteString(w, line); err != nil {
				logger.ContextKV(ctx, xlog.DEBUG, "reason", "write", "err", err.Error())
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		webutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	structure := strings.TrimSpace(fields["structure"])
	requirements := strings.TrimSpace(fields["requirements"])
	if structure == "" || requirements == "" {
		webutil.WriteError(w, http.StatusBadRequest, "structure and requirements are required")
		return
	}

	dt, err := s.agents.DocumentTool()
	if err != nil {
		logger.ContextKV(r.Context(), xlog.ERROR, "reason", "build", "err", err.Error())
		webutil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err = dt.Structure(structure); err != nil {
		webutil.WriteError(w, http.StatusBadRequest,
			"Unknown document structure. Use one of: "+strings.Join(dt.Names(), ", "))
		return
	}

	answer, err := s.run(r.Context(), func(ctx context.Context) (string, error) {
		return dt.Write(ctx, structure, requirements)
	})
	s.writeAnswer(w, r, answer, err)
}

func (s *Server) documentStructures(w http.ResponseWriter, _ *http.Request) {
	dt, err := s.agents.DocumentTool()
	if err != nil {
		webutil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	list := make([]*documents.Structure, 0, len(dt.Names()))
	for _, name := range dt.Names() {
		st, _ := dt.Structure(name)
		list = append(list, st)
	}
	webutil.WriteJSON(w, http.StatusOK, map[string]any{"structures": list})
}

// run calls fn with the run timeout, and returns ErrTimeout when fn did not
// return in time
func (s *Server) run(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		answer string
		err    error
	}
	ch := make(chan result, 1)

	s.startRun(ctx)
	go func() {
		defer s.endRun(ctx)
		answer, err := fn(ctx)
		ch <- result{answer: answer, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return res.answer, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

// ErrTimeout is returned when the agent did not answer in time
var ErrTimeout = errors.New("agent run timed out")

func (s *Server) writeAnswer(w http.ResponseWriter, r *http.Request, answer string, err error) {
	if errors.Is(err, ErrTimeout) {
		logger.ContextKV(r.Context(), xlog.WARNING, "reason", "timeout", "timeout", s.timeout.String())
		writeText(w, http.StatusOK, TimeoutMessage)
		return
	}
	if err != nil {
		logger.ContextKV(r.Context(), xlog.ERROR, "reason", "invoke", "err", err.Error())
		webutil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.ContextKV(r.Context(), xlog.DEBUG, "answer", slices.StringUpto(answer, 64))
	writeText(w, http.StatusOK, answer)
}

func (s *Server) startRun(ctx context.Context) {
	if s.scratchpad != nil {
		s.scratchpad.StartRun(ctx)
	}
}

func (s *Server) endRun(ctx context.Context) {
	if s.scratchpad == nil {
		return
	}
	stats, transcript := s.scratchpad.EndRun(ctx)
	if stats == nil {
		return
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"chat", stats.ChatID,
		"run", stats.RunID,
		"duration", stats.Duration.String(),
		"agent_runs", stats.AgentRuns,
		"steps", stats.Steps,
		"tool_calls", stats.ToolsCalls,
		"tool_calls_failed", stats.ToolsCallsFailed,
		"transcript_size", len(transcript),
	)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func isTrue(v string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}

// parseFields returns the form fields, or the JSON object fields
func parseFields(r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodySize)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		fields := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "invalid JSON")
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(err, "invalid form")
	}
	fields := make(map[string]string, len(r.Form))
	for k := range r.Form {
		fields[k] = r.Form.Get(k)
	}
	return fields, nil
}
