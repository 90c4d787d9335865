// Package webutil provides the HTTP plumbing shared by the API servers.
package webutil

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "webutil")

// HeaderChatID is the request header carrying the chat id
const HeaderChatID = "X-Chat-ID"

// ShutdownTimeout is the time given to in-flight requests on shutdown
const ShutdownTimeout = 10 * time.Second

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes the value as JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.KV(xlog.ERROR, "reason", "encode", "err", err.Error())
	}
}

// WriteError writes {"error": message} response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// NewRouter returns a router with the common middleware.
func NewRouter(enableCORS bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if enableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", HeaderChatID},
			ExposedHeaders: []string{"X-Request-ID", HeaderChatID},
			MaxAge:         300,
		}))
	}
	r.Use(ChatContext)
	r.Use(Metrics)
	return r
}

// ChatContext attaches the chat context from the X-Chat-ID header,
// or a new one, to the request.
func ChatContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatID := r.Header.Get(HeaderChatID)
		if chatID == "" {
			chatID = chatmodel.NewChatID()
		}
		w.Header().Set(HeaderChatID, chatID)
		ctx := chatmodel.WithChatContext(r.Context(), chatmodel.NewChatContext(chatID, chatmodel.SourceHTTP))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics counts requests by route and status.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metricskey.StatsHTTPRequests.IncrCounter(1, route, strconv.Itoa(status))
		logger.ContextKV(r.Context(), xlog.DEBUG,
			"method", r.Method,
			"route", route,
			"status", status,
			"elapsed", time.Since(started).String())
	})
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO, "status", "listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "failed to listen on %s", addr)
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logger.KV(xlog.INFO, "status", "shutdown", "addr", addr)
		return errors.WithStack(srv.Shutdown(sctx))
	}
}
