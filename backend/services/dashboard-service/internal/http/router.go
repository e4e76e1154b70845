package httpserver

import (
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// Routes aggregates handlers for HTTP server.
type Routes struct {
	Login        http.HandlerFunc
	Devices      http.HandlerFunc
	Widgets      http.HandlerFunc
	Records      http.HandlerFunc
	AdminPanel   http.HandlerFunc
	UpdateDevice http.HandlerFunc
	Health       http.HandlerFunc
}

// Options configures cross-cutting middleware.
type Options struct {
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires all HTTP routes behind recovery, CORS and access logging.
func NewRouter(routes Routes, opts Options) http.Handler {
	auth := opts.Auth
	if auth == nil {
		auth = func(h http.Handler) http.Handler { return h }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	if routes.Devices != nil {
		mux.Handle("/{$}", method(http.MethodGet, routes.Devices))
	}
	if routes.Login != nil {
		mux.Handle("/login", method(http.MethodPost, routes.Login))
	}
	if routes.Widgets != nil {
		mux.Handle("/widgets/data", method(http.MethodGet, routes.Widgets))
	}
	if routes.Records != nil {
		mux.Handle("/records/data", method(http.MethodGet, routes.Records))
	}
	if routes.AdminPanel != nil || routes.UpdateDevice != nil {
		mux.Handle("/admin", auth(methods(map[string]http.HandlerFunc{
			http.MethodGet:   routes.AdminPanel,
			http.MethodPatch: routes.UpdateDevice,
		})))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}

	var h http.Handler = mux
	if len(opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(h)
	}
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog(logger))
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger.Named("recovery"))),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

func accessLog(logger *zap.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		logger.Info("http request",
			zap.String("method", p.Request.Method),
			zap.String("path", p.URL.Path),
			zap.Int("status", p.StatusCode),
			zap.Int("size", p.Size),
			zap.Duration("duration", time.Since(p.TimeStamp)),
		)
	}
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return methods(map[string]http.HandlerFunc{expected: handler})
}

func methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(byMethod))
	for m, h := range byMethod {
		if h != nil {
			allowed = append(allowed, m)
		}
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		handler := byMethod[r.Method]
		if handler == nil {
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
