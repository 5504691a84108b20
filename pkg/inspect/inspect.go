// Package inspect exposes a kinetic runtime over HTTP for debugging and
// operational tooling: instance listing, state reads and writes, history
// control, a WebSocket change stream, and Prometheus metrics.
package inspect

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

// Default tracer name for inspector spans.
const defaultTracerName = "kinetic-inspect"

// Config configures the inspector.
type Config struct {
	// Logger receives request logs. Default: slog.Default().
	Logger *slog.Logger

	// TracerName names the tracer resolved from the global provider
	// (default: "kinetic-inspect").
	TracerName string

	// CheckOrigin controls WebSocket origin checks for the watch stream.
	// Default allows all origins; production deployments should restrict
	// this.
	CheckOrigin func(*http.Request) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures the inspector.
type Option func(*Config)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *Config) {
		c.CheckOrigin = fn
	}
}

// Server serves the inspector API for one runtime.
type Server struct {
	rt       *kinetic.Runtime
	logger   *slog.Logger
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// NewServer builds an inspector for rt.
func NewServer(rt *kinetic.Runtime, opts ...Option) *Server {
	config := Config{
		Logger:     slog.Default(),
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Server{
		rt:     rt,
		logger: config.Logger,
		tracer: config.tracer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Handler returns the inspector's http.Handler for mounting in external
// routers or serving directly.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.traced)

	r.Get("/instances", s.handleList)
	r.Route("/instances/{id}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Put("/props/{name}", s.handleSetProp)
		r.Post("/commit", s.handleCommit)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Get("/watch", s.handleWatch)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Serve runs the inspector on addr until the listener fails.
func (s *Server) Serve(addr string) error {
	s.logger.Info("inspector listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}
