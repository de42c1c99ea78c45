package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	port          int
	logger        *zap.Logger
	mode          string
	readTimeout   time.Duration
	writeTimeout  time.Duration
	enableLogging bool
}

func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithMode sets the gin mode ("debug", "release" or "test").
func WithMode(mode string) Option {
	return func(o *Options) {
		o.mode = mode
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.readTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.writeTimeout = d
	}
}

func WithLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableLogging = enabled
	}
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// New creates an HTTP server around a gin engine using the builder
// options. A liveness endpoint is registered up front so deployments can
// probe the process before the application routes exist.
func New(opts ...Option) (*Server, error) {
	options := &Options{
		port:         8080,
		logger:       zap.NewNop(),
		mode:         gin.ReleaseMode,
		readTimeout:  15 * time.Second,
		writeTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.port < 1 || options.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", options.port)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(options.mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if options.enableLogging {
		engine.Use(RequestLogger(logger))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", options.port),
			Handler:      engine,
			ReadTimeout:  options.readTimeout,
			WriteTimeout: options.writeTimeout,
		},
		logger: logger.Named("http-server"),
	}, nil
}

// Engine exposes the router so the application can register its routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the server in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("HTTP server starting", zap.String("addr", s.http.Addr))

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

// Shutdown gracefully drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("forced shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
