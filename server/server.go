package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/qamatch/memory"
	"github.com/poiesic/qamatch/review"
	"github.com/poiesic/qamatch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultDrainTimeout bounds graceful shutdown.
const DefaultDrainTimeout = 10 * time.Second

// Server is the HTTP front end.
type Server struct {
	query        *search.Service
	reviews      *review.Queue
	memories     *memory.Store
	registry     *prometheus.Registry
	metrics      *Metrics
	engine       *gin.Engine
	drainTimeout time.Duration
	location     *time.Location
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRegistry registers metrics with registry and serves it on /metrics.
// Default is a fresh registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) error {
		if registry == nil {
			return errors.New("server: registry must not be nil")
		}
		s.registry = registry
		return nil
	}
}

// WithDrainTimeout bounds graceful shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return errors.New("server: drain timeout must be positive")
		}
		s.drainTimeout = d
		return nil
	}
}

// WithLocation interprets memory schedules without a zone in loc.
// Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) error {
		if loc == nil {
			return errors.New("server: location must not be nil")
		}
		s.location = loc
		return nil
	}
}

// New creates a server and mounts its routes.
func New(query *search.Service, reviews *review.Queue, memories *memory.Store, opts ...Option) (*Server, error) {
	if query == nil {
		return nil, ErrQueryServiceRequired
	}
	if reviews == nil {
		return nil, ErrReviewQueueRequired
	}
	if memories == nil {
		return nil, ErrMemoryStoreRequired
	}

	s := &Server{
		query:        query,
		reviews:      reviews,
		memories:     memories,
		drainTimeout: DefaultDrainTimeout,
		location:     time.Local,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.logger = s.logger.With("component", "server")
	s.metrics = NewMetrics(s.registry)

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestID(), s.metrics.Middleware(), accessLog(s.logger))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/feedback", s.handleFeedback)

	v1.GET("/reviews", s.listReviews)
	v1.POST("/reviews", s.submitReview)
	v1.POST("/reviews/promote", s.promoteApproved)
	v1.GET("/reviews/:id", s.getReview)
	v1.PATCH("/reviews/:id", s.flagReview)
	v1.POST("/reviews/:id/approve", s.approveReview)
	v1.DELETE("/reviews/:id", s.rejectReview)

	v1.GET("/memories", s.listMemories)
	v1.POST("/memories", s.createMemory)
	v1.GET("/memories/upcoming", s.upcomingMemories)
	v1.GET("/memories/:id", s.getMemory)
	v1.PATCH("/memories/:id", s.updateMemory)
	v1.DELETE("/memories/:id", s.deleteMemory)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		s.logger.Error("shutdown error", "err", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
