// Package server exposes report assembly over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// ReportSink receives the headline of every report built by /results.
type ReportSink interface {
	InsertReport(ctx context.Context, rec model.ReportRecord) error
}

// Server serves the screening API.
type Server struct {
	log        *zap.Logger
	clock      clock.Clock
	vocabulary []string
	sink       ReportSink
	engine     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source for report timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithVocabulary sets the indicators used when a request names none.
func WithVocabulary(v []string) Option {
	return func(s *Server) { s.vocabulary = append([]string(nil), v...) }
}

// WithReportSink records every built report.
func WithReportSink(sink ReportSink) Option {
	return func(s *Server) { s.sink = sink }
}

// New builds the server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		log:   zap.NewNop(),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.setup()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.log))

	router.GET("/healthz", s.handleHealth)
	router.POST("/results", s.handleResults)
	router.POST("/aggregate", s.handleAggregate)
	router.POST("/annotate", s.handleAnnotate)
	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
