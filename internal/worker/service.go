// Package worker provides the HTTP check-in service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/internal/checkin"
	"github.com/thebtf/emocheck/internal/clinical"
	"github.com/thebtf/emocheck/internal/config"
	"github.com/thebtf/emocheck/internal/metrics"
	"github.com/thebtf/emocheck/internal/prompts"
	"github.com/thebtf/emocheck/internal/worker/sse"
	"github.com/thebtf/emocheck/pkg/models"
)

// SessionRepository stores check-in sessions. Complete must write the
// finished session and its entry atomically.
type SessionRepository interface {
	Create(ctx context.Context, sess *models.Session) error
	Update(ctx context.Context, sess *models.Session) error
	Complete(ctx context.Context, sess *models.Session, entry *models.MoodEntry) error
	Get(ctx context.Context, id string) (*models.Session, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Session, error)
}

// EntryRepository stores mood entries.
type EntryRepository interface {
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.MoodEntry, error)
	ListSince(ctx context.Context, patientID string, since time.Time) ([]models.MoodEntry, error)
}

// Options configures a Service.
type Options struct {
	Version  string
	Config   *config.Config
	Catalog  *catalog.Catalog
	Sessions SessionRepository
	Entries  EntryRepository
	Metrics  *metrics.Recorder
	Insights clinical.InsightProvider
	// Capture backs the photo and voice capture routes. Defaults to
	// checkin.NoCapture.
	Capture checkin.Capture
	Now     func() time.Time
}

// Service is the check-in HTTP service.
type Service struct {
	version        string
	config         *config.Config
	catalog        *catalog.Catalog
	aggregator     *checkin.Aggregator
	engine         *prompts.Engine
	observations   *clinical.Builder
	insights       clinical.InsightProvider
	sessions       SessionRepository
	entries        EntryRepository
	metrics        *metrics.Recorder
	capture        checkin.Capture
	sseBroadcaster *sse.Broadcaster
	router         *chi.Mux
	server         *http.Server
	now            func() time.Time
	startTime      time.Time

	// mu serializes load-modify-save of sessions.
	mu    sync.Mutex
	ready atomic.Bool
}

// New creates a service. Sessions and Entries are required.
func New(opts Options) (*Service, error) {
	if opts.Sessions == nil || opts.Entries == nil {
		return nil, errors.New("worker: session and entry repositories are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	capture := opts.Capture
	if capture == nil {
		capture = checkin.NoCapture{}
	}
	insights := opts.Insights
	if insights == nil {
		insights = clinical.TrendInsights{Now: now}
	}

	s := &Service{
		version:        opts.Version,
		config:         cfg,
		catalog:        cat,
		aggregator:     checkin.NewAggregator(cat, checkin.WithClock(now)),
		engine:         prompts.NewEngine(cat),
		observations:   clinical.NewBuilder(cat),
		insights:       insights,
		sessions:       opts.Sessions,
		entries:        opts.Entries,
		metrics:        opts.Metrics,
		capture:        capture,
		sseBroadcaster: sse.NewBroadcaster(),
		now:            now,
		startTime:      now(),
	}
	s.setupRoutes()
	s.ready.Store(true)
	return s, nil
}

// Handler returns the service's HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Broadcaster returns the event broadcaster.
func (s *Service) Broadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

func (s *Service) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = config.DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/profile", s.handleProfile)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/events", s.sseBroadcaster.HandleSSE)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Get("/{id}/prompts", s.handleGetPrompts)
			r.Post("/{id}/features/{feature}", s.handleRecordFeature)
			r.Post("/{id}/capture/{mode}", s.handleCapture)
			r.Post("/{id}/finish", s.handleFinishSession)
			r.Post("/{id}/abandon", s.handleAbandonSession)
		})

		r.Route("/patients/{id}", func(r chi.Router) {
			r.Get("/sessions", s.handleListSessions)
			r.Get("/trend", s.handleTrend)
			r.Get("/alerts", s.handleAlerts)
			r.Get("/report", s.handleReport)
			r.Get("/weekly", s.handleWeekly)
			r.Get("/insights", s.handleInsights)
			r.Get("/observations", s.handleObservations)
		})
	})

	s.router = r
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Start serves HTTP on the configured host and port until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.WorkerHost, strconv.Itoa(s.config.WorkerPort))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Worker listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Worker stopped")
	return nil
}
