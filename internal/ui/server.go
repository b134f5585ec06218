// Package ui serves the browser dashboard: ask a question, watch the
// analysis steps stream in, pick a chart.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/internal/ui/features/dashboard"
	"github.com/leapstack-labs/leapviz/internal/ui/notifier"
	"github.com/leapstack-labs/leapviz/internal/ui/router"
)

const pruneInterval = time.Minute

// Config holds configuration for the UI server.
type Config struct {
	Backend       session.Source
	Port          int
	SessionSecret string
	// SessionIdle is how long an untouched session is kept.
	SessionIdle time.Duration
	// MaxConcurrent caps analyses running at once. Zero means no cap.
	MaxConcurrent int
	// AskRate is the number of questions a session may ask per second,
	// with the same burst. Zero means unlimited.
	AskRate int
	Repair  bool
	Dev     bool
	Logger  *slog.Logger
	// OnListen is called with the base URL once the port is bound.
	OnListen func(url string)
}

// Server is the main UI server.
type Server struct {
	cfg          Config
	logger       *slog.Logger
	sessionStore *sessions.CookieStore
	sessions     *session.Store
	notifier     *notifier.Notifier
	limiter      ratelimit.RateLimiter
	asks         bulkhead.Bulkhead[stream.Message]
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()
	s := &Server{
		cfg:          cfg,
		logger:       logger,
		sessionStore: sessionStore,
		notifier:     notify,
		sessions: session.NewStore(session.Options{
			Logger:   logger,
			Repair:   cfg.Repair,
			OnChange: notify.Publish,
		}),
	}
	if cfg.AskRate > 0 {
		s.limiter = ratelimit.New(&ratelimit.Config{Rate: cfg.AskRate, Burst: cfg.AskRate})
	}
	if cfg.MaxConcurrent > 0 {
		s.asks = bulkhead.New[stream.Message](bulkhead.Config{MaxConcurrent: cfg.MaxConcurrent})
	}
	return s
}

// Handler builds the router. ctx bounds the analyses it starts.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, dashboard.Deps{
		Ctx:      ctx,
		Sessions: s.sessions,
		Cookies:  s.sessionStore,
		Notifier: s.notifier,
		Backend:  s.cfg.Backend,
		Logger:   s.logger,
		Limiter:  s.limiter,
		Asks:     s.asks,
		IsDev:    s.cfg.Dev,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	url := "http://" + ln.Addr().String()
	s.logger.Info("starting UI server", "addr", url)

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler(egctx)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.SessionIdle > 0 {
		eg.Go(func() error {
			s.pruneSessions(egctx)
			return nil
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	if s.cfg.OnListen != nil {
		s.cfg.OnListen(url)
	}
	return eg.Wait()
}

// pruneSessions drops idle sessions until ctx is done.
func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.Prune(now, s.cfg.SessionIdle); n > 0 {
				s.logger.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}

// Sessions returns the server's session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}
