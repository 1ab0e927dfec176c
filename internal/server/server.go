// Package server exposes a read-only HTTP browser over a save directory:
// slot listings, header metadata, and thumbnails. It never loads a payload.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/krgsave/internal/observability"
	"github.com/danmuck/krgsave/internal/savefile"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const Version = "0.1.0"

// Catalog is the header-only view of a save directory.
type Catalog interface {
	List() ([]string, error)
	Peek(name string) (savefile.Header, error)
}

// Watcher is implemented by catalogs that can report directory changes.
// When available, peeked headers are cached until their file changes.
type Watcher interface {
	Watch(ctx context.Context, fn func(slots.Event)) error
}

type Config struct {
	Addr        string
	CorsOrigins []string
	// Location renders slot dates; nil means local time.
	Location *time.Location
	// RescalePerSecond caps thumbnail rescale requests; zero disables the cap.
	RescalePerSecond float64
}

type Server struct {
	cfg     Config
	catalog Catalog
	router  *gin.Engine
	started time.Time
	rescale *rate.Limiter

	mu      sync.Mutex
	caching bool
	headers map[string]savefile.Header
	// gens counts change events per slot; a peek only caches when no event
	// arrived while it was reading.
	gens map[string]uint64
}

func New(catalog Catalog, cfg Config) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		router:  r,
		started: time.Now(),
		headers: make(map[string]savefile.Header),
		gens:    make(map[string]uint64),
	}
	if cfg.RescalePerSecond > 0 {
		burst := int(cfg.RescalePerSecond)
		if burst < 1 {
			burst = 1
		}
		s.rescale = rate.NewLimiter(rate.Limit(cfg.RescalePerSecond), burst)
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on cfg.Addr until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.WatchSlots(ctx); err != nil {
			log.Warn().Msgf("server.Serve slot watch disabled err=%v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("server.Serve listening addr=%q", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("server.Serve shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// WatchSlots caches headers while the catalog reports changes. It blocks until
// ctx is done and is a no-op for catalogs that cannot watch.
func (s *Server) WatchSlots(ctx context.Context) error {
	w, ok := s.catalog.(Watcher)
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.caching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.caching = false
		clear(s.headers)
		s.mu.Unlock()
	}()

	return w.Watch(ctx, func(ev slots.Event) {
		log.Debug().Msgf("server.WatchSlots %s name=%q", ev.Op, ev.Name)
		s.mu.Lock()
		delete(s.headers, ev.Name)
		s.gens[ev.Name]++
		s.mu.Unlock()
	})
}

func (s *Server) peek(name string) (savefile.Header, error) {
	s.mu.Lock()
	h, hit := s.headers[name]
	caching := s.caching
	gen := s.gens[name]
	s.mu.Unlock()
	if hit {
		return h, nil
	}

	h, err := s.catalog.Peek(name)
	if err != nil {
		return savefile.Header{}, err
	}
	if caching {
		s.mu.Lock()
		if s.caching && s.gens[name] == gen {
			s.headers[name] = h
		}
		s.mu.Unlock()
	}
	return h, nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
