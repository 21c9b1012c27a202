package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/daemon"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/promoter"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

// Client is the part of *rtkit.Client the API serves.
type Client interface {
	PolicyLimits(ctx context.Context) (rtkit.PolicyLimits, error)
	Apply(ctx context.Context, pid, tid uint64, req rtkit.Request) error
	ResetKnown(ctx context.Context) error
	ResetAll(ctx context.Context) error
}

// Inspector reports the daemon status.
type Inspector func(ctx context.Context) (*daemon.Status, error)

type Server struct {
	mux         *http.ServeMux
	config      *config.ApiConfig
	client      Client
	inspect     Inspector
	promoter    *promoter.Promoter
	broadcaster *Broadcaster
}

// NewServer returns nil when the API is disabled. inspect and p may be nil,
// their routes are then not registered. The promoter's events are streamed
// on /events until ctx is done.
func NewServer(ctx context.Context, cfg *config.ApiConfig, client Client, inspect Inspector, p *promoter.Promoter) *Server {
	if cfg == nil || !cfg.Enabled || client == nil {
		return nil
	}

	server := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		client:   client,
		inspect:  inspect,
		promoter: p,
	}
	if p != nil {
		server.broadcaster = NewBroadcaster(ctx, p.Events())
	}
	server.register()
	return server
}

// Handler returns the server's routes wrapped in its middlewares.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.CORS != nil {
		handler = corsMiddleware(s.config.CORS)(handler)
	}
	return handler
}

func (s *Server) Run(ctx context.Context) error {
	handler := s.Handler()

	servers := make([]*http.Server, len(s.config.Listens))
	for i, addr := range s.config.Listens {
		servers[i] = &http.Server{
			Addr:    addr,
			Handler: handler,
			// Request contexts end with ctx so SSE streams stop on shutdown.
			BaseContext: func(_ net.Listener) context.Context { return ctx },
		}
	}

	// Shutdown all servers on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Info("[api] server %s shutdown error: %v", srv.Addr, err)
			}
		}
	}()

	// Start one goroutine per listen address
	errCh := make(chan error, len(servers))
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			logger.Info("[api] http server running on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

func corsMiddleware(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	wildcard := slices.Contains(cfg.Origins, "*")
	logger.Info("[api] CORS enabled, origins: %v", cfg.Origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if wildcard {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if slices.Contains(cfg.Origins, origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
