// Package api serves the STAC REST API over a store.Store.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robert-malhotra/go-stac-api/internal/assetcheck"
	"github.com/robert-malhotra/go-stac-api/internal/config"
	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/store"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// Server holds the collaborators of the HTTP handlers.
type Server struct {
	cfg     *config.Config
	store   store.Store
	checker assetcheck.Checker
	pager   *pagination.Paginator
	catalog *stac.Catalog
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithChecker sets the asset file checker. The default accepts every asset.
func WithChecker(c assetcheck.Checker) Option {
	return func(s *Server) {
		s.checker = c
	}
}

// WithClock overrides the time source used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New returns a Server for cfg backed by st.
func New(cfg *config.Config, st store.Store, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		checker: assetcheck.Noop{},
		pager:   pagination.New(cfg.Pagination),
		catalog: &stac.Catalog{
			Type:        stac.CatalogType,
			Version:     stac.Version,
			ID:          cfg.Landing.ID,
			Title:       cfg.Landing.Title,
			Description: cfg.Landing.Description,
			ConformsTo:  stac.DefaultConformance,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// linker returns the link builder for the host r was addressed to.
func (s *Server) linker(r *http.Request) render.Linker {
	return render.LinkerFromRequest(r, s.apiBase())
}

func (s *Server) apiBase() string {
	if s.cfg.Server.APIBase == "" {
		return render.DefaultAPIBase
	}
	return s.cfg.Server.APIBase
}

// Run serves the API on cfg.Server.Addr until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("api_base", s.apiBase()).Msg("STAC API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	logging.Info().Msg("shutting down STAC API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
