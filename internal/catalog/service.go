package catalog

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
)

// AgencyAPI is the slice of the agency client the catalog needs.
type AgencyAPI interface {
	SearchProviders(ctx context.Context, token, search string, limit int) ([]agency.Provider, error)
	ListSaleWizardTemplates(ctx context.Context, token string) ([]agency.ServiceTemplate, error)
}

// Service refreshes and serves the reference catalog. Background refreshes
// authenticate with the machine token; no user session is involved.
type Service struct {
	api   AgencyAPI
	cache *Cache
	token string
	bus   events.Bus
	log   *logger.Logger
}

// New creates the catalog service.
func New(api AgencyAPI, cache *Cache, cfg config.AgencyServiceTokenConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		api:   api,
		cache: cache,
		token: cfg.GetAgencyServiceToken(),
		bus:   bus,
		log:   log,
	}
}

// Refresh repopulates both snapshots from the agency backend. Both fetches
// run concurrently; a failure of either leaves the previous snapshots in
// place, so live sessions keep working off slightly stale data.
func (s *Service) Refresh(ctx context.Context) error {
	var (
		providers []agency.Provider
		templates []agency.ServiceTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		providers, err = s.api.SearchProviders(gctx, s.token, "", 0)
		return err
	})
	g.Go(func() error {
		var err error
		templates, err = s.api.ListSaleWizardTemplates(gctx, s.token)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.UpstreamError("catalog refresh", err)
		return err
	}

	if err := s.cache.SetProviders(ctx, providers); err != nil {
		return err
	}
	if err := s.cache.SetTemplates(ctx, templates); err != nil {
		return err
	}

	s.log.Info("catalog refreshed", "providers", len(providers), "templates", len(templates))
	s.bus.Publish(ctx, events.CatalogRefreshed{
		BaseEvent: events.NewBaseEvent(),
		Providers: len(providers),
		Templates: len(templates),
	})
	return nil
}

// Providers returns the cached provider snapshot, fetching on a cold cache.
// The caller's token backs the fallback fetch so a cache outage degrades to
// direct reads instead of an empty wizard.
func (s *Service) Providers(ctx context.Context, token string) ([]agency.Provider, error) {
	providers, err := s.cache.Providers(ctx)
	if err == nil {
		return providers, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn("provider cache unavailable", "error", err)
	}

	providers, err = s.api.SearchProviders(ctx, token, "", 0)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProviders(ctx, providers); err != nil {
		s.log.Warn("provider cache backfill failed", "error", err)
	}
	return providers, nil
}

// Templates returns the cached template snapshot, fetching on a cold cache.
func (s *Service) Templates(ctx context.Context, token string) ([]agency.ServiceTemplate, error) {
	templates, err := s.cache.Templates(ctx)
	if err == nil {
		return templates, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn("template cache unavailable", "error", err)
	}

	templates, err = s.api.ListSaleWizardTemplates(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetTemplates(ctx, templates); err != nil {
		s.log.Warn("template cache backfill failed", "error", err)
	}
	return templates, nil
}
