// Package wizard provides the sale composition wizard bounded context.
package wizard

import (
	"travel_backoffice_backend/internal/events"
	apphttp "travel_backoffice_backend/internal/http"
	"travel_backoffice_backend/internal/wizard/handler"
	"travel_backoffice_backend/internal/wizard/service"
	"travel_backoffice_backend/internal/wizard/session"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
	"travel_backoffice_backend/platform/validator"
)

// Module is the wizard bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	registry *session.Registry
}

// NewModule creates and initializes the wizard module with all its dependencies.
func NewModule(
	cfg config.SessionConfig,
	api service.AgencyAPI,
	catalog service.CatalogAPI,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	registry := session.NewRegistry(cfg.GetSessionTTL())
	svc := service.New(registry, api, catalog, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, registry: registry}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "wizard"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Registry returns the session registry so the composition root can run the
// TTL sweep.
func (m *Module) Registry() *session.Registry {
	return m.registry
}

// RegisterRoutes mounts wizard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/wizard"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
