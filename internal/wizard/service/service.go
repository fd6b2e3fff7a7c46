// Package service orchestrates wizard sessions: reference data retrieval,
// draft mutations, and the final submission against the agency backend.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/internal/wizard/domain"
	"travel_backoffice_backend/internal/wizard/session"
	"travel_backoffice_backend/internal/wizard/transport"
	"travel_backoffice_backend/platform/apperr"
	"travel_backoffice_backend/platform/logger"
	"travel_backoffice_backend/platform/phone"
)

// AgencyAPI is the slice of the agency client the wizard needs.
type AgencyAPI interface {
	SearchMainClients(ctx context.Context, token, search string) ([]agency.Passenger, error)
	GetClient(ctx context.Context, token, clientID string) (*agency.Passenger, error)
	SearchCompanions(ctx context.Context, token, clientID, search string) ([]agency.Passenger, error)
	AllForSelection(ctx context.Context, token, search, excludeClientID string) ([]agency.Passenger, error)
	SearchCities(ctx context.Context, token, query string) ([]agency.City, error)
	SearchCountries(ctx context.Context, token, query string) ([]agency.Country, error)
	GetCupo(ctx context.Context, token, cupoID string) (*agency.Cupo, error)
	UploadProviderDocument(ctx context.Context, token, providerID, fileName, contentType string, content []byte) (*agency.DocumentRef, error)
	CreateSale(ctx context.Context, token string, payload agency.SalePayload) (*agency.SaleRef, error)
	UpdateSale(ctx context.Context, token, saleID string, payload agency.SalePayload) (*agency.SaleRef, error)
}

// CatalogAPI is the cached reference data the wizard reads.
type CatalogAPI interface {
	Providers(ctx context.Context, token string) ([]agency.Provider, error)
	Templates(ctx context.Context, token string) ([]agency.ServiceTemplate, error)
}

// Service provides the wizard business logic.
type Service struct {
	registry *session.Registry
	api      AgencyAPI
	catalog  CatalogAPI
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new wizard service.
func New(registry *session.Registry, api AgencyAPI, catalog CatalogAPI, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		registry: registry,
		api:      api,
		catalog:  catalog,
		bus:      bus,
		log:      log,
	}
}

// Mount opens a new wizard session. The entry context decides the shape:
// a clientId pre-selects the primary passenger, a cupoId snapshots seat
// availability, and a sale payload hydrates an existing sale for editing.
// The independent fetches run concurrently.
func (s *Service) Mount(ctx context.Context, token string, req transport.MountRequest) (*transport.MountResponse, error) {
	if req.Sale != nil && req.CupoID != "" {
		return nil, apperr.Validation("an existing sale cannot be edited against a cupo")
	}

	var draft *domain.SaleDraft
	if req.Sale != nil {
		hydrated, err := hydrateDraft(req.Sale)
		if err != nil {
			return nil, err
		}
		draft = hydrated
	} else {
		draft = domain.NewDraft()
	}

	var (
		primary *agency.Passenger
		cupo    *agency.Cupo
	)
	g, gctx := errgroup.WithContext(ctx)
	if req.ClientID != "" && req.Sale == nil {
		g.Go(func() error {
			var err error
			primary, err = s.api.GetClient(gctx, token, req.ClientID)
			return err
		})
	}
	if req.CupoID != "" {
		g.Go(func() error {
			var err error
			cupo, err = s.api.GetCupo(gctx, token, req.CupoID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if primary != nil {
		draft.SelectPassenger(toDomainPassenger(*primary))
	}
	if cupo != nil {
		draft.Cupo = &domain.CupoContext{CupoID: cupo.ID, AvailableSeats: cupo.AvailableSeats}
	}

	sess := s.registry.Create(draft)
	s.log.Info("wizard session opened",
		"session_id", sess.ID,
		"edit", draft.IsEdit(),
		"cupo", req.CupoID != "",
	)

	return &transport.MountResponse{SessionID: sess.ID, Draft: draft, EditMode: draft.IsEdit()}, nil
}

// Snapshot returns the current draft state.
func (s *Service) Snapshot(sessionID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// Abandon discards the session and its draft.
func (s *Service) Abandon(sessionID string) error {
	if _, err := s.registry.Get(sessionID); err != nil {
		return err
	}
	s.registry.Delete(sessionID)
	return nil
}

// Advance moves the wizard one step forward, enforcing the step's guard.
// Entering the template step re-reads the catalog unless the session has
// pinned its template list.
func (s *Service) Advance(ctx context.Context, token, sessionID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var refreshTemplates bool
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		var stepErr error
		refreshTemplates, stepErr = draft.Advance()
		return stepErr
	})
	if err != nil {
		return nil, err
	}

	if refreshTemplates && !sess.RefreshSuppressed() {
		if templates, err := s.catalog.Templates(ctx, token); err == nil {
			sess.SetTemplates(toSessionTemplates(templates))
		} else {
			s.log.Warn("template read failed on step entry", "session_id", sessionID, "error", err)
		}
	}

	return s.draftResponse(sess), nil
}

// Retreat moves the wizard one step back, never below the first step.
func (s *Service) Retreat(sessionID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		return draft.Retreat()
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// SearchPassengers refreshes the candidate pool from the agency backend.
// Role "main" searches titular clients, "companion" searches within the
// primary's registered companions, anything else searches the whole base
// excluding the primary.
func (s *Service) SearchPassengers(ctx context.Context, token, sessionID, search, role string) (*transport.PassengerSearchResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var primaryID string
	sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		if draft.Primary != nil {
			primaryID = draft.Primary.ID
		}
		return nil
	})

	var results []agency.Passenger
	switch role {
	case "main":
		results, err = s.api.SearchMainClients(ctx, token, search)
	case "companion":
		if primaryID != "" {
			results, err = s.api.SearchCompanions(ctx, token, primaryID, search)
		} else {
			results, err = s.api.AllForSelection(ctx, token, search, "")
		}
	default:
		results, err = s.api.AllForSelection(ctx, token, search, primaryID)
	}
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Passenger, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, toDomainPassenger(r))
	}

	var entries []domain.Passenger
	sess.WithDraft(func(draft *domain.SaleDraft, pool *domain.CandidatePool) error {
		// Search payloads can be richer than the record originally selected;
		// let them repair incomplete selections in place.
		for _, candidate := range candidates {
			draft.RepairPassenger(candidate)
		}
		pool.Replace(candidates, draft)
		entries = pool.Entries()
		return nil
	})
	return &transport.PassengerSearchResponse{Candidates: entries}, nil
}

// SelectPassenger toggles a candidate in or out of the passenger set. A
// record selected without a DNI is repaired from the authoritative detail
// endpoint before it enters the draft.
func (s *Service) SelectPassenger(ctx context.Context, token, sessionID string, p domain.Passenger) (*transport.SelectPassengerResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, apperr.Validation("passenger id is required")
	}

	var selecting bool
	sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		selecting = !draft.IsSelected(p.ID)
		return nil
	})

	if selecting && !p.HasIdentity() {
		full, err := s.api.GetClient(ctx, token, p.ID)
		if err != nil {
			s.log.Warn("passenger repair fetch failed", "session_id", sessionID, "client_id", p.ID, "error", err)
		} else {
			p = toDomainPassenger(*full)
		}
	}

	var (
		outcome domain.SelectionOutcome
		entries []domain.Passenger
	)
	err = sess.WithDraft(func(draft *domain.SaleDraft, pool *domain.CandidatePool) error {
		outcome = draft.SelectPassenger(p)
		switch outcome {
		case domain.SelectedPrimary, domain.SelectedCompanion:
			pool.Remove(p.ID)
		case domain.DeselectedPrimary, domain.DeselectedCompanion:
			pool.Return(p)
		}
		entries = pool.Entries()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &transport.SelectPassengerResponse{
		Outcome:    outcome,
		Draft:      sess.Draft,
		Candidates: entries,
	}, nil
}

// RemoveCompanion removes a companion and returns it to the candidate pool.
func (s *Service) RemoveCompanion(sessionID, passengerID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, pool *domain.CandidatePool) error {
		removed, ok := draft.RemoveCompanion(passengerID)
		if !ok {
			return apperr.NotFound("companion not found in draft")
		}
		pool.Return(removed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// SetPrice normalizes and stores the per-passenger sale price.
func (s *Service) SetPrice(sessionID string, req transport.PriceRequest) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		amount, normErr := money.Normalize(req.Amount, money.Currency(req.Currency), req.ExchangeRate)
		if normErr != nil {
			return normErr
		}
		draft.SetPrice(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// Templates lists the selectable service templates. A suppressed session
// serves its pinned list; otherwise the cache is read and pinned.
func (s *Service) Templates(ctx context.Context, token, sessionID string) (*transport.TemplatesResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if pinned, ok := sess.Templates(); ok && sess.RefreshSuppressed() {
		return &transport.TemplatesResponse{Templates: toTemplateEntries(pinned)}, nil
	}

	templates, err := s.catalog.Templates(ctx, token)
	if err != nil {
		return nil, err
	}
	pinned := toSessionTemplates(templates)
	sess.SetTemplates(pinned)
	return &transport.TemplatesResponse{Templates: toTemplateEntries(pinned)}, nil
}

// SelectTemplate adds a new service instance seeded from the shared fields.
func (s *Service) SelectTemplate(sessionID string, req transport.SelectTemplateRequest) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		draft.SelectTemplate(uuid.NewString(), req.TemplateID, req.TemplateName)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// OpenService marks an existing instance as the one under edit, so the dates
// and cost steps operate on it instead of the most recently added instance.
func (s *Service) OpenService(sessionID, instanceID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		return draft.OpenForEdit(instanceID)
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// CommitInstance saves one service instance's configuration.
func (s *Service) CommitInstance(sessionID, instanceID string, req transport.CommitInstanceRequest) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		cost, normErr := money.Normalize(req.Cost, money.Currency(req.Currency), req.ExchangeRate)
		if normErr != nil {
			return normErr
		}
		form := domain.InstanceForm{
			ServiceInfo: req.ServiceInfo,
			CheckIn:     req.CheckIn,
			CheckOut:    req.CheckOut,
			Destination: req.Destination,
			Cost:        cost,
			Providers:   toAssignments(req.Providers),
		}
		return draft.CommitInstance(instanceID, form)
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// RemoveService deletes a service instance from the draft.
func (s *Service) RemoveService(sessionID, instanceID string) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		return draft.RemoveService(instanceID)
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// SynchronizeSharedFields re-applies shared dates and destination to every
// service instance.
func (s *Service) SynchronizeSharedFields(sessionID string, req transport.SharedFieldsRequest) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		draft.SynchronizeSharedFields(req.CheckIn, req.CheckOut, req.Destination)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// AssignProvider attaches a provider to a service instance, subject to the
// global per-provider cap. A capped attempt is reported, not errored.
func (s *Service) AssignProvider(sessionID, instanceID string, req transport.AssignProviderRequest) (*transport.AssignProviderResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var applied bool
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		var assignErr error
		applied, assignErr = draft.AssignProvider(instanceID, toAssignment(req))
		return assignErr
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		s.log.Info("provider assignment capped", "session_id", sessionID, "provider_id", req.ProviderID)
	}
	return &transport.AssignProviderResponse{Applied: applied, Draft: sess.Draft}, nil
}

// UnassignProvider removes one positional assignment from a service instance.
func (s *Service) UnassignProvider(sessionID, instanceID string, index int) (*transport.DraftResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		return draft.UnassignProvider(instanceID, index)
	})
	if err != nil {
		return nil, err
	}
	return s.draftResponse(sess), nil
}

// SearchProviders filters the cached provider catalog and annotates each
// entry with its remaining assignment budget in this draft.
func (s *Service) SearchProviders(ctx context.Context, token, sessionID, search string) (*transport.ProviderSearchResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	providers, err := s.catalog.Providers(ctx, token)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	entries := make([]transport.ProviderEntry, 0, len(providers))
	sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		for _, p := range providers {
			if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
			assigned := draft.AssignmentCount(p.ID)
			entries = append(entries, transport.ProviderEntry{
				ID:         p.ID,
				Name:       p.Name,
				Assigned:   assigned,
				Assignable: assigned < domain.MaxProviderAssignments,
			})
		}
		return nil
	})
	return &transport.ProviderSearchResponse{Providers: entries}, nil
}

// SearchDestinations autocompletes cities or countries through the agency.
func (s *Service) SearchDestinations(ctx context.Context, token, sessionID string, req transport.DestinationSearchRequest) (*transport.DestinationSearchResponse, error) {
	if _, err := s.registry.Get(sessionID); err != nil {
		return nil, err
	}

	switch req.Scope {
	case "countries":
		countries, err := s.api.SearchCountries(ctx, token, req.Query)
		if err != nil {
			return nil, err
		}
		entries := make([]transport.DestinationEntry, 0, len(countries))
		for _, c := range countries {
			entries = append(entries, transport.DestinationEntry{Name: c.Name, Code: c.Code})
		}
		return &transport.DestinationSearchResponse{Countries: entries}, nil
	default:
		cities, err := s.api.SearchCities(ctx, token, req.Query)
		if err != nil {
			return nil, err
		}
		entries := make([]transport.DestinationEntry, 0, len(cities))
		for _, c := range cities {
			entries = append(entries, transport.DestinationEntry{Name: c.Name, Country: c.Country})
		}
		return &transport.DestinationSearchResponse{Cities: entries}, nil
	}
}

func (s *Service) draftResponse(sess *session.Session) *transport.DraftResponse {
	return &transport.DraftResponse{
		SessionID: sess.ID,
		Draft:     sess.Draft,
		EditMode:  sess.Draft.IsEdit(),
	}
}

func toDomainPassenger(p agency.Passenger) domain.Passenger {
	return domain.Passenger{
		ID:             p.ID,
		Name:           p.Name,
		Surname:        p.Surname,
		DNI:            p.DNI,
		Email:          p.Email,
		Phone:          phone.NormalizeE164(p.Phone),
		PassportNumber: p.PassportNumber,
	}
}

func toAssignment(req transport.AssignProviderRequest) domain.ProviderAssignment {
	assignment := domain.ProviderAssignment{
		ProviderID: req.ProviderID,
		Name:       req.Name,
	}
	for _, doc := range req.Documents {
		assignment.Pending = append(assignment.Pending, domain.PendingDocument{
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
			Content:     doc.Content,
		})
	}
	return assignment
}

func toAssignments(reqs []transport.AssignProviderRequest) []domain.ProviderAssignment {
	assignments := make([]domain.ProviderAssignment, 0, len(reqs))
	for _, req := range reqs {
		assignments = append(assignments, toAssignment(req))
	}
	return assignments
}

func toSessionTemplates(templates []agency.ServiceTemplate) []session.Template {
	out := make([]session.Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, session.Template{ID: t.ID, Name: t.Name, Category: t.Category})
	}
	return out
}

func toTemplateEntries(templates []session.Template) []transport.TemplateEntry {
	out := make([]transport.TemplateEntry, 0, len(templates))
	for _, t := range templates {
		out = append(out, transport.TemplateEntry{ID: t.ID, Name: t.Name, Category: t.Category})
	}
	return out
}

// hydrateDraft rebuilds a draft from an existing sale, field by field. Every
// hydrated instance is configured, so the first-commit fan-out never fires
// during an edit.
func hydrateDraft(snapshot *transport.SaleSnapshot) (*domain.SaleDraft, error) {
	draft := domain.NewDraft()
	draft.SaleID = snapshot.SaleID
	draft.Primary = snapshot.Primary
	draft.Companions = append(draft.Companions, snapshot.Companions...)
	draft.Destination = snapshot.Destination

	price, err := money.Normalize(snapshot.Price, money.Currency(snapshot.Currency), snapshot.ExchangeRate)
	if err != nil {
		return nil, err
	}
	draft.SetPrice(price)

	for _, svc := range snapshot.Services {
		cost, err := money.Normalize(svc.Cost, money.Currency(svc.Currency), svc.ExchangeRate)
		if err != nil {
			return nil, err
		}
		providers := make([]domain.ProviderAssignment, 0, len(svc.Providers))
		for _, p := range svc.Providers {
			providers = append(providers, domain.ProviderAssignment{
				ProviderID: p.ProviderID,
				Name:       p.Name,
				Documents:  append([]domain.DocumentRef(nil), p.Documents...),
			})
		}
		draft.Services = append(draft.Services, &domain.ServiceInstance{
			ID:           uuid.NewString(),
			TemplateID:   svc.TemplateID,
			TemplateName: svc.TemplateName,
			ServiceInfo:  svc.ServiceInfo,
			CheckIn:      svc.CheckIn,
			CheckOut:     svc.CheckOut,
			Cost:         cost,
			Destination:  svc.Destination,
			Providers:    providers,
			Configured:   true,
		})
		draft.SaleCurrency = cost.OriginalCurrency
		draft.SaleRate = cost.ExchangeRate
	}
	return draft, nil
}
