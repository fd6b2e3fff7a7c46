package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/internal/wizard/domain"
	"travel_backoffice_backend/internal/wizard/session"
	"travel_backoffice_backend/internal/wizard/transport"
	"travel_backoffice_backend/platform/apperr"
	"travel_backoffice_backend/platform/logger"
)

type fakeAgency struct {
	clients    map[string]agency.Passenger
	companions map[string][]agency.Passenger
	cupos      map[string]agency.Cupo
	cities     []agency.City
	countries  []agency.Country

	uploadRefs  map[string]agency.DocumentRef
	uploadErrOn string
	uploads     []string
	createErr   error
	created     []agency.SalePayload
	updated     []string
	nextSaleID  string
	clientCalls int
}

func newFakeAgency() *fakeAgency {
	return &fakeAgency{
		clients:    map[string]agency.Passenger{},
		companions: map[string][]agency.Passenger{},
		cupos:      map[string]agency.Cupo{},
		uploadRefs: map[string]agency.DocumentRef{},
		nextSaleID: "sale-1",
	}
}

func (f *fakeAgency) SearchMainClients(ctx context.Context, token, search string) ([]agency.Passenger, error) {
	var out []agency.Passenger
	for _, c := range f.clients {
		if c.IsMainClient {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAgency) GetClient(ctx context.Context, token, clientID string) (*agency.Passenger, error) {
	f.clientCalls++
	c, ok := f.clients[clientID]
	if !ok {
		return nil, apperr.NotFound("client not found")
	}
	return &c, nil
}

func (f *fakeAgency) SearchCompanions(ctx context.Context, token, clientID, search string) ([]agency.Passenger, error) {
	return f.companions[clientID], nil
}

func (f *fakeAgency) AllForSelection(ctx context.Context, token, search, excludeClientID string) ([]agency.Passenger, error) {
	var out []agency.Passenger
	for _, c := range f.clients {
		if c.ID != excludeClientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAgency) SearchCities(ctx context.Context, token, query string) ([]agency.City, error) {
	return f.cities, nil
}

func (f *fakeAgency) SearchCountries(ctx context.Context, token, query string) ([]agency.Country, error) {
	return f.countries, nil
}

func (f *fakeAgency) GetCupo(ctx context.Context, token, cupoID string) (*agency.Cupo, error) {
	c, ok := f.cupos[cupoID]
	if !ok {
		return nil, apperr.NotFound("cupo not found")
	}
	return &c, nil
}

func (f *fakeAgency) UploadProviderDocument(ctx context.Context, token, providerID, fileName, contentType string, content []byte) (*agency.DocumentRef, error) {
	if f.uploadErrOn != "" && f.uploadErrOn == fileName {
		return nil, errors.New("storage unavailable")
	}
	f.uploads = append(f.uploads, providerID+"/"+fileName)
	ref := agency.DocumentRef{ID: fmt.Sprintf("doc-%d", len(f.uploads)), FileName: fileName}
	f.uploadRefs[fileName] = ref
	return &ref, nil
}

func (f *fakeAgency) CreateSale(ctx context.Context, token string, payload agency.SalePayload) (*agency.SaleRef, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, payload)
	return &agency.SaleRef{ID: f.nextSaleID}, nil
}

func (f *fakeAgency) UpdateSale(ctx context.Context, token, saleID string, payload agency.SalePayload) (*agency.SaleRef, error) {
	f.updated = append(f.updated, saleID)
	return &agency.SaleRef{ID: saleID}, nil
}

type fakeCatalog struct {
	providers    []agency.Provider
	templates    []agency.ServiceTemplate
	templateHits int
}

func (f *fakeCatalog) Providers(ctx context.Context, token string) ([]agency.Provider, error) {
	return f.providers, nil
}

func (f *fakeCatalog) Templates(ctx context.Context, token string) ([]agency.ServiceTemplate, error) {
	f.templateHits++
	return f.templates, nil
}

func newTestService(api *fakeAgency, cat *fakeCatalog) *Service {
	log := logger.New("test")
	return New(session.NewRegistry(time.Hour), api, cat, events.NewInMemoryBus(log), log)
}

func mustMount(t *testing.T, svc *Service, req transport.MountRequest) string {
	t.Helper()
	resp, err := svc.Mount(context.Background(), "tok", req)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	return resp.SessionID
}

// driveToReview walks a minimal valid draft to the final step.
func driveToReview(t *testing.T, svc *Service, sid string, docs []transport.DocumentUpload) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.SetPrice(sid, transport.PriceRequest{Amount: 500, Currency: "USD"}); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := svc.Advance(ctx, "tok", sid); err != nil {
		t.Fatalf("advance to price: %v", err)
	}
	if _, err := svc.Advance(ctx, "tok", sid); err != nil {
		t.Fatalf("advance to templates: %v", err)
	}
	if _, err := svc.SelectTemplate(sid, transport.SelectTemplateRequest{TemplateID: "tpl-1", TemplateName: "Hotel"}); err != nil {
		t.Fatalf("select template: %v", err)
	}

	resp, err := svc.Snapshot(sid)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	instanceID := resp.Draft.Services[0].ID

	commit := transport.CommitInstanceRequest{
		ServiceInfo: "Hotel, double room",
		CheckIn:     "2026-10-01",
		CheckOut:    "2026-10-05",
		Destination: domain.Destination{City: "Bariloche", Country: "Argentina"},
		Cost:        250,
		Currency:    "USD",
		Providers: []transport.AssignProviderRequest{
			{ProviderID: "prov-1", Name: "Hotel Llao Llao", Documents: docs},
		},
	}
	if _, err := svc.CommitInstance(sid, instanceID, commit); err != nil {
		t.Fatalf("commit instance: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := svc.Advance(ctx, "tok", sid); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
}

func TestMount_ResolvesClientAndCupoConcurrently(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222", Phone: "011 4444-5555"}
	api.cupos["cupo-1"] = agency.Cupo{ID: "cupo-1", AvailableSeats: 4}
	svc := newTestService(api, &fakeCatalog{})

	resp, err := svc.Mount(context.Background(), "tok", transport.MountRequest{ClientID: "c1", CupoID: "cupo-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Draft.Primary == nil || resp.Draft.Primary.ID != "c1" {
		t.Fatalf("primary not pre-selected: %+v", resp.Draft.Primary)
	}
	// Phone numbers normalize to E.164 with the AR region default.
	if resp.Draft.Primary.Phone != "+541144445555" {
		t.Fatalf("phone not normalized: %q", resp.Draft.Primary.Phone)
	}
	if resp.Draft.Cupo == nil || resp.Draft.Cupo.AvailableSeats != 4 {
		t.Fatalf("cupo snapshot missing: %+v", resp.Draft.Cupo)
	}
	if resp.EditMode {
		t.Fatal("fresh mount must not be edit mode")
	}
}

func TestMount_HydratesExistingSale(t *testing.T) {
	svc := newTestService(newFakeAgency(), &fakeCatalog{})

	resp, err := svc.Mount(context.Background(), "tok", transport.MountRequest{
		Sale: &transport.SaleSnapshot{
			SaleID:   "sale-9",
			Primary:  &domain.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"},
			Price:    800,
			Currency: "USD",
			Services: []transport.SaleSnapshotService{{
				TemplateID:  "tpl-1",
				ServiceInfo: "Hotel",
				CheckIn:     "2026-10-01",
				CheckOut:    "2026-10-05",
				Cost:        300,
				Currency:    "USD",
				Providers:   []transport.SaleSnapshotProvider{{ProviderID: "prov-1"}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.EditMode {
		t.Fatal("hydrated mount must be edit mode")
	}
	if len(resp.Draft.Services) != 1 || !resp.Draft.Services[0].Configured {
		t.Fatalf("services not hydrated as configured: %+v", resp.Draft.Services)
	}
	if resp.Draft.Price.BaseAmount != 800 {
		t.Fatalf("price not hydrated: %+v", resp.Draft.Price)
	}
}

func TestMount_RejectsSaleWithCupo(t *testing.T) {
	svc := newTestService(newFakeAgency(), &fakeCatalog{})

	_, err := svc.Mount(context.Background(), "tok", transport.MountRequest{
		CupoID: "cupo-1",
		Sale:   &transport.SaleSnapshot{SaleID: "sale-9"},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSelectPassenger_RepairsIncompleteRecordBeforeSelection(t *testing.T) {
	api := newFakeAgency()
	api.clients["c2"] = agency.Passenger{ID: "c2", Name: "Luis", Surname: "Diaz", DNI: "28999888"}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{})

	// The list projection arrives without a DNI; selection repairs it from
	// the detail endpoint.
	resp, err := svc.SelectPassenger(context.Background(), "tok", sid, domain.Passenger{ID: "c2", Name: "Luis", Surname: "Diaz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Outcome != domain.SelectedPrimary {
		t.Fatalf("expected primary selection, got %v", resp.Outcome)
	}
	if resp.Draft.Primary.DNI != "28999888" {
		t.Fatalf("record not repaired: %+v", resp.Draft.Primary)
	}
	if api.clientCalls != 1 {
		t.Fatalf("expected one repair fetch, got %d", api.clientCalls)
	}

	// A complete record needs no fetch.
	if _, err := svc.SelectPassenger(context.Background(), "tok", sid, domain.Passenger{ID: "c3", Name: "Eva", Surname: "Paz", DNI: "31000111"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.clientCalls != 1 {
		t.Fatalf("complete record triggered a fetch, %d calls", api.clientCalls)
	}
}

func TestSearchPassengers_RepairsSelectedFromRicherResults(t *testing.T) {
	api := newFakeAgency()
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{})

	// The detail endpoint does not know this record yet, so it enters the
	// draft incomplete.
	if _, err := svc.SelectPassenger(context.Background(), "tok", sid, domain.Passenger{ID: "c9", Name: "Mara", Surname: "Sosa"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.clients["c9"] = agency.Passenger{ID: "c9", Name: "Mara", Surname: "Sosa", DNI: "27555666", IsMainClient: true}

	resp, err := svc.SearchPassengers(context.Background(), "tok", sid, "", "main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.ID == "c9" {
			t.Fatal("selected record must stay out of the candidate pool")
		}
	}

	snap, err := svc.Snapshot(sid)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Draft.Primary == nil || snap.Draft.Primary.DNI != "27555666" {
		t.Fatalf("selected record not repaired from search results: %+v", snap.Draft.Primary)
	}
}

func TestOpenService_MarksInstanceUnderEdit(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	ctx := context.Background()

	if _, err := svc.SetPrice(sid, transport.PriceRequest{Amount: 500, Currency: "USD"}); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := svc.Advance(ctx, "tok", sid); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := svc.Advance(ctx, "tok", sid); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := svc.SelectTemplate(sid, transport.SelectTemplateRequest{TemplateID: "tpl-1", TemplateName: "Hotel"}); err != nil {
		t.Fatalf("select template: %v", err)
	}
	if _, err := svc.SelectTemplate(sid, transport.SelectTemplateRequest{TemplateID: "tpl-2", TemplateName: "Excursion"}); err != nil {
		t.Fatalf("select template: %v", err)
	}

	snap, err := svc.Snapshot(sid)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := snap.Draft.Services[0].ID
	if snap.Draft.EditingID == first {
		t.Fatal("most recent template should start under edit")
	}

	resp, err := svc.OpenService(sid, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Draft.EditingID != first {
		t.Fatalf("instance not marked under edit: %q", resp.Draft.EditingID)
	}

	if _, err := svc.OpenService(sid, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTemplates_SuppressedSessionKeepsPinnedList(t *testing.T) {
	cat := &fakeCatalog{templates: []agency.ServiceTemplate{{ID: "tpl-1", Name: "Hotel"}}}
	svc := newTestService(newFakeAgency(), cat)
	sid := mustMount(t, svc, transport.MountRequest{})

	if _, err := svc.Templates(context.Background(), "tok", sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.templateHits != 1 {
		t.Fatalf("expected one catalog read, got %d", cat.templateHits)
	}

	// Once the draft carries services, template reads stop hitting the
	// catalog and serve the pinned list.
	if _, err := svc.SelectTemplate(sid, transport.SelectTemplateRequest{TemplateID: "tpl-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cat.templates = append(cat.templates, agency.ServiceTemplate{ID: "tpl-2", Name: "Excursion"})

	resp, err := svc.Templates(context.Background(), "tok", sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.templateHits != 1 {
		t.Fatalf("suppressed session re-read the catalog, %d reads", cat.templateHits)
	}
	if len(resp.Templates) != 1 {
		t.Fatalf("pinned list changed: %+v", resp.Templates)
	}
}

func TestSubmit_CreatesSaleAndDiscardsSession(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	driveToReview(t, svc, sid, nil)

	resp, err := svc.Submit(context.Background(), "tok", sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SaleID != "sale-1" || resp.Updated {
		t.Fatalf("unexpected result: %+v", resp)
	}

	if len(api.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.created))
	}
	payload := api.created[0]
	if payload.PrimaryClientID != "c1" || len(payload.Services) != 1 {
		t.Fatalf("payload malformed: %+v", payload)
	}
	if payload.PriceBase != 500 || payload.Services[0].BaseAmount != 250 {
		t.Fatalf("normalized amounts missing: %+v", payload)
	}

	// The session is gone after a successful submission.
	if _, err := svc.Snapshot(sid); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected session to be discarded, got %v", err)
	}
}

func TestSubmit_UploadsDocumentsBeforeSaleAndMergesRefs(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	driveToReview(t, svc, sid, []transport.DocumentUpload{
		{FileName: "contract.pdf", ContentType: "application/pdf", Content: []byte("pdf")},
		{FileName: "voucher.pdf", ContentType: "application/pdf", Content: []byte("pdf2")},
	})

	if _, err := svc.Submit(context.Background(), "tok", sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(api.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %v", api.uploads)
	}
	docs := api.created[0].Services[0].Providers[0].Documents
	if len(docs) != 2 || docs[0].FileName != "contract.pdf" || docs[1].FileName != "voucher.pdf" {
		t.Fatalf("references not merged under the provider: %+v", docs)
	}
}

func TestSubmit_UploadFailureAbortsWithoutSale(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	api.uploadErrOn = "voucher.pdf"
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	driveToReview(t, svc, sid, []transport.DocumentUpload{
		{FileName: "contract.pdf", Content: []byte("pdf")},
		{FileName: "voucher.pdf", Content: []byte("pdf2")},
	})

	_, err := svc.Submit(context.Background(), "tok", sid)
	if !apperr.Is(err, apperr.KindUploadFailure) {
		t.Fatalf("expected upload failure, got %v", err)
	}
	if len(api.created) != 0 {
		t.Fatal("no sale may be created after a failed upload")
	}

	// The draft survives for a corrected resubmission.
	snap, snapErr := svc.Snapshot(sid)
	if snapErr != nil {
		t.Fatalf("draft lost after failed submission: %v", snapErr)
	}
	if len(snap.Draft.Services) != 1 {
		t.Fatalf("draft mutated: %+v", snap.Draft)
	}

	// Retrying after the storage recovers does not re-upload the file that
	// already succeeded.
	api.uploadErrOn = ""
	if _, err := svc.Submit(context.Background(), "tok", sid); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
	if len(api.uploads) != 2 {
		t.Fatalf("first upload repeated: %v", api.uploads)
	}
}

func TestSubmit_BackendRejectionPreservesDraft(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	api.createErr = errors.New("agency error: status 500")
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	driveToReview(t, svc, sid, nil)

	_, err := svc.Submit(context.Background(), "tok", sid)
	if !apperr.Is(err, apperr.KindSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
	if _, err := svc.Snapshot(sid); err != nil {
		t.Fatalf("draft lost after backend rejection: %v", err)
	}
}

func TestSubmit_CupoShortfallBlocks(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	api.clients["c2"] = agency.Passenger{ID: "c2", Name: "Luis", Surname: "Diaz", DNI: "28999888"}
	api.cupos["cupo-1"] = agency.Cupo{ID: "cupo-1", AvailableSeats: 1}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1", CupoID: "cupo-1"})

	if _, err := svc.SelectPassenger(context.Background(), "tok", sid, domain.Passenger{ID: "c2", Name: "Luis", Surname: "Diaz", DNI: "28999888"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	driveToReview(t, svc, sid, nil)

	_, err := svc.Submit(context.Background(), "tok", sid)
	if !apperr.Is(err, apperr.KindInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}
	if len(api.created) != 0 {
		t.Fatal("no sale may be created past an exhausted cupo")
	}
}

func TestSubmit_EditModeUpdatesInsteadOfCreating(t *testing.T) {
	api := newFakeAgency()
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{
		Sale: &transport.SaleSnapshot{
			SaleID:   "sale-9",
			Primary:  &domain.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"},
			Price:    800,
			Currency: "USD",
			Services: []transport.SaleSnapshotService{{
				TemplateID:  "tpl-1",
				ServiceInfo: "Hotel",
				CheckIn:     "2026-10-01",
				CheckOut:    "2026-10-05",
				Destination: domain.Destination{City: "Salta", Country: "Argentina"},
				Cost:        300,
				Currency:    "USD",
				Providers:   []transport.SaleSnapshotProvider{{ProviderID: "prov-1"}},
			}},
		},
	})

	// Walk the already-complete draft to the review step.
	for i := 0; i < 6; i++ {
		if _, err := svc.Advance(context.Background(), "tok", sid); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	resp, err := svc.Submit(context.Background(), "tok", sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Updated || resp.SaleID != "sale-9" {
		t.Fatalf("expected update of sale-9: %+v", resp)
	}
	if len(api.created) != 0 || len(api.updated) != 1 {
		t.Fatalf("wrong call mix: created=%d updated=%d", len(api.created), len(api.updated))
	}
}

func TestSubmit_RequiresReviewStep(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	svc := newTestService(api, &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})

	_, err := svc.Submit(context.Background(), "tok", sid)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetPrice_ForeignCurrencyNormalizes(t *testing.T) {
	svc := newTestService(newFakeAgency(), &fakeCatalog{})
	sid := mustMount(t, svc, transport.MountRequest{})

	resp, err := svc.SetPrice(sid, transport.PriceRequest{Amount: 175000, Currency: "ARS", ExchangeRate: 350})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Draft.Price.BaseAmount != 500 {
		t.Fatalf("price not normalized: %+v", resp.Draft.Price)
	}
	if resp.Draft.Price.OriginalCurrency != money.CurrencyARS {
		t.Fatalf("provenance lost: %+v", resp.Draft.Price)
	}

	_, err = svc.SetPrice(sid, transport.PriceRequest{Amount: 1000, Currency: "ARS"})
	if !apperr.Is(err, apperr.KindInvalidExchangeRate) {
		t.Fatalf("expected invalid exchange rate, got %v", err)
	}
}

func TestSearchProviders_AnnotatesAssignmentBudget(t *testing.T) {
	api := newFakeAgency()
	api.clients["c1"] = agency.Passenger{ID: "c1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	cat := &fakeCatalog{providers: []agency.Provider{
		{ID: "prov-1", Name: "Hotel Llao Llao"},
		{ID: "prov-2", Name: "Remises Sur"},
	}}
	svc := newTestService(api, cat)
	sid := mustMount(t, svc, transport.MountRequest{ClientID: "c1"})
	driveToReview(t, svc, sid, nil)

	snap, _ := svc.Snapshot(sid)
	instanceID := snap.Draft.Services[0].ID
	for i := 0; i < 6; i++ {
		resp, err := svc.AssignProvider(sid, instanceID, transport.AssignProviderRequest{ProviderID: "prov-1"})
		if err != nil || !resp.Applied {
			t.Fatalf("assignment %d failed: applied=%v err=%v", i, resp.Applied, err)
		}
	}

	result, err := svc.SearchProviders(context.Background(), "tok", sid, "llao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Providers) != 1 {
		t.Fatalf("search filter broken: %+v", result.Providers)
	}
	// 1 from the commit plus 6 explicit assignments: the cap is reached.
	if result.Providers[0].Assigned != 7 || result.Providers[0].Assignable {
		t.Fatalf("budget annotation wrong: %+v", result.Providers[0])
	}

	capped, err := svc.AssignProvider(sid, instanceID, transport.AssignProviderRequest{ProviderID: "prov-1"})
	if err != nil {
		t.Fatalf("cap must not error: %v", err)
	}
	if capped.Applied {
		t.Fatal("assignment beyond the cap was applied")
	}
}
