// Package transport defines the wizard HTTP request and response shapes.
package transport

import (
	"travel_backoffice_backend/internal/wizard/domain"
)

// =============================================================================
// Requests
// =============================================================================

// MountRequest opens a new wizard session. ClientID pre-selects the primary
// passenger, CupoID binds the draft to an inventory block, and Sale hydrates
// an existing sale for editing. All three are optional and combinable except
// Sale with CupoID.
type MountRequest struct {
	ClientID string        `json:"clientId,omitempty"`
	CupoID   string        `json:"cupoId,omitempty"`
	Sale     *SaleSnapshot `json:"sale,omitempty"`
}

// SaleSnapshot is the existing sale the UI hands over when the wizard opens
// in edit mode. The draft is hydrated field by field from it.
type SaleSnapshot struct {
	SaleID       string                `json:"saleId" validate:"required"`
	Primary      *domain.Passenger     `json:"primaryPassenger" validate:"required"`
	Companions   []domain.Passenger    `json:"companions"`
	Destination  domain.Destination    `json:"destination"`
	Price        float64               `json:"pricePerPassenger" validate:"gt=0"`
	Currency     string                `json:"priceCurrency" validate:"required"`
	ExchangeRate float64               `json:"priceExchangeRate,omitempty"`
	Services     []SaleSnapshotService `json:"services" validate:"min=1,dive"`
}

// SaleSnapshotService is one existing service instance in the hydration payload.
type SaleSnapshotService struct {
	TemplateID   string                 `json:"templateId" validate:"required"`
	TemplateName string                 `json:"templateName"`
	ServiceInfo  string                 `json:"serviceInfo" validate:"required"`
	CheckIn      string                 `json:"checkIn" validate:"required"`
	CheckOut     string                 `json:"checkOut" validate:"required"`
	Destination  domain.Destination     `json:"destination"`
	Cost         float64                `json:"cost" validate:"gt=0"`
	Currency     string                 `json:"currency" validate:"required"`
	ExchangeRate float64                `json:"exchangeRate,omitempty"`
	Providers    []SaleSnapshotProvider `json:"providers" validate:"min=1,dive"`
}

// SaleSnapshotProvider is one existing provider assignment in the hydration payload.
type SaleSnapshotProvider struct {
	ProviderID string               `json:"providerId" validate:"required"`
	Name       string               `json:"name"`
	Documents  []domain.DocumentRef `json:"documents"`
}

// SelectPassengerRequest toggles a candidate in or out of the passenger set.
type SelectPassengerRequest struct {
	Passenger domain.Passenger `json:"passenger" validate:"required"`
}

// RemoveCompanionRequest removes a companion by id.
type RemoveCompanionRequest struct {
	PassengerID string `json:"passengerId" validate:"required"`
}

// PriceRequest sets the per-passenger sale price.
type PriceRequest struct {
	Amount       float64 `json:"amount" validate:"gt=0"`
	Currency     string  `json:"currency" validate:"required,oneof=USD ARS"`
	ExchangeRate float64 `json:"exchangeRate,omitempty" validate:"gte=0"`
}

// SelectTemplateRequest adds a service instance from a catalog template.
type SelectTemplateRequest struct {
	TemplateID   string `json:"templateId" validate:"required"`
	TemplateName string `json:"templateName"`
}

// CommitInstanceRequest saves the full configuration of one service instance.
type CommitInstanceRequest struct {
	ServiceInfo  string                  `json:"serviceInfo" validate:"required"`
	CheckIn      string                  `json:"checkIn" validate:"required"`
	CheckOut     string                  `json:"checkOut" validate:"required"`
	Destination  domain.Destination      `json:"destination"`
	Cost         float64                 `json:"cost" validate:"gt=0"`
	Currency     string                  `json:"currency" validate:"required,oneof=USD ARS"`
	ExchangeRate float64                 `json:"exchangeRate,omitempty" validate:"gte=0"`
	Providers    []AssignProviderRequest `json:"providers" validate:"min=1,dive"`
}

// SharedFieldsRequest synchronizes dates and destination across every
// service instance. Empty fields leave the corresponding values untouched.
type SharedFieldsRequest struct {
	CheckIn     string             `json:"checkIn,omitempty"`
	CheckOut    string             `json:"checkOut,omitempty"`
	Destination domain.Destination `json:"destination,omitempty"`
}

// AssignProviderRequest attaches one provider, optionally with contract
// documents to upload at submission. Content is base64 in transit; gin
// decodes it into raw bytes.
type AssignProviderRequest struct {
	ProviderID string           `json:"providerId" validate:"required"`
	Name       string           `json:"name"`
	Documents  []DocumentUpload `json:"documents,omitempty" validate:"dive"`
}

// DocumentUpload is a file attached to a provider assignment.
type DocumentUpload struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content" validate:"required"`
}

// DestinationSearchRequest autocompletes cities or countries.
type DestinationSearchRequest struct {
	Query string `json:"query" validate:"required,min=1"`
	Scope string `json:"scope" validate:"required,oneof=cities countries"`
}

// =============================================================================
// Responses
// =============================================================================

// DraftResponse is the canonical wizard state snapshot returned by every
// mutating endpoint, so the UI never assembles state client-side.
type DraftResponse struct {
	SessionID string            `json:"sessionId"`
	Draft     *domain.SaleDraft `json:"draft"`
	EditMode  bool              `json:"editMode"`
}

// MountResponse is the initial snapshot plus the reference data the first
// step needs.
type MountResponse struct {
	SessionID string            `json:"sessionId"`
	Draft     *domain.SaleDraft `json:"draft"`
	EditMode  bool              `json:"editMode"`
}

// PassengerSearchResponse lists selectable candidates for the current draft.
type PassengerSearchResponse struct {
	Candidates []domain.Passenger `json:"candidates"`
}

// SelectPassengerResponse reports what the toggle did plus the new state.
type SelectPassengerResponse struct {
	Outcome    domain.SelectionOutcome `json:"outcome"`
	Draft      *domain.SaleDraft       `json:"draft"`
	Candidates []domain.Passenger      `json:"candidates"`
}

// TemplatesResponse lists the selectable service templates.
type TemplatesResponse struct {
	Templates []TemplateEntry `json:"templates"`
}

// TemplateEntry is one selectable catalog template.
type TemplateEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ProviderSearchResponse lists provider candidates.
type ProviderSearchResponse struct {
	Providers []ProviderEntry `json:"providers"`
}

// ProviderEntry is one selectable provider with its remaining assignment
// budget in this draft.
type ProviderEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Assigned   int    `json:"assigned"`
	Assignable bool   `json:"assignable"`
}

// AssignProviderResponse reports whether the assignment was applied. A capped
// provider returns applied=false with an unchanged draft and no error.
type AssignProviderResponse struct {
	Applied bool              `json:"applied"`
	Draft   *domain.SaleDraft `json:"draft"`
}

// DestinationSearchResponse carries city or country suggestions.
type DestinationSearchResponse struct {
	Cities    []DestinationEntry `json:"cities,omitempty"`
	Countries []DestinationEntry `json:"countries,omitempty"`
}

// DestinationEntry is one autocomplete suggestion.
type DestinationEntry struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SubmitResponse reports the sale the submission produced.
type SubmitResponse struct {
	SaleID  string `json:"saleId"`
	Updated bool   `json:"updated"`
}
