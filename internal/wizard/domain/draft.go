// Package domain provides the sale draft aggregate and its transition rules.
// One live SaleDraft exists per wizard session; every mutation goes through
// an explicit method here, never through ad-hoc field writes.
package domain

import (
	"fmt"
	"strings"

	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/platform/apperr"
)

// Destination is the city/country pair shared by the draft and each service.
type Destination struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// IsZero reports whether no destination has been chosen.
func (d Destination) IsZero() bool {
	return d.City == "" && d.Country == ""
}

// Passenger is a traveler record. Records fetched from list endpoints may
// arrive without a DNI and must be repaired before submission.
type Passenger struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	DNI            string `json:"dni"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	PassportNumber string `json:"passportNumber,omitempty"`
}

// HasIdentity reports whether the record carries everything a submission needs.
func (p Passenger) HasIdentity() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Surname) != "" &&
		strings.TrimSpace(p.DNI) != ""
}

// DocumentRef is a stored document reference returned by the upload endpoint.
type DocumentRef struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName"`
}

// PendingDocument is a locally attached file awaiting upload at submission.
type PendingDocument struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// ProviderAssignment attaches one provider to one service instance.
// The same provider may be assigned more than once; each assignment is
// positionally distinct.
type ProviderAssignment struct {
	ProviderID string            `json:"providerId"`
	Name       string            `json:"name"`
	Documents  []DocumentRef     `json:"documents,omitempty"`
	Pending    []PendingDocument `json:"-"`
}

// ServiceInstance is one concrete, dated, costed booking created from a
// service template. Configured is false while the instance is template-only
// (selected but never committed).
type ServiceInstance struct {
	ID           string               `json:"id"`
	TemplateID   string               `json:"templateId"`
	TemplateName string               `json:"templateName"`
	ServiceInfo  string               `json:"serviceInfo"`
	CheckIn      string               `json:"checkIn"`
	CheckOut     string               `json:"checkOut"`
	Cost         money.Amount         `json:"cost"`
	Destination  Destination          `json:"destination"`
	Providers    []ProviderAssignment `json:"providers"`
	Configured   bool                 `json:"configured"`
}

// EligibleForSubmission reports whether the instance can be part of a sale.
func (s *ServiceInstance) EligibleForSubmission() bool {
	return s.Cost.IsPositive() && len(s.Providers) >= 1
}

// DefaultProvider returns the first assignment for legacy single-provider
// consumers, or nil when none is assigned. It is a derived view only; the
// ordered Providers list is the single source of truth.
func (s *ServiceInstance) DefaultProvider() *ProviderAssignment {
	if len(s.Providers) == 0 {
		return nil
	}
	return &s.Providers[0]
}

// CupoContext is the inventory snapshot taken at wizard entry when the draft
// reserves against a cupo. It is never re-polled.
type CupoContext struct {
	CupoID         string `json:"cupoId"`
	AvailableSeats int    `json:"availableSeats"`
}

// SaleDraft is the root aggregate of one wizard session. It lives only in
// memory and is discarded on navigation away; a successful submission
// converts it once into a server-side sale.
type SaleDraft struct {
	SaleID         string             `json:"saleId,omitempty"`
	Step           Step               `json:"step"`
	Primary        *Passenger         `json:"primaryPassenger"`
	Companions     []Passenger        `json:"companions"`
	Destination    Destination        `json:"destination"`
	SharedCheckIn  string             `json:"sharedCheckIn,omitempty"`
	SharedCheckOut string             `json:"sharedCheckOut,omitempty"`
	Price          money.Amount       `json:"priceSchedule"`
	SaleCurrency   money.Currency     `json:"saleCurrency"`
	SaleRate       float64            `json:"saleRate,omitempty"`
	Services       []*ServiceInstance `json:"services"`
	Cupo           *CupoContext       `json:"cupoContext,omitempty"`
	EditingID      string             `json:"editingServiceId,omitempty"`
}

// NewDraft creates an empty draft positioned at the first step.
func NewDraft() *SaleDraft {
	return &SaleDraft{
		Step:         StepPassengers,
		Companions:   []Passenger{},
		Services:     []*ServiceInstance{},
		Price:        money.Zero(),
		SaleCurrency: money.BaseCurrency,
	}
}

// IsEdit reports whether the draft hydrates an existing sale.
func (d *SaleDraft) IsEdit() bool {
	return d.SaleID != ""
}

// SeatsRequested is the party size: the primary passenger plus companions.
func (d *SaleDraft) SeatsRequested() int {
	seats := len(d.Companions)
	if d.Primary != nil {
		seats++
	}
	return seats
}

// ServiceByID returns the instance with the given client-generated id.
func (d *SaleDraft) ServiceByID(id string) (*ServiceInstance, error) {
	for _, svc := range d.Services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return nil, apperr.NotFound(fmt.Sprintf("service instance %s not found in draft", id))
}

// CurrentService is the instance under edit: the explicitly opened one, or
// the most recently added instance when none is open.
func (d *SaleDraft) CurrentService() *ServiceInstance {
	if d.EditingID != "" {
		for _, svc := range d.Services {
			if svc.ID == d.EditingID {
				return svc
			}
		}
	}
	if len(d.Services) == 0 {
		return nil
	}
	return d.Services[len(d.Services)-1]
}

// SetPrice stores the normalized per-passenger sale price.
func (d *SaleDraft) SetPrice(amount money.Amount) {
	d.Price = amount
}

// mirrorSaleCurrency keeps the sale-wide currency tracking the most recently
// edited service's currency.
func (d *SaleDraft) mirrorSaleCurrency(cost money.Amount) {
	d.SaleCurrency = cost.OriginalCurrency
	d.SaleRate = cost.ExchangeRate
}

// PassengerFieldError identifies the incomplete passenger and field that
// blocked a submission.
type PassengerFieldError struct {
	PassengerID string `json:"passengerId"`
	Passenger   string `json:"passenger"`
	Field       string `json:"field"`
}

// ValidatePassengers checks that every passenger in the draft carries the
// identity fields a submission requires. It fails fast on the first
// incomplete passenger, naming the passenger and the offending field.
func (d *SaleDraft) ValidatePassengers() error {
	if d.Primary == nil {
		return apperr.Validation("a primary passenger is required")
	}

	check := func(p Passenger, label string) error {
		for _, required := range []struct {
			field string
			value string
		}{
			{"name", p.Name},
			{"surname", p.Surname},
			{"dni", p.DNI},
		} {
			field, value := required.field, required.value
			if strings.TrimSpace(value) == "" {
				display := strings.TrimSpace(p.Name + " " + p.Surname)
				if display == "" {
					display = label
				}
				return apperr.Validation(
					fmt.Sprintf("passenger %s is missing required field %s", display, field),
				).WithDetails(PassengerFieldError{PassengerID: p.ID, Passenger: display, Field: field})
			}
		}
		return nil
	}

	if err := check(*d.Primary, "primary passenger"); err != nil {
		return err
	}
	for i, companion := range d.Companions {
		if err := check(companion, fmt.Sprintf("companion %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateServices checks that every service instance is eligible for
// submission: a positive normalized cost and at least one provider.
func (d *SaleDraft) ValidateServices() error {
	if len(d.Services) == 0 {
		return apperr.Validation("at least one service is required")
	}
	for _, svc := range d.Services {
		if svc.EligibleForSubmission() {
			continue
		}
		if !svc.Cost.IsPositive() {
			return apperr.Validation(fmt.Sprintf("service %q has no cost", svc.displayName()))
		}
		return apperr.Validation(fmt.Sprintf("service %q has no provider assigned", svc.displayName()))
	}
	return nil
}

func (s *ServiceInstance) displayName() string {
	if s.ServiceInfo != "" {
		return s.ServiceInfo
	}
	if s.TemplateName != "" {
		return s.TemplateName
	}
	return s.ID
}
