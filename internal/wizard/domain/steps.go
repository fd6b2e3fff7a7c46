package domain

import (
	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/platform/apperr"
)

// Step is one of the seven ordered wizard states.
type Step int

const (
	// StepPassengers selects the primary passenger and companions.
	StepPassengers Step = iota + 1
	// StepPrice captures the per-passenger sale price.
	StepPrice
	// StepTemplates selects service templates from the catalog.
	StepTemplates
	// StepDates captures dates and destination for the service under edit.
	StepDates
	// StepCostProviders captures cost and provider assignments.
	StepCostProviders
	// StepEditServices reviews and edits the configured services.
	StepEditServices
	// StepReview is the final review; submit is only available here.
	StepReview
)

// FirstStep and LastStep bound the wizard state machine.
const (
	FirstStep = StepPassengers
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepPassengers:    "Passengers & Companions",
	StepPrice:         "Price Per Passenger",
	StepTemplates:     "Select Service Template",
	StepDates:         "Service Dates",
	StepCostProviders: "Service Cost & Provider",
	StepEditServices:  "Edit Services",
	StepReview:        "Review & Create",
}

// String returns the user-facing step title.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Advance moves the draft one step forward after evaluating the current
// step's guard. Guard failures reject the transition with a validation error
// and leave the draft untouched; no guard performs any I/O. The returned
// flag signals that the caller must refresh the service template catalog
// (entering the template step always re-pulls it to mitigate a stale cache).
func (d *SaleDraft) Advance() (refreshTemplates bool, err error) {
	if d.Step >= LastStep {
		return false, apperr.Validation("already at the final step")
	}

	if err := d.guard(); err != nil {
		return false, err
	}

	d.Step++
	return d.Step == StepTemplates, nil
}

// Retreat moves the draft one step back. It is always allowed above the
// first step and has no guard.
func (d *SaleDraft) Retreat() error {
	if d.Step <= FirstStep {
		return apperr.Validation("already at the first step")
	}
	d.Step--
	return nil
}

// guard evaluates the exit condition of the current step.
func (d *SaleDraft) guard() error {
	switch d.Step {
	case StepPassengers:
		if d.Primary == nil {
			return apperr.Validation("select a primary passenger before continuing")
		}
	case StepPrice:
		if d.Price.OriginalAmount <= 0 {
			return apperr.Validation("enter a price per passenger greater than zero")
		}
		if d.Price.OriginalCurrency != money.BaseCurrency && d.Price.ExchangeRate <= 0 {
			return apperr.Validation("enter an exchange rate greater than zero for foreign currency prices")
		}
	case StepTemplates:
		if len(d.Services) == 0 {
			return apperr.Validation("select at least one service template before continuing")
		}
	case StepDates:
		svc := d.CurrentService()
		if svc == nil {
			return apperr.Validation("no service is being configured")
		}
		if svc.CheckIn == "" || svc.CheckOut == "" {
			return apperr.Validation("enter check-in and check-out dates before continuing")
		}
		if svc.Destination.City == "" {
			return apperr.Validation("choose a destination city before continuing")
		}
	case StepCostProviders:
		// Every instance in the draft must be fully costed and provided,
		// not just the one under edit.
		for _, svc := range d.Services {
			if !svc.Cost.IsPositive() {
				return apperr.Validation("every service needs a cost greater than zero before continuing").
					WithDetails(map[string]string{"serviceId": svc.ID})
			}
			if len(svc.Providers) == 0 {
				return apperr.Validation("every service needs at least one provider before continuing").
					WithDetails(map[string]string{"serviceId": svc.ID})
			}
		}
	}
	return nil
}

// CanSubmit reports whether the draft sits on the final step.
func (d *SaleDraft) CanSubmit() bool {
	return d.Step == StepReview
}
