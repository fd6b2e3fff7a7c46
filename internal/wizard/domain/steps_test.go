package domain

import (
	"testing"

	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/platform/apperr"
)

func usd(amount float64) money.Amount {
	normalized, err := money.Normalize(amount, money.CurrencyUSD, 0)
	if err != nil {
		panic(err)
	}
	return normalized
}

func configuredService(id string) *ServiceInstance {
	return &ServiceInstance{
		ID:          id,
		ServiceInfo: "Hotel night",
		CheckIn:     "2026-10-01",
		CheckOut:    "2026-10-05",
		Destination: Destination{City: "Bariloche", Country: "Argentina"},
		Cost:        usd(120),
		Providers:   []ProviderAssignment{{ProviderID: "prov-1", Name: "Hotel Llao Llao"}},
		Configured:  true,
	}
}

func TestAdvance_RejectsWithoutPrimaryPassenger(t *testing.T) {
	draft := NewDraft()

	if _, err := draft.Advance(); err == nil {
		t.Fatal("expected guard failure without a primary passenger")
	}
	if draft.Step != StepPassengers {
		t.Fatalf("step moved despite guard failure: %v", draft.Step)
	}
}

func TestAdvance_PriceGuardRequiresRateForARS(t *testing.T) {
	draft := NewDraft()
	draft.Primary = &Passenger{ID: "p1", Name: "Ana", Surname: "Gomez", DNI: "30111222"}
	if _, err := draft.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft.Price = money.Amount{OriginalAmount: 1000, OriginalCurrency: money.CurrencyARS}
	if _, err := draft.Advance(); err == nil {
		t.Fatal("expected guard failure for ARS price without a rate")
	}

	normalized, err := money.Normalize(1000, money.CurrencyARS, 350)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	draft.SetPrice(normalized)
	refresh, err := draft.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !refresh {
		t.Fatal("entering the template step must request a catalog refresh")
	}
	if draft.Step != StepTemplates {
		t.Fatalf("expected template step, got %v", draft.Step)
	}
}

func TestAdvance_CostProviderGuardChecksEveryService(t *testing.T) {
	draft := NewDraft()
	draft.Step = StepCostProviders
	draft.Services = []*ServiceInstance{
		configuredService("svc-1"),
		configuredService("svc-2"),
	}
	// One of N services lacking a provider blocks the transition even when
	// the others are fully configured.
	draft.Services[1].Providers = nil

	_, err := draft.Advance()
	if err == nil {
		t.Fatal("expected guard failure when any service lacks a provider")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", apperr.GetKind(err))
	}

	draft.Services[1].Providers = []ProviderAssignment{{ProviderID: "prov-2"}}
	if _, err := draft.Advance(); err != nil {
		t.Fatalf("unexpected error once all services are configured: %v", err)
	}
}

func TestAdvance_DatesGuardUsesServiceUnderEdit(t *testing.T) {
	draft := NewDraft()
	draft.Step = StepDates
	draft.Services = []*ServiceInstance{configuredService("svc-1")}
	draft.Services[0].Destination.City = ""

	if _, err := draft.Advance(); err == nil {
		t.Fatal("expected guard failure without a destination city")
	}

	draft.Services[0].Destination.City = "Mendoza"
	if _, err := draft.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetreat_AlwaysAllowedAboveFirstStep(t *testing.T) {
	draft := NewDraft()
	draft.Step = StepReview

	for expected := StepEditServices; expected >= FirstStep; expected-- {
		if err := draft.Retreat(); err != nil {
			t.Fatalf("unexpected error retreating to %v: %v", expected, err)
		}
		if draft.Step != expected {
			t.Fatalf("expected step %v, got %v", expected, draft.Step)
		}
	}

	if err := draft.Retreat(); err == nil {
		t.Fatal("expected error retreating from the first step")
	}
}

func TestAdvance_StopsAtFinalStep(t *testing.T) {
	draft := NewDraft()
	draft.Step = StepReview

	if _, err := draft.Advance(); err == nil {
		t.Fatal("expected error advancing past the final step")
	}
	if !draft.CanSubmit() {
		t.Fatal("final step must allow submission")
	}
}
