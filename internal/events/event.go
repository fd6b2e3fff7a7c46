// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"travel_backoffice_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Sale Wizard Domain Events
// =============================================================================

// SaleCreated is published after the wizard successfully creates a sale
// against the agency backend.
type SaleCreated struct {
	BaseEvent
	SaleID         string `json:"saleId"`
	SessionID      string `json:"sessionId"`
	PassengerCount int    `json:"passengerCount"`
	ServiceCount   int    `json:"serviceCount"`
	CupoID         string `json:"cupoId,omitempty"`
}

func (e SaleCreated) EventName() string { return "wizard.sale.created" }

// SaleUpdated is published after the wizard successfully updates an
// existing sale (edit mode).
type SaleUpdated struct {
	BaseEvent
	SaleID         string `json:"saleId"`
	SessionID      string `json:"sessionId"`
	PassengerCount int    `json:"passengerCount"`
	ServiceCount   int    `json:"serviceCount"`
}

func (e SaleUpdated) EventName() string { return "wizard.sale.updated" }

// CatalogRefreshed is published after the reference catalog cache is
// repopulated from the agency backend.
type CatalogRefreshed struct {
	BaseEvent
	Providers int `json:"providers"`
	Templates int `json:"templates"`
}

func (e CatalogRefreshed) EventName() string { return "catalog.refreshed" }
