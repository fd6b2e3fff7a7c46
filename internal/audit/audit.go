// Package audit records sale submissions from the event bus. It is a
// write-only trail in the application log; nothing reads it back.
package audit

import (
	"context"

	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/platform/logger"
)

// Recorder subscribes to submission events and logs them.
type Recorder struct {
	log *logger.Logger
}

// New creates a new audit recorder.
func New(log *logger.Logger) *Recorder {
	return &Recorder{log: log}
}

// Register subscribes the recorder to the events it tracks.
func (r *Recorder) Register(bus events.Bus) {
	bus.Subscribe(events.SaleCreated{}.EventName(), r)
	bus.Subscribe(events.SaleUpdated{}.EventName(), r)
	bus.Subscribe(events.CatalogRefreshed{}.EventName(), r)
}

// Handle routes events to the audit log.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SaleCreated:
		r.log.Info("audit: sale created",
			"sale_id", e.SaleID,
			"session_id", e.SessionID,
			"passengers", e.PassengerCount,
			"services", e.ServiceCount,
			"cupo_id", e.CupoID,
		)
	case events.SaleUpdated:
		r.log.Info("audit: sale updated",
			"sale_id", e.SaleID,
			"session_id", e.SessionID,
			"passengers", e.PassengerCount,
			"services", e.ServiceCount,
		)
	case events.CatalogRefreshed:
		r.log.Debug("audit: catalog refreshed", "providers", e.Providers, "templates", e.Templates)
	}
	return nil
}
