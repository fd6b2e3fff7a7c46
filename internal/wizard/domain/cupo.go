package domain

import (
	"fmt"

	"travel_backoffice_backend/platform/apperr"
)

// CheckCupo validates the party size against the cupo snapshot taken at
// wizard entry. Drafts without a cupo context pass unconditionally. The
// check is advisory: the backend re-validates at submission time, and the
// snapshot is never re-polled during the session.
func (d *SaleDraft) CheckCupo() error {
	if d.Cupo == nil {
		return nil
	}

	requested := d.SeatsRequested()
	if requested > d.Cupo.AvailableSeats {
		return apperr.InsufficientInventory(
			fmt.Sprintf("%d seats requested but only %d available in this cupo",
				requested, d.Cupo.AvailableSeats)).
			WithDetails(map[string]int{
				"seatsRequested": requested,
				"availableSeats": d.Cupo.AvailableSeats,
			})
	}
	return nil
}
