package domain

import (
	"fmt"

	"travel_backoffice_backend/platform/apperr"
)

// MaxProviderAssignments caps how many times one provider may be assigned
// across the whole draft. The cap is global over all services, not
// per-service; AssignProvider and CommitInstance both enforce it.
const MaxProviderAssignments = 7

// AssignmentCount sums the assignments of the given provider across every
// service in the draft.
func (d *SaleDraft) AssignmentCount(providerID string) int {
	count := 0
	for _, svc := range d.Services {
		count += countAssignments(svc.Providers, providerID)
	}
	return count
}

func countAssignments(assignments []ProviderAssignment, providerID string) int {
	count := 0
	for _, assignment := range assignments {
		if assignment.ProviderID == providerID {
			count++
		}
	}
	return count
}

// AssignProvider appends the assignment to the target service. When the
// provider already holds MaxProviderAssignments assignments across the
// draft, the call is a silent no-op: it returns false and leaves the draft
// otherwise unchanged. A missing service is an error.
func (d *SaleDraft) AssignProvider(serviceID string, assignment ProviderAssignment) (bool, error) {
	svc, err := d.ServiceByID(serviceID)
	if err != nil {
		return false, err
	}

	if d.AssignmentCount(assignment.ProviderID) >= MaxProviderAssignments {
		return false, nil
	}

	svc.Providers = append(svc.Providers, assignment)
	return true, nil
}

// UnassignProvider removes the assignment at the given position in the
// service's list. Removal is positional: two assignments of the same
// provider are distinct and independently removable.
func (d *SaleDraft) UnassignProvider(serviceID string, index int) error {
	svc, err := d.ServiceByID(serviceID)
	if err != nil {
		return err
	}

	if index < 0 || index >= len(svc.Providers) {
		return apperr.Validation(
			fmt.Sprintf("provider position %d out of range for service %s (%d assignments)",
				index, serviceID, len(svc.Providers)))
	}

	svc.Providers = append(svc.Providers[:index], svc.Providers[index+1:]...)
	return nil
}
