package domain

import (
	"fmt"
	"strings"

	"travel_backoffice_backend/internal/money"
	"travel_backoffice_backend/platform/apperr"
)

// InstanceForm is the user input committed onto one service instance.
type InstanceForm struct {
	ServiceInfo string
	CheckIn     string
	CheckOut    string
	Destination Destination
	Cost        money.Amount
	Providers   []ProviderAssignment
}

func (f InstanceForm) validate() error {
	if strings.TrimSpace(f.ServiceInfo) == "" {
		return apperr.Validation("service description is required")
	}
	if f.CheckIn == "" || f.CheckOut == "" {
		return apperr.Validation("check-in and check-out dates are required")
	}
	if !f.Cost.IsPositive() {
		return apperr.Validation("service cost must be greater than zero")
	}
	if len(f.Providers) == 0 {
		return apperr.Validation("at least one provider is required")
	}
	return nil
}

// SelectTemplate appends a new, minimally-populated instance seeded from the
// draft's shared destination and dates when present. The wizard step does not
// move: the user may select several templates before configuring any.
func (d *SaleDraft) SelectTemplate(instanceID, templateID, templateName string) *ServiceInstance {
	instance := &ServiceInstance{
		ID:           instanceID,
		TemplateID:   templateID,
		TemplateName: templateName,
		CheckIn:      d.SharedCheckIn,
		CheckOut:     d.SharedCheckOut,
		Cost:         money.Zero(),
		Destination:  d.Destination,
		Providers:    []ProviderAssignment{},
	}
	d.Services = append(d.Services, instance)
	d.EditingID = instance.ID
	return instance
}

// OpenForEdit marks an existing instance as the one under edit.
func (d *SaleDraft) OpenForEdit(instanceID string) error {
	if _, err := d.ServiceByID(instanceID); err != nil {
		return err
	}
	d.EditingID = instanceID
	return nil
}

// CommitInstance writes the validated form onto the instance, preserving its
// identity. Committing a template-only instance for the first time fans the
// same cost, dates, destination, and providers out to every OTHER still
// template-only sibling, so a batch of same-trip services defaults to
// identical terms. Already-configured siblings are never overwritten, and
// fan-out never recurs after this first commit. A form whose assignments,
// fan-out copies included, would push any provider past the draft-wide cap
// is rejected whole.
func (d *SaleDraft) CommitInstance(instanceID string, form InstanceForm) error {
	if err := form.validate(); err != nil {
		return err
	}

	instance, err := d.ServiceByID(instanceID)
	if err != nil {
		return err
	}

	firstCommit := !instance.Configured

	fanOutTargets := 0
	if firstCommit {
		for _, sibling := range d.Services {
			if sibling.ID != instance.ID && !sibling.Configured {
				fanOutTargets++
			}
		}
	}

	// The committed assignments replace the instance's current ones, and a
	// first commit copies them onto every template-only sibling. Neither path
	// may push a provider past the draft-wide cap.
	added := map[string]int{}
	for _, assignment := range form.Providers {
		added[assignment.ProviderID]++
	}
	for providerID, count := range added {
		elsewhere := d.AssignmentCount(providerID) - countAssignments(instance.Providers, providerID)
		if elsewhere+count*(1+fanOutTargets) > MaxProviderAssignments {
			return apperr.Validation(fmt.Sprintf(
				"provider %s would exceed %d assignments in this sale", providerID, MaxProviderAssignments))
		}
	}

	instance.ServiceInfo = form.ServiceInfo
	instance.CheckIn = form.CheckIn
	instance.CheckOut = form.CheckOut
	instance.Destination = form.Destination
	instance.Cost = form.Cost
	instance.Providers = cloneAssignments(form.Providers)
	instance.Configured = true

	d.mirrorSaleCurrency(form.Cost)

	if firstCommit {
		for _, sibling := range d.Services {
			if sibling.ID == instance.ID || sibling.Configured {
				continue
			}
			sibling.CheckIn = form.CheckIn
			sibling.CheckOut = form.CheckOut
			sibling.Destination = form.Destination
			sibling.Cost = form.Cost
			sibling.Providers = cloneAssignments(form.Providers)
			sibling.Configured = true
		}
	}

	d.EditingID = ""
	return nil
}

// SynchronizeSharedFields re-applies the shared dates and destination to
// every instance. It deliberately never touches any instance's providers:
// merging provider state into this pass once caused assignments to be
// silently dropped, so cost/provider propagation lives only in
// CommitInstance's fan-out.
func (d *SaleDraft) SynchronizeSharedFields(checkIn, checkOut string, dest Destination) {
	if checkIn != "" {
		d.SharedCheckIn = checkIn
	}
	if checkOut != "" {
		d.SharedCheckOut = checkOut
	}
	if !dest.IsZero() {
		d.Destination = dest
	}

	for _, svc := range d.Services {
		if checkIn != "" {
			svc.CheckIn = checkIn
		}
		if checkOut != "" {
			svc.CheckOut = checkOut
		}
		if !dest.IsZero() {
			svc.Destination = dest
		}
	}
}

// RemoveService deletes an instance from the draft.
func (d *SaleDraft) RemoveService(instanceID string) error {
	for i, svc := range d.Services {
		if svc.ID == instanceID {
			d.Services = append(d.Services[:i], d.Services[i+1:]...)
			if d.EditingID == instanceID {
				d.EditingID = ""
			}
			return nil
		}
	}
	return apperr.NotFound("service instance " + instanceID + " not found in draft")
}

func cloneAssignments(assignments []ProviderAssignment) []ProviderAssignment {
	cloned := make([]ProviderAssignment, len(assignments))
	copy(cloned, assignments)
	for i := range cloned {
		cloned[i].Documents = append([]DocumentRef(nil), assignments[i].Documents...)
		cloned[i].Pending = append([]PendingDocument(nil), assignments[i].Pending...)
	}
	return cloned
}
