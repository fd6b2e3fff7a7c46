package domain

// SelectionOutcome describes what a passenger selection did to the draft.
type SelectionOutcome string

const (
	// SelectedPrimary means the entity became the primary passenger.
	SelectedPrimary SelectionOutcome = "selected_primary"
	// SelectedCompanion means the entity was appended as a companion.
	SelectedCompanion SelectionOutcome = "selected_companion"
	// DeselectedPrimary means the entity matched the primary and cleared it.
	DeselectedPrimary SelectionOutcome = "deselected_primary"
	// DeselectedCompanion means the entity matched a companion and removed it.
	DeselectedCompanion SelectionOutcome = "deselected_companion"
)

// SelectPassenger applies toggle selection semantics: selecting an entity
// that is already the primary clears the primary; selecting one that is
// already a companion removes that companion; otherwise the entity becomes
// the primary if none is set, or a companion. A record never appears in both
// the primary slot and the companion list.
func (d *SaleDraft) SelectPassenger(p Passenger) SelectionOutcome {
	if d.Primary != nil && d.Primary.ID == p.ID {
		d.Primary = nil
		return DeselectedPrimary
	}

	for i, companion := range d.Companions {
		if companion.ID == p.ID {
			d.Companions = append(d.Companions[:i], d.Companions[i+1:]...)
			return DeselectedCompanion
		}
	}

	if d.Primary == nil {
		selected := p
		d.Primary = &selected
		return SelectedPrimary
	}

	d.Companions = append(d.Companions, p)
	return SelectedCompanion
}

// RemoveCompanion removes the companion with the given id and returns it.
// The second return is false when no companion matches.
func (d *SaleDraft) RemoveCompanion(id string) (Passenger, bool) {
	for i, companion := range d.Companions {
		if companion.ID == id {
			d.Companions = append(d.Companions[:i], d.Companions[i+1:]...)
			return companion, true
		}
	}
	return Passenger{}, false
}

// RepairPassenger replaces an already-selected record with a richer fetch of
// the same id, in place, without disturbing selection order. List endpoints
// sometimes omit the DNI; the richer record wins whenever the selected one
// is missing it. Returns true when a repair happened.
func (d *SaleDraft) RepairPassenger(full Passenger) bool {
	if full.ID == "" {
		return false
	}

	if d.Primary != nil && d.Primary.ID == full.ID && d.Primary.DNI == "" {
		repaired := full
		d.Primary = &repaired
		return true
	}

	for i, companion := range d.Companions {
		if companion.ID == full.ID && companion.DNI == "" {
			d.Companions[i] = full
			return true
		}
	}

	return false
}

// IsSelected reports whether the id is the primary or a companion.
func (d *SaleDraft) IsSelected(id string) bool {
	if d.Primary != nil && d.Primary.ID == id {
		return true
	}
	for _, companion := range d.Companions {
		if companion.ID == id {
			return true
		}
	}
	return false
}

// CandidatePool is the list of selectable passenger records fetched from the
// search endpoints. Selected entities leave the pool; deselected ones return
// to it exactly once.
type CandidatePool struct {
	entries []Passenger
}

// NewCandidatePool creates an empty pool.
func NewCandidatePool() *CandidatePool {
	return &CandidatePool{entries: []Passenger{}}
}

// Replace swaps the pool contents for a fresh search result, keeping out any
// record that is currently selected in the draft.
func (c *CandidatePool) Replace(results []Passenger, draft *SaleDraft) {
	c.entries = c.entries[:0]
	for _, candidate := range results {
		if draft != nil && draft.IsSelected(candidate.ID) {
			continue
		}
		c.entries = append(c.entries, candidate)
	}
}

// Remove takes the record with the given id out of the pool.
func (c *CandidatePool) Remove(id string) {
	for i, candidate := range c.entries {
		if candidate.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Return puts a deselected record back into the pool unless it is already
// present, so a removed companion reappears exactly once.
func (c *CandidatePool) Return(p Passenger) {
	for _, candidate := range c.entries {
		if candidate.ID == p.ID {
			return
		}
	}
	c.entries = append(c.entries, p)
}

// Entries returns the current pool contents.
func (c *CandidatePool) Entries() []Passenger {
	return c.entries
}
