package domain

import "testing"

func draftWithServices(ids ...string) *SaleDraft {
	draft := NewDraft()
	for _, id := range ids {
		draft.Services = append(draft.Services, &ServiceInstance{ID: id, Providers: []ProviderAssignment{}})
	}
	return draft
}

func TestAssignProvider_GlobalCapSpansAllServices(t *testing.T) {
	draft := draftWithServices("svc-1", "svc-2")

	// 4 assignments on one service, 3 on the other: the cap counts the sum.
	for i := 0; i < 4; i++ {
		ok, err := draft.AssignProvider("svc-1", ProviderAssignment{ProviderID: "prov-1"})
		if err != nil || !ok {
			t.Fatalf("assignment %d rejected: ok=%v err=%v", i, ok, err)
		}
	}
	for i := 0; i < 3; i++ {
		ok, err := draft.AssignProvider("svc-2", ProviderAssignment{ProviderID: "prov-1"})
		if err != nil || !ok {
			t.Fatalf("assignment %d rejected: ok=%v err=%v", i, ok, err)
		}
	}

	if count := draft.AssignmentCount("prov-1"); count != MaxProviderAssignments {
		t.Fatalf("expected %d assignments, got %d", MaxProviderAssignments, count)
	}

	// The 8th attempt is a silent no-op leaving the draft unchanged.
	ok, err := draft.AssignProvider("svc-2", ProviderAssignment{ProviderID: "prov-1"})
	if err != nil {
		t.Fatalf("cap rejection must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected the 8th assignment to be rejected")
	}
	if count := draft.AssignmentCount("prov-1"); count != MaxProviderAssignments {
		t.Fatalf("draft changed by rejected assignment: %d", count)
	}

	// Other providers are unaffected by prov-1's exhausted cap.
	ok, err = draft.AssignProvider("svc-2", ProviderAssignment{ProviderID: "prov-2"})
	if err != nil || !ok {
		t.Fatalf("unrelated provider rejected: ok=%v err=%v", ok, err)
	}
}

func TestAssignProvider_UnknownServiceFails(t *testing.T) {
	draft := draftWithServices("svc-1")
	if _, err := draft.AssignProvider("missing", ProviderAssignment{ProviderID: "prov-1"}); err == nil {
		t.Fatal("expected error for unknown service")
	}
}

func TestUnassignProvider_IsPositional(t *testing.T) {
	draft := draftWithServices("svc-1")
	draft.AssignProvider("svc-1", ProviderAssignment{ProviderID: "prov-1", Name: "first"})
	draft.AssignProvider("svc-1", ProviderAssignment{ProviderID: "prov-1", Name: "second"})
	draft.AssignProvider("svc-1", ProviderAssignment{ProviderID: "prov-2", Name: "third"})

	if err := draft.UnassignProvider("svc-1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := draft.Services[0]
	if len(svc.Providers) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(svc.Providers))
	}
	// The duplicate assignment at a different position survives.
	if svc.Providers[0].Name != "second" || svc.Providers[1].Name != "third" {
		t.Fatalf("wrong assignment removed: %+v", svc.Providers)
	}

	if err := draft.UnassignProvider("svc-1", 5); err == nil {
		t.Fatal("expected error for out-of-range position")
	}
}

func TestDefaultProvider_IsFirstAssignment(t *testing.T) {
	svc := &ServiceInstance{ID: "svc-1"}
	if svc.DefaultProvider() != nil {
		t.Fatal("expected nil default provider for empty list")
	}

	svc.Providers = []ProviderAssignment{
		{ProviderID: "prov-2", Name: "second choice"},
		{ProviderID: "prov-1", Name: "first choice"},
	}
	def := svc.DefaultProvider()
	if def == nil || def.ProviderID != "prov-2" {
		t.Fatalf("default provider must be the first assignment, got %+v", def)
	}
}
