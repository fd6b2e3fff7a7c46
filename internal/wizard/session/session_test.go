package session

import (
	"testing"
	"time"

	"travel_backoffice_backend/internal/wizard/domain"
	"travel_backoffice_backend/platform/apperr"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	registry := NewRegistry(time.Hour)
	created := registry.Create(domain.NewDraft())

	got, err := registry.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != created {
		t.Fatal("expected the same session instance")
	}
}

func TestRegistry_UnknownIDIsNotFound(t *testing.T) {
	registry := NewRegistry(time.Hour)

	_, err := registry.Get("nope")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistry_ExpiredSessionIsGoneAndEvicted(t *testing.T) {
	registry := NewRegistry(10 * time.Millisecond)
	created := registry.Create(domain.NewDraft())

	time.Sleep(30 * time.Millisecond)

	_, err := registry.Get(created.ID)
	if !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("expected gone, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expired session not evicted, %d remain", registry.Len())
	}
}

func TestRegistry_EvictExpiredSweepsIdleSessions(t *testing.T) {
	registry := NewRegistry(10 * time.Millisecond)
	registry.Create(domain.NewDraft())
	fresh := registry.Create(domain.NewDraft())

	time.Sleep(30 * time.Millisecond)
	fresh.WithDraft(func(*domain.SaleDraft, *domain.CandidatePool) error { return nil })

	registry.evictExpired()
	if registry.Len() != 1 {
		t.Fatalf("expected only the touched session to survive, got %d", registry.Len())
	}
	if _, err := registry.Get(fresh.ID); err != nil {
		t.Fatalf("touched session evicted: %v", err)
	}
}

func TestSession_WithDraftTouchesTTL(t *testing.T) {
	registry := NewRegistry(50 * time.Millisecond)
	s := registry.Create(domain.NewDraft())

	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		err := s.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
			draft.SharedCheckIn = "2026-10-01"
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := registry.Get(s.ID); err != nil {
		t.Fatalf("active session expired: %v", err)
	}
}

func TestSession_RefreshSuppression(t *testing.T) {
	registry := NewRegistry(time.Hour)

	fresh := registry.Create(domain.NewDraft())
	if fresh.RefreshSuppressed() {
		t.Fatal("empty draft must keep receiving refreshes")
	}

	withService := registry.Create(domain.NewDraft())
	withService.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		draft.SelectTemplate("inst-1", "tpl-hotel", "Hotel")
		return nil
	})
	if !withService.RefreshSuppressed() {
		t.Fatal("draft with services must suppress refreshes")
	}

	editDraft := domain.NewDraft()
	editDraft.SaleID = "sale-42"
	editing := registry.Create(editDraft)
	if !editing.RefreshSuppressed() {
		t.Fatal("edit mode must suppress refreshes")
	}
}
