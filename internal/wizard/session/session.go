// Package session holds the in-memory wizard session registry. Drafts live
// only here; abandoning the browser session or letting it idle past the TTL
// discards the draft without a trace.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"travel_backoffice_backend/internal/wizard/domain"
	"travel_backoffice_backend/platform/apperr"
)

// Template is the catalog entry snapshot a session holds on to once it stops
// picking up refreshes.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Session binds one draft to one UI wizard instance.
type Session struct {
	ID         string
	Draft      *domain.SaleDraft
	Candidates *domain.CandidatePool

	mu          sync.Mutex
	lastTouched time.Time
	templates   []Template
}

// WithDraft runs fn while holding the session lock. All draft reads and
// mutations go through here; the draft pointer must not escape fn.
func (s *Session) WithDraft(fn func(*domain.SaleDraft, *domain.CandidatePool) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouched = time.Now()
	return fn(s.Draft, s.Candidates)
}

// RefreshSuppressed reports whether the session must stop picking up catalog
// refreshes: once the draft carries services, or when it hydrates an existing
// sale, a mid-flight template change would orphan selections.
func (s *Session) RefreshSuppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Draft.Services) > 0 || s.Draft.IsEdit()
}

// SetTemplates pins the template list this session works from.
func (s *Session) SetTemplates(templates []Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append([]Template(nil), templates...)
}

// Templates returns the pinned template list; ok is false when the session
// has never seen one.
func (s *Session) Templates() ([]Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.templates == nil {
		return nil, false
	}
	return append([]Template(nil), s.templates...), true
}

// Registry is the concurrent session store with TTL eviction.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewRegistry creates a registry evicting sessions idle longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session around the given draft.
func (r *Registry) Create(draft *domain.SaleDraft) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		Draft:       draft,
		Candidates:  domain.NewCandidatePool(),
		lastTouched: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the live session or a typed error: gone when the TTL expired,
// not found when the id never existed here.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, apperr.NotFound("wizard session not found")
	}

	s.mu.Lock()
	expired := time.Since(s.lastTouched) > r.ttl
	s.mu.Unlock()
	if expired {
		r.Delete(id)
		return nil, apperr.Gone("wizard session expired")
	}
	return s, nil
}

// Delete discards a session and its draft.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts expired sessions every interval until ctx is cancelled.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *Registry) evictExpired() {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.mu.Lock()
		expired := now.Sub(s.lastTouched) > r.ttl
		s.mu.Unlock()
		if expired {
			delete(r.sessions, id)
		}
	}
}
