package budget

import (
	"sync"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// SessionState is the single source of truth for "which budget is current".
// It replaces the loosely synchronized globals of older clients with one
// explicit value: the session controller is the only writer, every other
// component reads through it.
//
// Every reconciliation pass takes a sequence number at its start. Before
// writing results, a pass checks that its sequence is still the latest and
// that the budget it loaded is still current; rapid budget switching is
// made safe by discarding superseded results rather than by cancellation.
type SessionState struct {
	mu sync.Mutex

	userID  string
	current string
	shared  bool
	seq     uint64

	subs       map[EntityKind]types.Subscription
	membership types.Subscription
	revoked    map[string]bool
}

// NewSessionState returns an unselected session for the given user.
func NewSessionState(userID string) *SessionState {
	return &SessionState{
		userID:  userID,
		subs:    make(map[EntityKind]types.Subscription),
		revoked: make(map[string]bool),
	}
}

// UserID returns the authenticated user's id.
func (s *SessionState) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// CurrentBudget returns the currently selected budget id, empty if none.
func (s *SessionState) CurrentBudget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentIsShared reports whether the selected budget is a shared budget.
func (s *SessionState) CurrentIsShared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shared
}

// SetCurrent selects a budget. Pass an empty id to deselect.
func (s *SessionState) SetCurrent(budgetID string, shared bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = budgetID
	s.shared = shared
}

// BeginLoad assigns the next load sequence number. Called once at the
// start of every reconciliation pass.
func (s *SessionState) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// IsCurrent reports whether a pass that started with the given sequence for
// the given budget may still write its results.
func (s *SessionState) IsCurrent(budgetID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq && s.current == budgetID
}

// MarkRevoked records that the user lost access to a budget, so the session
// controller will not try to keep it selected.
func (s *SessionState) MarkRevoked(budgetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[budgetID] = true
}

// IsRevoked reports whether access to a budget has been revoked.
func (s *SessionState) IsRevoked(budgetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[budgetID]
}

// SubscribeKinds opens one realtime channel per entity kind for a shared
// budget and makes sure the singleton membership channel is active. Any
// channels from a previous budget are closed first.
func (s *SessionState) SubscribeKinds(rt types.RealtimeStore, budgetID string, handler func(Event)) error {
	s.unsubscribeKinds()

	for _, kind := range types.EntityKinds {
		sub, err := rt.Subscribe(budgetID, kind, handler)
		if err != nil {
			s.unsubscribeKinds()
			return err
		}
		s.mu.Lock()
		s.subs[kind] = sub
		s.mu.Unlock()
	}

	s.mu.Lock()
	needMembership := s.membership == nil
	userID := s.userID
	s.mu.Unlock()

	if needMembership {
		sub, err := rt.SubscribeMembership(userID, handler)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.membership = sub
		s.mu.Unlock()
	}

	return nil
}

// UnsubscribeKinds closes every per-kind channel. The membership channel is
// left open; it lives for the whole authenticated session.
func (s *SessionState) UnsubscribeKinds() {
	s.unsubscribeKinds()
}

// CloseSubscriptions tears down every channel including membership. Used on
// client shutdown only.
func (s *SessionState) CloseSubscriptions() {
	s.unsubscribeKinds()

	s.mu.Lock()
	membership := s.membership
	s.membership = nil
	s.mu.Unlock()

	if membership != nil {
		_ = membership.Unsubscribe()
	}
}

// ActiveSubscriptions returns the number of open per-kind channels.
func (s *SessionState) ActiveSubscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *SessionState) unsubscribeKinds() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[EntityKind]types.Subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
}
