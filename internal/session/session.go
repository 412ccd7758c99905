// Package session tracks per-player login sessions.
//
// A Session exists from connect to disconnect. It records whether the player
// entity has been loaded at least once during the session (so reloads such as
// dimension changes are distinguishable from fresh logins) and whether a
// delayed inventory sweep is pending.
package session

import "sync"

type Session struct {
	PlayerID string

	mu         sync.Mutex
	loads      int
	clearDue   uint64
	clearArmed bool
	closed     bool
}

// MarkLoaded records an entity load and reports whether it was the first one
// of this session.
func (s *Session) MarkLoaded() (first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.loads == 1
}

func (s *Session) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// ScheduleClear arms the delayed sweep to run at or after dueTick.
func (s *Session) ScheduleClear(dueTick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.clearDue = dueTick
	s.clearArmed = true
}

// TakeClear disarms and reports a sweep that is due at nowTick. A sweep is
// handed out at most once.
func (s *Session) TakeClear(nowTick uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clearArmed || s.closed || nowTick < s.clearDue {
		return false
	}
	s.clearArmed = false
	return true
}

func (s *Session) ClearPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearArmed
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.clearArmed = false
}

// Tracker owns the sessions of all connected players.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewTracker() *Tracker {
	return &Tracker{sessions: map[string]*Session{}}
}

// Open starts a fresh session, replacing any stale one for the same player.
func (t *Tracker) Open(playerID string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old := t.sessions[playerID]; old != nil {
		old.close()
	}
	s := &Session{PlayerID: playerID}
	t.sessions[playerID] = s
	return s
}

func (t *Tracker) Lookup(playerID string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[playerID]
	return s, ok
}

// Close ends the player's session. Closing an unknown player is a no-op.
func (t *Tracker) Close(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.sessions[playerID]; s != nil {
		s.close()
		delete(t.sessions, playerID)
	}
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
