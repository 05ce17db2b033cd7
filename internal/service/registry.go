package service

import (
	"sync"
	"time"
)

// Battle is the common surface of the three session drivers held by the
// registry.
type Battle interface {
	// Snapshot returns a copy of the session plus any awaited input and
	// terminal result, safe for concurrent display.
	Snapshot() *SessionView
	// Submit routes one participant input into the session.
	Submit(participantID string, c Choice) error
	// Tick advances any deadline that has passed.
	Tick(now time.Time)
	// Done is closed once the session reached a terminal state and
	// settlement finished.
	Done() <-chan struct{}
}

// SessionRegistry tracks active battles by session id and by participant,
// with insert-on-start / remove-on-terminal semantics. It replaces the
// ad-hoc global active-battle sets of earlier iterations and is passed by
// reference to everything that needs membership checks.
type SessionRegistry struct {
	mu            sync.RWMutex
	byID          map[string]Battle
	byParticipant map[string]string
	retiredAt     map[string]time.Time
}

// retiredRetention is how long a terminal session stays queryable before
// the Tick sweeper drops it.
const retiredRetention = 5 * time.Minute

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:          make(map[string]Battle),
		byParticipant: make(map[string]string),
		retiredAt:     make(map[string]time.Time),
	}
}

func (r *SessionRegistry) Insert(sessionID string, b Battle, participantIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sessionID] = b
	for _, id := range participantIDs {
		r.byParticipant[id] = sessionID
	}
}

// AddParticipant registers a late joiner (raid mode) to an existing session.
func (r *SessionRegistry) AddParticipant(sessionID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[sessionID]; ok {
		r.byParticipant[participantID] = sessionID
	}
}

// Retire frees the participants of a finished session so they can start
// new battles, while keeping the terminal snapshot queryable until the
// retention sweep drops it.
func (r *SessionRegistry) Retire(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, sid := range r.byParticipant {
		if sid == sessionID {
			delete(r.byParticipant, pid)
		}
	}
	r.retiredAt[sessionID] = time.Now()
}

func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sessionID)
	delete(r.retiredAt, sessionID)
	for pid, sid := range r.byParticipant {
		if sid == sessionID {
			delete(r.byParticipant, pid)
		}
	}
}

func (r *SessionRegistry) Get(sessionID string) (Battle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[sessionID]
	return b, ok
}

// InBattle reports whether the participant is currently inside any active
// session. Used by matchmaking to skip busy opponents.
func (r *SessionRegistry) InBattle(participantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byParticipant[participantID]
	return ok
}

// Tick fans the timer callback out to every active battle and sweeps
// retired sessions past their retention.
func (r *SessionRegistry) Tick(now time.Time) {
	r.mu.RLock()
	battles := make([]Battle, 0, len(r.byID))
	for _, b := range r.byID {
		battles = append(battles, b)
	}
	var expired []string
	for sid, t := range r.retiredAt {
		if now.Sub(t) > retiredRetention {
			expired = append(expired, sid)
		}
	}
	r.mu.RUnlock()
	for _, b := range battles {
		b.Tick(now)
	}
	for _, sid := range expired {
		r.Remove(sid)
	}
}
