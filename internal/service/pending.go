package service

import (
	"sync"
	"time"
)

// ChoiceKind enumerates the inputs a participant may submit.
type ChoiceKind string

const (
	ChoiceAttack  ChoiceKind = "attack"
	ChoiceSkill   ChoiceKind = "skill"
	ChoiceForfeit ChoiceKind = "forfeit"
	ChoiceConfirm ChoiceKind = "confirm"
	ChoiceCancel  ChoiceKind = "cancel"
)

// Choice is one submitted input. ActorIndex selects the attacking party
// member for ChoiceAttack; SkillID names the catalog entry for ChoiceSkill.
type Choice struct {
	Kind       ChoiceKind `json:"kind"`
	ActorIndex int        `json:"actor_index"`
	SkillID    string     `json:"skill_id,omitempty"`
}

type resolvedInput struct {
	choice   Choice
	timedOut bool
}

// pendingInput is the single-resolution suspension point of a session's
// AwaitingInput state. Exactly one of {submitted input, deadline expiry}
// resolves it; a late submit after resolution is rejected, never queued.
type pendingInput struct {
	sessionID string
	actorID   string
	deadline  time.Time // zero means no deadline (NPC side)
	legal     map[ChoiceKind]bool

	mu       sync.Mutex
	resolved bool
	ch       chan resolvedInput
}

func newPendingInput(sessionID, actorID string, timeout time.Duration, legal ...ChoiceKind) *pendingInput {
	p := &pendingInput{
		sessionID: sessionID,
		actorID:   actorID,
		legal:     make(map[ChoiceKind]bool, len(legal)),
		ch:        make(chan resolvedInput, 1),
	}
	if timeout > 0 {
		p.deadline = time.Now().Add(timeout)
	}
	for _, k := range legal {
		p.legal[k] = true
	}
	return p
}

// offer attempts to resolve the pending input with a submitted choice.
func (p *pendingInput) offer(participantID string, c Choice) error {
	if participantID != p.actorID {
		return ErrNotYourTurn
	}
	if !p.legal[c.Kind] {
		return ErrIllegalChoice
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return ErrLateInput
	}
	if !p.deadline.IsZero() && time.Now().After(p.deadline) {
		return ErrLateInput
	}
	p.resolved = true
	p.ch <- resolvedInput{choice: c}
	return nil
}

// expire resolves the pending input as timed out if nothing else has
// resolved it yet. Safe to call from both the internal timer and the
// external Tick scanner.
func (p *pendingInput) expire(now time.Time) bool {
	if p.deadline.IsZero() || now.Before(p.deadline) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return false
	}
	p.resolved = true
	p.ch <- resolvedInput{timedOut: true}
	return true
}

// await blocks the driver goroutine until the input resolves. The timer
// and a concurrent submit race through the resolved flag, so exactly one
// value ever lands in the channel.
func (p *pendingInput) await() (Choice, bool) {
	if p.deadline.IsZero() {
		in := <-p.ch
		return in.choice, in.timedOut
	}
	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()
	select {
	case in := <-p.ch:
		return in.choice, in.timedOut
	case now := <-timer.C:
		p.expire(now)
		in := <-p.ch
		return in.choice, in.timedOut
	}
}

// PendingView is the externally visible description of an awaited input.
type PendingView struct {
	ActorID  string       `json:"actor_id"`
	Deadline time.Time    `json:"deadline,omitempty"`
	Legal    []ChoiceKind `json:"legal"`
}

func (p *pendingInput) view() *PendingView {
	if p == nil {
		return nil
	}
	v := &PendingView{ActorID: p.actorID, Deadline: p.deadline}
	for k := range p.legal {
		v.Legal = append(v.Legal, k)
	}
	return v
}
