package service

import (
	"errors"
	"testing"
	"time"
)

func TestPendingInput_OfferValidation(t *testing.T) {
	p := newPendingInput("S1", "alice", time.Minute, ChoiceAttack, ChoiceForfeit)

	if err := p.offer("bob", Choice{Kind: ChoiceAttack}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for wrong actor, got %v", err)
	}
	if err := p.offer("alice", Choice{Kind: ChoiceConfirm}); !errors.Is(err, ErrIllegalChoice) {
		t.Fatalf("expected ErrIllegalChoice for confirm, got %v", err)
	}
	if err := p.offer("alice", Choice{Kind: ChoiceAttack, ActorIndex: 1}); err != nil {
		t.Fatalf("legal offer rejected: %v", err)
	}

	choice, timedOut := p.await()
	if timedOut {
		t.Fatalf("resolved input must not report timeout")
	}
	if choice.Kind != ChoiceAttack || choice.ActorIndex != 1 {
		t.Fatalf("unexpected resolved choice: %+v", choice)
	}
}

func TestPendingInput_SingleResolution(t *testing.T) {
	p := newPendingInput("S1", "alice", time.Minute, ChoiceAttack)

	if err := p.offer("alice", Choice{Kind: ChoiceAttack}); err != nil {
		t.Fatalf("first offer rejected: %v", err)
	}
	if err := p.offer("alice", Choice{Kind: ChoiceAttack}); !errors.Is(err, ErrLateInput) {
		t.Fatalf("expected ErrLateInput for second offer, got %v", err)
	}
}

func TestPendingInput_ExpireBeatsOffer(t *testing.T) {
	p := newPendingInput("S1", "alice", time.Millisecond, ChoiceAttack)
	time.Sleep(5 * time.Millisecond)

	if !p.expire(time.Now()) {
		t.Fatalf("expected expire to resolve the input")
	}
	if err := p.offer("alice", Choice{Kind: ChoiceAttack}); !errors.Is(err, ErrLateInput) {
		t.Fatalf("expected ErrLateInput after expiry, got %v", err)
	}
	if _, timedOut := p.await(); !timedOut {
		t.Fatalf("expected await to report timeout")
	}
}

func TestPendingInput_AwaitTimesOutOnItsOwn(t *testing.T) {
	p := newPendingInput("S1", "alice", 10*time.Millisecond, ChoiceAttack)
	start := time.Now()
	_, timedOut := p.await()
	if !timedOut {
		t.Fatalf("expected timeout resolution")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("await took far longer than the deadline")
	}
}

func TestPendingInput_ExpireBeforeDeadlineIsNoop(t *testing.T) {
	p := newPendingInput("S1", "alice", time.Minute, ChoiceAttack)
	if p.expire(time.Now()) {
		t.Fatalf("expire before the deadline must not resolve")
	}
	if err := p.offer("alice", Choice{Kind: ChoiceAttack}); err != nil {
		t.Fatalf("offer after noop expire rejected: %v", err)
	}
}
