package service

import (
	"math/rand"
	"testing"
	"time"
)

type stubBattle struct{}

func (stubBattle) Snapshot() *SessionView      { return nil }
func (stubBattle) Submit(string, Choice) error { return nil }
func (stubBattle) Tick(time.Time)              {}
func (stubBattle) Done() <-chan struct{}       { return nil }

func TestNewSessionID_RegeneratesOnCollision(t *testing.T) {
	svc := newTestService(t, newMockRepo(), Timeouts{})
	svc.rng = rand.New(rand.NewSource(7))

	// The first id the seeded generator would produce is already taken.
	taken := newSessionID(rand.New(rand.NewSource(7)))
	svc.registry.Insert(taken, stubBattle{})

	got := svc.newSessionID()
	if got == taken {
		t.Fatalf("id generation must skip a live session id, got %q", got)
	}
	if len(got) != sessionIDLength {
		t.Fatalf("unexpected id length: %q", got)
	}
}
