package service

import (
	"errors"
	"testing"
	"time"

	"github.com/soloran/hunter-arena/internal/game"
)

func bossParty(hp int) *game.Party {
	return &game.Party{
		OwnerID:   "boss-igris",
		OwnerName: "Igris",
		Members: []*game.Combatant{{
			ID: "boss-igris", DisplayName: "Igris", Level: 50,
			MaxHP: hp, CurrentHP: hp,
			Attack: 1, Defense: 100, Alive: true,
		}},
	}
}

func newRaidService(t *testing.T, repo *mockRepo, boss *game.Party, timeouts Timeouts) *Service {
	t.Helper()
	sampler := samplerFunc(func(string, func(string) bool) (string, error) {
		return "", ErrNoOpponent
	})
	skills := mockSkills{"slash": {ID: "slash", Name: "Slash", DamagePercent: 200, MPCost: 10}}
	enc := &mockEncounters{boss: boss, bossLevel: 50}
	return New(repo, testParties(t), skills, sampler, enc, timeouts)
}

func TestStartRaid_SlayBossAndCollectRewards(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(10), Timeouts{})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}
	if view.Mode != game.ModeRaid {
		t.Fatalf("expected raid mode, got %s", view.Mode)
	}

	if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceAttack}); err != nil {
		t.Fatalf("raid attack rejected: %v", err)
	}

	final, err := svc.GetSession(view.ID)
	if err != nil {
		t.Fatalf("terminal raid must stay queryable: %v", err)
	}
	if final.State != game.StateComplete {
		t.Fatalf("expected complete state, got %s", final.State)
	}
	if final.Result == nil || !final.Result.CallerWon {
		t.Fatalf("expected raid victory: %+v", final.Result)
	}
	if len(final.Result.Raid) != 1 {
		t.Fatalf("expected one raid reward, got %d", len(final.Result.Raid))
	}
	reward := final.Result.Raid[0]
	if reward.Traces <= 0 || reward.GateKeys <= 0 {
		t.Fatalf("victory reward missing traces or keys: %+v", reward)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	got := repo.currency["alice"]
	if got.Gold != reward.Gold || got.XP != reward.XP || got.Traces != reward.Traces {
		t.Fatalf("persisted currency does not match reward: %+v vs %+v", got, reward)
	}
}

func TestRaid_ActionCooldown(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(100000000), Timeouts{RaidCooldown: time.Minute})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}
	if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceAttack}); err != nil {
		t.Fatalf("first attack rejected: %v", err)
	}
	if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceAttack}); !errors.Is(err, ErrOnCooldown) {
		t.Fatalf("expected ErrOnCooldown on the second immediate attack, got %v", err)
	}
}

func TestRaid_JoinAndMembershipRules(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(100000000), Timeouts{RaidCooldown: time.Millisecond})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}

	if err := svc.SubmitChoice(view.ID, "bob", Choice{Kind: ChoiceAttack}); !errors.Is(err, ErrNotInRaid) {
		t.Fatalf("expected ErrNotInRaid before joining, got %v", err)
	}
	if _, err := svc.JoinRaid(view.ID, "bob", "Bob"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := svc.JoinRaid(view.ID, "bob", "Bob"); !errors.Is(err, ErrAlreadyInBattle) && !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected duplicate join rejection, got %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := svc.SubmitChoice(view.ID, "bob", Choice{Kind: ChoiceAttack}); err != nil {
		t.Fatalf("joined member attack rejected: %v", err)
	}

	snapshot, _ := svc.GetSession(view.ID)
	if len(snapshot.Parties) != 3 {
		t.Fatalf("expected boss plus two member parties, got %d", len(snapshot.Parties))
	}
}

func TestRaid_RetaliationTargetsRandomMember(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(100000000), Timeouts{RaidCooldown: time.Millisecond})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}
	if _, err := svc.JoinRaid(view.ID, "bob", "Bob"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// With two members a counterstrike that always hits the actor would
	// never touch the idle one; a uniform pick misses it with probability
	// 2^-30 over thirty actions.
	for i := 0; i < 30; i++ {
		time.Sleep(2 * time.Millisecond)
		if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceAttack}); err != nil {
			t.Fatalf("attack %d rejected: %v", i, err)
		}
	}

	snapshot, err := svc.GetSession(view.ID)
	if err != nil {
		t.Fatalf("failed to fetch session: %v", err)
	}
	targets := make(map[string]int)
	for _, ev := range snapshot.Log {
		if ev.Kind == game.EventAttack && ev.ActorID == "boss-igris" {
			targets[ev.TargetID]++
		}
	}
	if targets["bob"] == 0 {
		t.Fatalf("boss counterstrikes never hit the second member: %v", targets)
	}
}

func TestRaid_SkillValidation(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(100000000), Timeouts{RaidCooldown: time.Millisecond})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}
	if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceSkill, SkillID: "nope"}); !errors.Is(err, ErrUnknownSkill) {
		t.Fatalf("expected ErrUnknownSkill, got %v", err)
	}
	if err := svc.SubmitChoice(view.ID, "alice", Choice{Kind: ChoiceSkill, SkillID: "slash"}); err != nil {
		t.Fatalf("known skill rejected: %v", err)
	}
}

func TestRaid_DeadlineEndsInDefeat(t *testing.T) {
	repo := newMockRepo()
	svc := newRaidService(t, repo, bossParty(100000000), Timeouts{RaidDuration: time.Millisecond})

	view, err := svc.StartRaid("alice", "Alice", "boss-igris")
	if err != nil {
		t.Fatalf("failed to start raid: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	svc.Tick(time.Now())

	final, _ := svc.GetSession(view.ID)
	if final.State != game.StateTimedOut {
		t.Fatalf("expected timed_out state, got %s", final.State)
	}
	if final.Result == nil || final.Result.CallerWon {
		t.Fatalf("deadline expiry must settle as defeat: %+v", final.Result)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.currency["alice"].Gold <= 0 {
		t.Fatalf("defeat still pays participation gold, got %+v", repo.currency["alice"])
	}
	if repo.currency["alice"].Traces != 0 {
		t.Fatalf("defeat must pay no traces, got %+v", repo.currency["alice"])
	}
}
