package service

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/engine"
	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/logging"
)

// raidMember is one participant's live state inside a raid: a single
// merged combatant built from their party, plus the action cooldown mark.
type raidMember struct {
	combatant    *game.Combatant
	name         string
	lastActionAt time.Time
}

// RaidBattle drives one multi-participant boss encounter. Unlike the
// arena there is no turn suspension: any living member may act whenever
// their personal cooldown allows, and the boss retaliates against the
// actor immediately. All mutation goes through one mutex.
type RaidBattle struct {
	svc *Service

	mu        sync.Mutex
	session   *game.BattleSession
	boss      *game.Combatant
	bossLevel int
	baseHP    int
	members   map[string]*raidMember
	deadline  time.Time
	rng       *rand.Rand
	result    *BattleResult
	finished  bool
	done      chan struct{}
}

// StartRaid opens a boss encounter with the host as its first member.
func (s *Service) StartRaid(hostID, hostName, bossID string) (*SessionView, error) {
	v, err, _ := s.startGroup.Do("raid:"+hostID, func() (interface{}, error) {
		return s.startRaid(hostID, hostName, bossID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SessionView), nil
}

func (s *Service) startRaid(hostID, hostName, bossID string) (*SessionView, error) {
	if s.registry.InBattle(hostID) {
		return nil, ErrAlreadyInBattle
	}
	bossParty, bossLevel, err := s.encounters.BossParty(bossID)
	if err != nil {
		return nil, err
	}
	if len(bossParty.Members) == 0 {
		return nil, fmt.Errorf("boss %q has no combatants", bossID)
	}

	b := &RaidBattle{
		svc: s,
		session: &game.BattleSession{
			ID:        s.newSessionID(),
			Mode:      game.ModeRaid,
			State:     game.StateAwaitingInput,
			Round:     1,
			Parties:   []*game.Party{bossParty},
			CreatedAt: time.Now().UTC(),
		},
		boss:      bossParty.Members[0],
		bossLevel: bossLevel,
		baseHP:    bossParty.Members[0].MaxHP,
		members:   make(map[string]*raidMember),
		deadline:  time.Now().Add(s.timeouts.RaidDuration),
		rng:       s.newRNG(),
		done:      make(chan struct{}),
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		Message: fmt.Sprintf("%s appears (level %d)", b.boss.DisplayName, bossLevel),
	})
	s.registry.Insert(b.session.ID, b)
	if err := b.join(hostID, hostName); err != nil {
		s.registry.Remove(b.session.ID)
		return nil, err
	}
	logging.Info("raid started", logging.Fields{
		"session_id": b.session.ID,
		"boss_id":    bossID,
		"host_id":    hostID,
	})
	return b.Snapshot(), nil
}

// JoinRaid adds a player to an open raid.
func (s *Service) JoinRaid(sessionID, playerID, playerName string) (*SessionView, error) {
	bt, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	rb, ok := bt.(*RaidBattle)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.registry.InBattle(playerID) {
		return nil, ErrAlreadyInBattle
	}
	if err := rb.join(playerID, playerName); err != nil {
		return nil, err
	}
	return rb.Snapshot(), nil
}

func (b *RaidBattle) join(playerID, playerName string) error {
	party, err := b.svc.parties.LoadParty(playerID)
	if err != nil {
		return err
	}
	if len(party.Members) == 0 {
		return ErrPartyEmpty
	}
	merged := mergeParty(playerID, party)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return ErrBattleOver
	}
	if _, ok := b.members[playerID]; ok {
		return ErrAlreadyJoined
	}
	b.members[playerID] = &raidMember{combatant: merged, name: party.OwnerName}
	// Every member past the first grows the boss pool by half its base
	// HP, so a full party faces a proportionally tougher fight.
	if len(b.members) > 1 && b.boss.Alive {
		extra := b.baseHP / 2
		b.boss.MaxHP += extra
		b.boss.CurrentHP += extra
	}
	b.session.Parties = append(b.session.Parties, &game.Party{
		OwnerID:   playerID,
		OwnerName: party.OwnerName,
		Members:   []*game.Combatant{merged},
	})
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		ActorID: playerID,
		Message: fmt.Sprintf("%s joins the raid", party.OwnerName),
	})
	b.svc.registry.AddParticipant(b.session.ID, playerID)
	return nil
}

// mergeParty collapses a party into one raid combatant: pooled HP and MP,
// summed attack and defense, the element and level of the strongest
// member.
func mergeParty(playerID string, p *game.Party) *game.Combatant {
	merged := &game.Combatant{
		ID:          playerID,
		DisplayName: p.OwnerName,
		Alive:       true,
	}
	var strongest *game.Combatant
	for _, m := range p.Members {
		merged.MaxHP += m.MaxHP
		merged.MaxMP += m.MaxMP
		merged.Attack += m.Attack
		merged.Defense += m.Defense
		if strongest == nil || m.Level > strongest.Level {
			strongest = m
		}
	}
	merged.Level = strongest.Level
	merged.Tier = strongest.Tier
	merged.Element = strongest.Element
	merged.CurrentHP = merged.MaxHP
	merged.CurrentMP = merged.MaxMP
	return merged
}

// Done implements Battle.
func (b *RaidBattle) Done() <-chan struct{} { return b.done }

// Snapshot implements Battle.
func (b *RaidBattle) Snapshot() *SessionView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &SessionView{
		BattleSession: copySession(b.session),
		Result:        b.result,
	}
}

// Tick implements Battle: a raid past its overall deadline ends as a
// defeat for the members.
func (b *RaidBattle) Tick(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished || now.Before(b.deadline) {
		return
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventTimeout,
		Message: fmt.Sprintf("%s withdraws as the raid window closes", b.boss.DisplayName),
	})
	b.endRaidLocked(false, game.StateTimedOut)
}

// Submit implements Battle. The acting member's cooldown gates the rate
// of actions; the boss strikes back at the actor before the call returns.
func (b *RaidBattle) Submit(participantID string, c Choice) error {
	if c.Kind != ChoiceAttack && c.Kind != ChoiceSkill {
		return ErrIllegalChoice
	}

	var skill *game.Skill
	if c.Kind == ChoiceSkill {
		sk, ok := b.svc.skills.Get(c.SkillID)
		if !ok {
			return ErrUnknownSkill
		}
		skill = &sk
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return ErrBattleOver
	}
	m, ok := b.members[participantID]
	if !ok {
		return ErrNotInRaid
	}
	if !m.combatant.Alive {
		return ErrDefeated
	}
	now := time.Now()
	if now.Sub(m.lastActionAt) < b.svc.timeouts.RaidCooldown {
		return ErrOnCooldown
	}
	if skill != nil && m.combatant.CurrentMP < skill.MPCost {
		return ErrNotEnoughMP
	}
	m.lastActionAt = now

	if skill != nil {
		m.combatant.CurrentMP -= skill.MPCost
	}
	res, err := engine.SafeResolveAttack(b.rng, m.combatant, b.boss, skill, engine.PlayerCritChance)
	if err != nil {
		logging.Error("raid attack resolution failed", err, logging.Fields{
			"session_id": b.session.ID,
			"player_id":  participantID,
		})
		b.session.AppendEvent(game.BattleEvent{
			Kind:    game.EventError,
			ActorID: participantID,
			Message: fmt.Sprintf("%s's attack fizzled", m.name),
		})
		return nil
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:           game.EventAttack,
		ActorID:        participantID,
		TargetID:       b.boss.ID,
		Amount:         res.Damage,
		Critical:       res.Critical,
		SuperEffective: res.SuperEffective(),
		NotEffective:   res.NotEffective(),
		Message:        fmt.Sprintf("%s hits %s for %d", m.name, b.boss.DisplayName, res.Damage),
	})
	b.session.Round++

	if res.TargetDefeated {
		b.session.AppendEvent(game.BattleEvent{
			Kind:     game.EventDefeat,
			TargetID: b.boss.ID,
			Message:  fmt.Sprintf("%s has been slain", b.boss.DisplayName),
		})
		b.endRaidLocked(true, game.StateComplete)
		return nil
	}

	b.retaliateLocked()
	return nil
}

// retaliateLocked resolves the boss counterstrike against one living
// member picked uniformly at random. Called with b.mu held.
func (b *RaidBattle) retaliateLocked() {
	ids := make([]string, 0, len(b.members))
	for id, m := range b.members {
		if m.combatant.Alive {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)
	targetID := ids[b.rng.Intn(len(ids))]
	target := b.members[targetID]

	res, err := engine.SafeResolveAttack(b.rng, b.boss, target.combatant, nil, engine.AICritChance)
	if err != nil {
		logging.Error("boss retaliation failed", err, logging.Fields{
			"session_id": b.session.ID,
			"player_id":  targetID,
		})
		return
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:           game.EventAttack,
		ActorID:        b.boss.ID,
		TargetID:       targetID,
		Amount:         res.Damage,
		Critical:       res.Critical,
		SuperEffective: res.SuperEffective(),
		NotEffective:   res.NotEffective(),
		Message:        fmt.Sprintf("%s strikes back at %s for %d", b.boss.DisplayName, target.name, res.Damage),
	})
	if !res.TargetDefeated {
		return
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:     game.EventDefeat,
		TargetID: targetID,
		Message:  fmt.Sprintf("%s is down", target.name),
	})
	for _, other := range b.members {
		if other.combatant.Alive {
			return
		}
	}
	b.endRaidLocked(false, game.StateComplete)
}

// endRaidLocked settles the raid exactly once. Called with b.mu held.
func (b *RaidBattle) endRaidLocked(victory bool, state game.State) {
	b.finished = true
	b.session.State = state
	if victory {
		// The raid has no single winning party; the boss id marks defeat.
		b.session.WinnerID = ""
	} else {
		b.session.WinnerID = b.boss.ID
	}

	contributions := make([]RaidContribution, 0, len(b.members))
	for id, m := range b.members {
		contributions = append(contributions, RaidContribution{
			PlayerID:   id,
			PlayerName: m.name,
			Damage:     m.combatant.DamageDealt,
		})
	}
	rewards := ComputeRaidRewards(b.bossLevel, victory, contributions)
	for _, r := range rewards {
		if err := b.svc.repo.ApplyCurrency(r.PlayerID, r.currencyDelta()); err != nil {
			logging.Error("failed to apply raid rewards", err, logging.Fields{
				"session_id": b.session.ID,
				"player_id":  r.PlayerID,
			})
		}
	}
	b.result = &BattleResult{CallerWon: victory, Raid: rewards}

	logging.Info("raid settled", logging.Fields{
		"session_id": b.session.ID,
		"victory":    victory,
		"members":    len(b.members),
	})
	b.svc.registry.Retire(b.session.ID)
	close(b.done)
}
