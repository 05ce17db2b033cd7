package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/engine"
	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/logging"
	"github.com/soloran/hunter-arena/internal/storage"
)

// Gate clear payout scales with the strongest enemy in the gate.
const (
	gateBaseGold     = 250
	gateGoldPerLevel = 50
)

// GateBattle drives one solo gate run: the caller's party against catalog
// opposition, with skills enabled. Same suspension discipline as the
// ranked arena, one goroutine owning the session.
type GateBattle struct {
	svc *Service

	mu      sync.Mutex
	session *game.BattleSession
	caller  *game.Party
	enemies *game.Party
	rank    string
	pending *pendingInput
	result  *BattleResult
	rng     *rand.Rand
	done    chan struct{}
}

// StartGate opens a gate of the given rank for the caller, consuming one
// gate key up front. The key is spent whether or not the run succeeds.
func (s *Service) StartGate(callerID, callerName, rank string) (*SessionView, error) {
	v, err, _ := s.startGroup.Do("gate:"+callerID, func() (interface{}, error) {
		return s.startGate(callerID, callerName, rank)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SessionView), nil
}

func (s *Service) startGate(callerID, callerName, rank string) (*SessionView, error) {
	if s.registry.InBattle(callerID) {
		return nil, ErrAlreadyInBattle
	}
	profile, err := s.repo.UpsertProfile(callerID, callerName)
	if err != nil {
		return nil, err
	}
	if profile.GateKeys < 1 {
		return nil, ErrNoGateKeys
	}

	callerParty, err := s.parties.LoadParty(callerID)
	if err != nil {
		return nil, err
	}
	if len(callerParty.Members) == 0 {
		return nil, ErrPartyEmpty
	}
	enemies, err := s.encounters.GateEnemy(rank)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyCurrency(callerID, storage.CurrencyDelta{GateKeys: -1}); err != nil {
		return nil, err
	}

	b := &GateBattle{
		svc: s,
		session: &game.BattleSession{
			ID:        s.newSessionID(),
			Mode:      game.ModeGate,
			State:     game.StateAwaitingInput,
			Round:     1,
			Parties:   []*game.Party{callerParty, enemies},
			CreatedAt: time.Now().UTC(),
		},
		caller:  callerParty,
		enemies: enemies,
		rank:    rank,
		rng:     s.newRNG(),
		done:    make(chan struct{}),
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		ActorID: callerID,
		Message: fmt.Sprintf("%s enters a rank %s gate", callerParty.OwnerName, rank),
	})
	s.registry.Insert(b.session.ID, b, callerID)
	logging.Info("gate battle started", logging.Fields{
		"session_id": b.session.ID,
		"caller_id":  callerID,
		"rank":       rank,
	})
	go b.run()
	return b.Snapshot(), nil
}

// Done implements Battle.
func (b *GateBattle) Done() <-chan struct{} { return b.done }

// Snapshot implements Battle.
func (b *GateBattle) Snapshot() *SessionView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &SessionView{
		BattleSession: copySession(b.session),
		Awaiting:      b.pending.view(),
		Result:        b.result,
	}
}

// Tick implements Battle.
func (b *GateBattle) Tick(now time.Time) {
	b.mu.Lock()
	p := b.pending
	b.mu.Unlock()
	if p != nil {
		p.expire(now)
	}
}

// Submit implements Battle. Skill choices are checked against the catalog
// and the actor's MP before the turn resolves; a rejected submit leaves
// the turn open.
func (b *GateBattle) Submit(participantID string, c Choice) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session.State.Terminal() {
		return ErrBattleOver
	}
	p := b.pending
	if p == nil {
		return ErrNotYourTurn
	}
	if c.Kind == ChoiceAttack || c.Kind == ChoiceSkill {
		if c.ActorIndex < 0 || c.ActorIndex >= len(b.caller.Members) {
			return ErrIllegalChoice
		}
		actor := b.caller.Members[c.ActorIndex]
		if !actor.Alive {
			return ErrDefeated
		}
		if c.Kind == ChoiceSkill {
			sk, ok := b.svc.skills.Get(c.SkillID)
			if !ok {
				return ErrUnknownSkill
			}
			if actor.CurrentMP < sk.MPCost {
				return ErrNotEnoughMP
			}
		}
	}
	return p.offer(participantID, c)
}

func (b *GateBattle) run() {
	defer b.finish()
	for {
		p := newPendingInput(b.session.ID, b.caller.OwnerID, b.svc.timeouts.ArenaInput,
			ChoiceAttack, ChoiceSkill, ChoiceForfeit)
		b.mu.Lock()
		b.session.State = game.StateAwaitingInput
		b.pending = p
		b.mu.Unlock()

		choice, timedOut := p.await()

		b.mu.Lock()
		b.pending = nil
		if timedOut {
			b.session.State = game.StateTimedOut
			b.session.WinnerID = b.enemies.OwnerID
			b.caller.MarkAllDown()
			b.session.AppendEvent(game.BattleEvent{
				Kind:    game.EventTimeout,
				ActorID: b.caller.OwnerID,
				Message: fmt.Sprintf("%s hesitated too long and the gate collapses", b.caller.OwnerName),
			})
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		if choice.Kind == ChoiceForfeit {
			if b.confirmRetreat() {
				return
			}
			continue
		}

		b.mu.Lock()
		b.session.State = game.StateResolving
		over := b.playerTurn(choice)
		if !over {
			over = b.enemyTurn()
		}
		if over {
			b.mu.Unlock()
			return
		}
		b.session.Round++
		b.mu.Unlock()
	}
}

func (b *GateBattle) confirmRetreat() bool {
	p := newPendingInput(b.session.ID, b.caller.OwnerID, b.svc.timeouts.ForfeitConfirm,
		ChoiceConfirm, ChoiceCancel)
	b.mu.Lock()
	b.pending = p
	b.mu.Unlock()

	choice, timedOut := p.await()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
	if timedOut || choice.Kind == ChoiceCancel {
		b.session.AppendEvent(game.BattleEvent{
			Kind:    game.EventInfo,
			ActorID: b.caller.OwnerID,
			Message: "retreat cancelled, the run continues",
		})
		return false
	}
	b.session.State = game.StateForfeited
	b.session.WinnerID = b.enemies.OwnerID
	b.caller.MarkAllDown()
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventForfeit,
		ActorID: b.caller.OwnerID,
		Message: fmt.Sprintf("%s retreats from the gate", b.caller.OwnerName),
	})
	return true
}

func (b *GateBattle) playerTurn(choice Choice) bool {
	attacker := b.caller.Members[choice.ActorIndex]
	if !attacker.Alive {
		return false
	}
	targets := b.enemies.AliveMembers()
	if len(targets) == 0 {
		return b.declareVictory()
	}
	target := targets[b.rng.Intn(len(targets))]

	var skill *game.Skill
	if choice.Kind == ChoiceSkill {
		sk, ok := b.svc.skills.Get(choice.SkillID)
		if !ok {
			return false
		}
		skill = &sk
		attacker.CurrentMP -= sk.MPCost
	}
	res, err := engine.SafeResolveAttack(b.rng, attacker, target, skill, engine.PlayerCritChance)
	b.logAttack(b.caller.OwnerID, b.enemies.OwnerID, attacker, target, res, err)
	if b.enemies.Defeated() {
		return b.declareVictory()
	}
	return false
}

func (b *GateBattle) enemyTurn() bool {
	attackers := b.enemies.AliveMembers()
	if len(attackers) == 0 {
		return b.declareVictory()
	}
	attacker := attackers[b.rng.Intn(len(attackers))]
	target := pickTarget(b.rng, b.caller)
	if target == nil {
		return b.declareDefeat()
	}
	res, err := engine.SafeResolveAttack(b.rng, attacker, target, nil, engine.AICritChance)
	b.logAttack(b.enemies.OwnerID, b.caller.OwnerID, attacker, target, res, err)
	if b.caller.Defeated() {
		return b.declareDefeat()
	}
	return false
}

func (b *GateBattle) logAttack(actorOwner, targetOwner string, attacker, target *game.Combatant, res engine.DamageResult, err error) {
	if err != nil {
		logging.Error("gate attack resolution failed", err, logging.Fields{
			"session_id": b.session.ID,
			"attacker":   attacker.ID,
		})
		b.session.AppendEvent(game.BattleEvent{
			Kind:    game.EventError,
			ActorID: actorOwner,
			Message: fmt.Sprintf("%s's attack fizzled", attacker.DisplayName),
		})
		return
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:           game.EventAttack,
		ActorID:        actorOwner,
		TargetID:       targetOwner,
		Amount:         res.Damage,
		Critical:       res.Critical,
		SuperEffective: res.SuperEffective(),
		NotEffective:   res.NotEffective(),
		Message:        fmt.Sprintf("%s hits %s for %d", attacker.DisplayName, target.DisplayName, res.Damage),
	})
	if res.TargetDefeated {
		b.session.AppendEvent(game.BattleEvent{
			Kind:     game.EventDefeat,
			TargetID: targetOwner,
			Message:  fmt.Sprintf("%s is down", target.DisplayName),
		})
	}
}

func (b *GateBattle) declareVictory() bool {
	b.session.State = game.StateComplete
	b.session.WinnerID = b.caller.OwnerID
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		ActorID: b.caller.OwnerID,
		Message: fmt.Sprintf("%s clears the gate", b.caller.OwnerName),
	})
	return true
}

func (b *GateBattle) declareDefeat() bool {
	b.session.State = game.StateComplete
	b.session.WinnerID = b.enemies.OwnerID
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		ActorID: b.enemies.OwnerID,
		Message: fmt.Sprintf("%s falls inside the gate", b.caller.OwnerName),
	})
	return true
}

// finish settles the gate run: hero XP either way, gold only on a clear.
func (b *GateBattle) finish() {
	b.mu.Lock()
	cleared := b.session.WinnerID == b.caller.OwnerID
	grants := ComputeXPGrants(cleared, b.caller, b.enemies)
	enemyLevel := 0
	for _, m := range b.enemies.Members {
		if m.Level > enemyLevel {
			enemyLevel = m.Level
		}
	}
	b.mu.Unlock()

	for _, g := range grants {
		if err := b.svc.repo.AddHeroXP(b.caller.OwnerID, g.HeroID, g.XP); err != nil {
			logging.Error("failed to grant hero xp", err, logging.Fields{
				"session_id": b.session.ID,
				"hero_id":    g.HeroID,
			})
		}
	}
	if cleared {
		gold := gateBaseGold + enemyLevel*gateGoldPerLevel
		if err := b.svc.repo.ApplyCurrency(b.caller.OwnerID, storage.CurrencyDelta{Gold: gold}); err != nil {
			logging.Error("failed to apply gate reward", err, logging.Fields{
				"session_id": b.session.ID,
				"player_id":  b.caller.OwnerID,
			})
		}
	}

	b.mu.Lock()
	b.result = &BattleResult{CallerWon: cleared, XPGrants: grants}
	sessionID := b.session.ID
	b.mu.Unlock()

	logging.Info("gate battle settled", logging.Fields{
		"session_id": sessionID,
		"cleared":    cleared,
		"rank":       b.rank,
	})
	b.svc.registry.Retire(sessionID)
	close(b.done)
}
