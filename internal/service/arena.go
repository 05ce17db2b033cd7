package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/engine"
	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/logging"
)

// aiLowestHPChance is how often the defending side focuses the weakest
// caller combatant instead of a random one.
const aiLowestHPChance = 0.70

// ArenaBattle drives one ranked 1v1 session. The caller's party acts on
// submitted choices; the sampled opponent's party is driven by policy.
// A single goroutine owns the session state end to end.
type ArenaBattle struct {
	svc *Service

	mu       sync.Mutex
	session  *game.BattleSession
	caller   *game.Party
	opponent *game.Party
	pending  *pendingInput
	result   *BattleResult
	rng      *rand.Rand
	done     chan struct{}
}

// StartRankedBattle matches the caller against a random eligible opponent
// and starts the session driver. Duplicate concurrent starts from the
// same caller collapse into one attempt.
func (s *Service) StartRankedBattle(callerID, callerName string) (*SessionView, error) {
	v, err, _ := s.startGroup.Do("arena:"+callerID, func() (interface{}, error) {
		return s.startRankedBattle(callerID, callerName)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SessionView), nil
}

func (s *Service) startRankedBattle(callerID, callerName string) (*SessionView, error) {
	if s.registry.InBattle(callerID) {
		return nil, ErrAlreadyInBattle
	}
	profile, err := s.repo.UpsertProfile(callerID, callerName)
	if err != nil {
		return nil, err
	}
	if since := time.Since(profile.LastArenaAt); since < s.timeouts.ArenaCooldown {
		return nil, ErrOnCooldown
	}

	opponentID, err := s.sampler.SampleOpponent(callerID, s.registry.InBattle)
	if err != nil {
		return nil, err
	}

	callerParty, err := s.parties.LoadParty(callerID)
	if err != nil {
		return nil, err
	}
	if len(callerParty.Members) == 0 {
		return nil, ErrPartyEmpty
	}
	opponentParty, err := s.parties.LoadParty(opponentID)
	if err != nil {
		return nil, err
	}
	if len(opponentParty.Members) == 0 {
		return nil, ErrNoOpponent
	}

	profile.LastArenaAt = time.Now().UTC()
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}

	b := &ArenaBattle{
		svc: s,
		session: &game.BattleSession{
			ID:        s.newSessionID(),
			Mode:      game.ModeArena,
			State:     game.StateAwaitingInput,
			Round:     1,
			Parties:   []*game.Party{callerParty, opponentParty},
			CreatedAt: time.Now().UTC(),
		},
		caller:   callerParty,
		opponent: opponentParty,
		rng:      s.newRNG(),
		done:     make(chan struct{}),
	}
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		Message: fmt.Sprintf("%s challenges %s", callerParty.OwnerName, opponentParty.OwnerName),
	})
	s.registry.Insert(b.session.ID, b, callerID, opponentID)
	logging.Info("ranked battle started", logging.Fields{
		"session_id":  b.session.ID,
		"caller_id":   callerID,
		"opponent_id": opponentID,
	})
	go b.run()
	return b.Snapshot(), nil
}

// Done implements Battle.
func (b *ArenaBattle) Done() <-chan struct{} { return b.done }

// Snapshot implements Battle.
func (b *ArenaBattle) Snapshot() *SessionView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &SessionView{
		BattleSession: copySession(b.session),
		Awaiting:      b.pending.view(),
		Result:        b.result,
	}
}

// Tick implements Battle: it expires a passed input deadline so the
// driver wakes even if its own timer is delayed.
func (b *ArenaBattle) Tick(now time.Time) {
	b.mu.Lock()
	p := b.pending
	b.mu.Unlock()
	if p != nil {
		p.expire(now)
	}
}

// Submit implements Battle. Choices are validated against the live party
// state before resolving the suspension, so an illegal submit leaves the
// turn open for a corrected one.
func (b *ArenaBattle) Submit(participantID string, c Choice) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session.State.Terminal() {
		return ErrBattleOver
	}
	p := b.pending
	if p == nil {
		return ErrNotYourTurn
	}
	if c.Kind == ChoiceAttack {
		if c.ActorIndex < 0 || c.ActorIndex >= len(b.caller.Members) {
			return ErrIllegalChoice
		}
		if !b.caller.Members[c.ActorIndex].Alive {
			return ErrDefeated
		}
	}
	return p.offer(participantID, c)
}

// run is the session driver loop. It alternates between suspending on the
// caller's choice and resolving one exchange of attacks, until a party is
// defeated or the session ends by forfeit or timeout.
func (b *ArenaBattle) run() {
	defer b.finish()
	for {
		p := newPendingInput(b.session.ID, b.caller.OwnerID, b.svc.timeouts.ArenaInput,
			ChoiceAttack, ChoiceForfeit)
		b.mu.Lock()
		b.session.State = game.StateAwaitingInput
		b.pending = p
		b.mu.Unlock()

		choice, timedOut := p.await()

		b.mu.Lock()
		b.pending = nil
		if timedOut {
			b.session.State = game.StateTimedOut
			b.session.WinnerID = b.opponent.OwnerID
			b.caller.MarkAllDown()
			b.session.AppendEvent(game.BattleEvent{
				Kind:    game.EventTimeout,
				ActorID: b.caller.OwnerID,
				Message: fmt.Sprintf("%s took too long to act and loses the match", b.caller.OwnerName),
			})
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		if choice.Kind == ChoiceForfeit {
			if b.confirmForfeit() {
				return
			}
			continue
		}

		b.mu.Lock()
		b.session.State = game.StateResolving
		over := b.playerTurn(choice.ActorIndex)
		if !over {
			over = b.opponentTurn()
		}
		if over {
			b.mu.Unlock()
			return
		}
		b.session.Round++
		b.mu.Unlock()
	}
}

// confirmForfeit runs the nested confirmation step. An expired or
// cancelled confirmation resumes the match; a confirmed one ends it as a
// loss for the caller.
func (b *ArenaBattle) confirmForfeit() bool {
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
			Message: "forfeit cancelled, the match continues",
		})
		return false
	}
	b.session.State = game.StateForfeited
	b.session.WinnerID = b.opponent.OwnerID
	b.caller.MarkAllDown()
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventForfeit,
		ActorID: b.caller.OwnerID,
		Message: fmt.Sprintf("%s forfeits the match", b.caller.OwnerName),
	})
	return true
}

// playerTurn resolves the chosen combatant's attack against a random
// living opponent. Returns true when the match just ended.
func (b *ArenaBattle) playerTurn(actorIndex int) bool {
	attacker := b.caller.Members[actorIndex]
	if !attacker.Alive {
		// Validated at submit time; the actor can only have dropped if
		// state mutated in between, which the driver loop never does.
		return false
	}
	targets := b.opponent.AliveMembers()
	if len(targets) == 0 {
		return b.declareWinner(b.caller)
	}
	target := targets[b.rng.Intn(len(targets))]
	b.resolveAttack(attacker, target)
	if b.opponent.Defeated() {
		return b.declareWinner(b.caller)
	}
	return false
}

// opponentTurn resolves the policy-driven counterattack: a random living
// attacker strikes the lowest-HP caller member most of the time, a random
// one otherwise.
func (b *ArenaBattle) opponentTurn() bool {
	attackers := b.opponent.AliveMembers()
	if len(attackers) == 0 {
		return b.declareWinner(b.caller)
	}
	attacker := attackers[b.rng.Intn(len(attackers))]
	target := pickTarget(b.rng, b.caller)
	if target == nil {
		return b.declareWinner(b.opponent)
	}
	b.resolveCounter(attacker, target)
	if b.caller.Defeated() {
		return b.declareWinner(b.opponent)
	}
	return false
}

// pickTarget applies the defending policy to the given party.
func pickTarget(rng *rand.Rand, party *game.Party) *game.Combatant {
	alive := party.AliveMembers()
	if len(alive) == 0 {
		return nil
	}
	if rng.Float64() < aiLowestHPChance {
		lowest := alive[0]
		for _, m := range alive[1:] {
			if m.CurrentHP < lowest.CurrentHP {
				lowest = m
			}
		}
		return lowest
	}
	return alive[rng.Intn(len(alive))]
}

func (b *ArenaBattle) resolveAttack(attacker, target *game.Combatant) {
	res, err := engine.SafeResolveAttack(b.rng, attacker, target, nil, engine.PlayerCritChance)
	b.logAttack(b.caller.OwnerID, b.opponent.OwnerID, attacker, target, res, err)
}

func (b *ArenaBattle) resolveCounter(attacker, target *game.Combatant) {
	res, err := engine.SafeResolveAttack(b.rng, attacker, target, nil, engine.AICritChance)
	b.logAttack(b.opponent.OwnerID, b.caller.OwnerID, attacker, target, res, err)
}

func (b *ArenaBattle) logAttack(actorOwner, targetOwner string, attacker, target *game.Combatant, res engine.DamageResult, err error) {
	if err != nil {
		logging.Error("attack resolution failed", err, logging.Fields{
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

func (b *ArenaBattle) declareWinner(p *game.Party) bool {
	b.session.State = game.StateComplete
	b.session.WinnerID = p.OwnerID
	b.session.AppendEvent(game.BattleEvent{
		Kind:    game.EventInfo,
		ActorID: p.OwnerID,
		Message: fmt.Sprintf("%s wins the match", p.OwnerName),
	})
	return true
}

// finish runs settlement exactly once, after the session turned terminal,
// then retires the session from the registry.
func (b *ArenaBattle) finish() {
	b.mu.Lock()
	callerWon := b.session.WinnerID == b.caller.OwnerID
	grants := ComputeXPGrants(callerWon, b.caller, b.opponent)
	b.mu.Unlock()

	winnerParty, loserParty := b.opponent, b.caller
	if callerWon {
		winnerParty, loserParty = b.caller, b.opponent
	}

	for _, g := range grants {
		if err := b.svc.repo.AddHeroXP(b.caller.OwnerID, g.HeroID, g.XP); err != nil {
			logging.Error("failed to grant hero xp", err, logging.Fields{
				"session_id": b.session.ID,
				"hero_id":    g.HeroID,
			})
		}
	}

	delta, err := b.svc.ledger.ApplyRanked(
		winnerParty.OwnerID, winnerParty.OwnerName,
		loserParty.OwnerID, loserParty.OwnerName,
	)
	if err != nil {
		logging.Error("ranking settlement failed", err, logging.Fields{
			"session_id": b.session.ID,
			"winner_id":  winnerParty.OwnerID,
		})
	}
	if err := b.svc.repo.RecordArenaOutcome(winnerParty.OwnerID, true); err != nil {
		logging.Error("failed to record arena win", err, logging.Fields{"player_id": winnerParty.OwnerID})
	}
	if err := b.svc.repo.RecordArenaOutcome(loserParty.OwnerID, false); err != nil {
		logging.Error("failed to record arena loss", err, logging.Fields{"player_id": loserParty.OwnerID})
	}

	b.mu.Lock()
	b.result = &BattleResult{CallerWon: callerWon, XPGrants: grants, Ranking: delta}
	sessionID := b.session.ID
	b.mu.Unlock()

	logging.Info("ranked battle settled", logging.Fields{
		"session_id": sessionID,
		"winner_id":  winnerParty.OwnerID,
		"caller_won": callerWon,
	})
	b.svc.registry.Retire(sessionID)
	close(b.done)
}
