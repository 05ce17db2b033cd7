package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/storage"

	"golang.org/x/sync/singleflight"
)

// Timeouts groups the tunable durations of the schedulers. Zero values
// fall back to the defaults below.
type Timeouts struct {
	ArenaInput     time.Duration // per-turn deadline in ranked arena
	ForfeitConfirm time.Duration // nested forfeit confirmation deadline
	ArenaCooldown  time.Duration // per-player pause between ranked matches
	RaidCooldown   time.Duration // per-participant raid action cooldown
	RaidDuration   time.Duration // overall raid battle deadline
}

const (
	defaultArenaInput     = 45 * time.Second
	defaultForfeitConfirm = 15 * time.Second
	defaultArenaCooldown  = 120 * time.Second
	defaultRaidCooldown   = 5 * time.Second
	defaultRaidDuration   = 15 * time.Minute
)

func (t *Timeouts) applyDefaults() {
	if t.ArenaInput <= 0 {
		t.ArenaInput = defaultArenaInput
	}
	if t.ForfeitConfirm <= 0 {
		t.ForfeitConfirm = defaultForfeitConfirm
	}
	if t.ArenaCooldown <= 0 {
		t.ArenaCooldown = defaultArenaCooldown
	}
	if t.RaidCooldown <= 0 {
		t.RaidCooldown = defaultRaidCooldown
	}
	if t.RaidDuration <= 0 {
		t.RaidDuration = defaultRaidDuration
	}
}

// Service wires the battle drivers to their collaborators: stat provider,
// skill catalog, opponent sampler, persistence and the ranking ledger.
// One Service instance serves all concurrent sessions.
type Service struct {
	repo       storage.Repository
	registry   *SessionRegistry
	parties    PartyProvider
	skills     SkillCatalog
	sampler    OpponentSampler
	encounters EncounterProvider
	ledger     *RankingLedger
	timeouts   Timeouts

	// startGroup collapses duplicate concurrent ranked-battle starts
	// from the same caller into a single matchmaking attempt.
	startGroup singleflight.Group

	mu  sync.Mutex
	rng *rand.Rand
}

func New(repo storage.Repository, parties PartyProvider, skills SkillCatalog, sampler OpponentSampler, encounters EncounterProvider, timeouts Timeouts) *Service {
	timeouts.applyDefaults()
	return &Service{
		repo:       repo,
		registry:   NewSessionRegistry(),
		parties:    parties,
		skills:     skills,
		sampler:    sampler,
		encounters: encounters,
		ledger:     NewRankingLedger(repo),
		timeouts:   timeouts,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Registry exposes the session registry for membership checks.
func (s *Service) Registry() *SessionRegistry { return s.registry }

// Ledger exposes the ranking ledger for read paths.
func (s *Service) Ledger() *RankingLedger { return s.ledger }

// Skills exposes the skill catalog for read paths.
func (s *Service) Skills() SkillCatalog { return s.skills }

// newRNG derives an independent RNG for one session so parallel battles
// never contend on a shared source.
func (s *Service) newRNG() *rand.Rand {
	s.mu.Lock()
	seed := s.rng.Int63()
	s.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// newSessionID generates an id not currently held by the registry,
// retrying on the rare clash with a live session.
func (s *Service) newSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := newSessionID(s.rng)
		if _, ok := s.registry.Get(id); !ok {
			return id
		}
	}
}

// GetSession returns a display snapshot of an active session.
func (s *Service) GetSession(sessionID string) (*SessionView, error) {
	b, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return b.Snapshot(), nil
}

// SubmitChoice routes one participant input into the owning session.
// Protocol violations (wrong participant, late input, illegal choice)
// are rejected without touching session state.
func (s *Service) SubmitChoice(sessionID, participantID string, c Choice) error {
	b, ok := s.registry.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return b.Submit(participantID, c)
}

// Tick is the timer callback: it expires any AwaitingInput deadline that
// has passed. The drivers also arm their own timers, so Tick is a
// belt-and-braces path that keeps sessions moving even if a driver timer
// is delayed.
func (s *Service) Tick(now time.Time) {
	s.registry.Tick(now)
}

// SessionView is a display copy of a session: the battle state plus the
// awaited input (if suspended) and the settlement result (if terminal).
type SessionView struct {
	game.BattleSession
	Awaiting *PendingView  `json:"awaiting,omitempty"`
	Result   *BattleResult `json:"result,omitempty"`
}

// copySession deep-copies the mutable parts of a session so callers can
// render it without racing the driver goroutine. Must be called with the
// owning battle's lock held.
func copySession(s *game.BattleSession) game.BattleSession {
	out := *s
	out.Parties = make([]*game.Party, len(s.Parties))
	for i, p := range s.Parties {
		cp := &game.Party{OwnerID: p.OwnerID, OwnerName: p.OwnerName}
		cp.Members = make([]*game.Combatant, len(p.Members))
		for j, m := range p.Members {
			mc := *m
			cp.Members[j] = &mc
		}
		out.Parties[i] = cp
	}
	out.Log = append([]game.BattleEvent(nil), s.Log...)
	return out
}
