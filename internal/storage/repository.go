package storage

import (
	"errors"

	"github.com/soloran/hunter-arena/internal/game"
)

// ErrNotFound reports that the requested row does not exist. Callers use
// it to tell first contact apart from a storage failure.
var ErrNotFound = errors.New("record not found")

// CurrencyDelta is a settlement's effect on one player's persisted
// resources. Fields map one-to-one onto PlayerProfile columns; there is
// deliberately no string-keyed variant.
type CurrencyDelta struct {
	Gold     int
	Traces   int
	GateKeys int
	Tickets  int
	XP       int
}

// Repository is the persistence boundary of the battle engine. Sessions
// themselves are never stored; only long-lived player state is.
type Repository interface {
	// Profiles
	GetProfile(playerID string) (*game.PlayerProfile, error)
	SaveProfile(p *game.PlayerProfile) error
	// UpsertProfile creates the profile on first contact and refreshes
	// the display name on later calls.
	UpsertProfile(playerID, playerName string) (*game.PlayerProfile, error)
	ListProfileIDs() ([]string, error)
	// RecordArenaOutcome bumps win/loss counters and the profile-side
	// win streak after a ranked match.
	RecordArenaOutcome(playerID string, won bool) error

	// Hero progression
	GetHeroes(playerID string) ([]game.HeroRecord, error)
	SaveHero(h *game.HeroRecord) error
	AddHeroXP(playerID, heroID string, xp int) error

	// Currencies
	ApplyCurrency(playerID string, delta CurrencyDelta) error

	// Ranking ledger
	GetRankingAccount(playerID string) (*game.RankingAccount, error)
	SaveRankingAccounts(a, b *game.RankingAccount) error
	// RecomputeRankingPositions reassigns every account's derived rank
	// from the full point table, highest points first.
	RecomputeRankingPositions() error
	GetTopAccounts(limit int) ([]game.RankingAccount, error)
}
