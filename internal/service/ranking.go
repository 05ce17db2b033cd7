package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/logging"
	"github.com/soloran/hunter-arena/internal/storage"
)

// Ledger tuning. Points flow from loser to winner, capped so the loser
// never goes negative.
const (
	rankedBasePoints    = 10
	rankedMinPoints     = 5
	rankedMaxStreakGain = 20
)

// RankingDelta summarizes one settlement's effect on both accounts.
type RankingDelta struct {
	WinnerID     string `json:"winner_id"`
	LoserID      string `json:"loser_id"`
	PointsGained int    `json:"points_gained"`
	PointsLost   int    `json:"points_lost"`
	WinnerStreak int    `json:"winner_streak"`
	WinnerRank   int    `json:"winner_rank"`
	LoserRank    int    `json:"loser_rank"`
}

// RankingLedger applies the zero-sum point/streak exchange after every
// ranked session. Two concurrently finishing battles that share a
// participant serialize on per-account locks acquired in id order.
type RankingLedger struct {
	repo storage.Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRankingLedger(repo storage.Repository) *RankingLedger {
	return &RankingLedger{repo: repo, locks: make(map[string]*sync.Mutex)}
}

func (l *RankingLedger) lockFor(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lockPair acquires both account locks, lower id first, so two ledgers
// settling overlapping pairs can never deadlock.
func (l *RankingLedger) lockPair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	fm, sm := l.lockFor(first), l.lockFor(second)
	fm.Lock()
	sm.Lock()
	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}

// ApplyRanked settles a ranked session between winner and loser. Missing
// accounts are created with zero points before deltas apply; a
// settlement is never rejected for a first-time participant.
func (l *RankingLedger) ApplyRanked(winnerID, winnerName, loserID, loserName string) (*RankingDelta, error) {
	unlock := l.lockPair(winnerID, loserID)
	defer unlock()

	winner, err := l.loadOrCreate(winnerID, winnerName)
	if err != nil {
		return nil, err
	}
	loser, err := l.loadOrCreate(loserID, loserName)
	if err != nil {
		return nil, err
	}

	newStreak := winner.CurrentStreak + 1
	streakBonus := newStreak * 2
	if streakBonus > rankedMaxStreakGain {
		streakBonus = rankedMaxStreakGain
	}
	gained := rankedBasePoints + streakBonus
	if gained < rankedMinPoints {
		gained = rankedMinPoints
	}
	lost := (gained + 1) / 2
	if lost > loser.Points {
		lost = loser.Points
	}

	winner.Points += gained
	winner.CurrentStreak = newStreak
	if newStreak > winner.HighestStreak {
		winner.HighestStreak = newStreak
	}
	loser.Points -= lost
	loser.CurrentStreak = 0

	appendAudit(winner, fmt.Sprintf("victory against %s: +%d (%d)", loserName, gained, winner.Points))
	appendAudit(loser, fmt.Sprintf("defense failed against %s: -%d (%d)", winnerName, lost, loser.Points))

	if err := l.repo.SaveRankingAccounts(winner, loser); err != nil {
		return nil, err
	}
	if err := l.repo.RecomputeRankingPositions(); err != nil {
		return nil, err
	}

	// Re-read for the freshly derived ranks.
	winner, err = l.repo.GetRankingAccount(winnerID)
	if err != nil {
		return nil, err
	}
	loser, err = l.repo.GetRankingAccount(loserID)
	if err != nil {
		return nil, err
	}

	return &RankingDelta{
		WinnerID:     winnerID,
		LoserID:      loserID,
		PointsGained: gained,
		PointsLost:   lost,
		WinnerStreak: winner.CurrentStreak,
		WinnerRank:   winner.Rank,
		LoserRank:    loser.Rank,
	}, nil
}

// loadOrCreate reads an account, creating a zero-point one only when the
// row genuinely does not exist. Any other storage failure aborts the
// settlement rather than fabricating ledger state.
func (l *RankingLedger) loadOrCreate(playerID, playerName string) (*game.RankingAccount, error) {
	acc, err := l.repo.GetRankingAccount(playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return &game.RankingAccount{PlayerID: playerID, PlayerName: playerName}, nil
	}
	if err != nil {
		return nil, err
	}
	if playerName != "" {
		acc.PlayerName = playerName
	}
	return acc, nil
}

// Account returns the ledger row for one participant.
func (l *RankingLedger) Account(playerID string) (*game.RankingAccount, error) {
	acc, err := l.repo.GetRankingAccount(playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Top returns the leaderboard, highest points first.
func (l *RankingLedger) Top(limit int) ([]game.RankingAccount, error) {
	return l.repo.GetTopAccounts(limit)
}

type auditEntry struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// appendAudit adds an entry to the account's append-only JSON audit log.
// A corrupt log is reset rather than blocking settlement.
func appendAudit(acc *game.RankingAccount, content string) {
	var entries []auditEntry
	if acc.Audit != "" {
		if err := json.Unmarshal([]byte(acc.Audit), &entries); err != nil {
			logging.Error("resetting corrupt ranking audit log", err, logging.Fields{"player_id": acc.PlayerID})
			entries = nil
		}
	}
	entries = append(entries, auditEntry{Content: content, Timestamp: time.Now().UTC()})
	b, err := json.Marshal(entries)
	if err != nil {
		return
	}
	acc.Audit = string(b)
}

// AuditEntries decodes an account's audit log for display.
func AuditEntries(acc *game.RankingAccount) []string {
	var entries []auditEntry
	if acc.Audit == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(acc.Audit), &entries); err != nil {
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content
	}
	return out
}
