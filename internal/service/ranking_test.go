package service

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/storage"
)

// mockLedgerRepo implements only the ranking slice of the repository.
type mockLedgerRepo struct {
	storage.Repository

	mu       sync.Mutex
	accounts map[string]*game.RankingAccount
	nextID   uint
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{accounts: make(map[string]*game.RankingAccount), nextID: 1}
}

func (m *mockLedgerRepo) GetRankingAccount(playerID string) (*game.RankingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[playerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *mockLedgerRepo) SaveRankingAccounts(a, b *game.RankingAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range []*game.RankingAccount{a, b} {
		if acc.ID == 0 {
			acc.ID = m.nextID
			m.nextID++
		}
		cp := *acc
		m.accounts[acc.PlayerID] = &cp
	}
	return nil
}

func (m *mockLedgerRepo) RecomputeRankingPositions() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*game.RankingAccount, 0, len(m.accounts))
	for _, acc := range m.accounts {
		all = append(all, acc)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].ID < all[j].ID
	})
	for i, acc := range all {
		acc.Rank = i + 1
	}
	return nil
}

func (m *mockLedgerRepo) GetTopAccounts(limit int) ([]game.RankingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]game.RankingAccount, 0, len(m.accounts))
	for _, acc := range m.accounts {
		all = append(all, *acc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Points > all[j].Points })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func TestApplyRanked_CreatesAccountsAndExchangesPoints(t *testing.T) {
	repo := newMockLedgerRepo()
	ledger := NewRankingLedger(repo)

	delta, err := ledger.ApplyRanked("alice", "Alice", "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First win: streak 1, bonus 2, gain 12. Bob has nothing to lose.
	if delta.PointsGained != 12 {
		t.Fatalf("expected 12 points gained, got %d", delta.PointsGained)
	}
	if delta.PointsLost != 0 {
		t.Fatalf("fresh loser must not go negative, expected 0 lost, got %d", delta.PointsLost)
	}
	if delta.WinnerStreak != 1 {
		t.Fatalf("expected streak 1, got %d", delta.WinnerStreak)
	}
	if delta.WinnerRank != 1 {
		t.Fatalf("expected winner at rank 1, got %d", delta.WinnerRank)
	}

	winner, _ := repo.GetRankingAccount("alice")
	loser, _ := repo.GetRankingAccount("bob")
	if winner.Points != 12 || loser.Points != 0 {
		t.Fatalf("unexpected point totals: winner=%d loser=%d", winner.Points, loser.Points)
	}
	if loser.CurrentStreak != 0 {
		t.Fatalf("loser streak must reset, got %d", loser.CurrentStreak)
	}
}

func TestApplyRanked_LoserNeverGoesNegative(t *testing.T) {
	repo := newMockLedgerRepo()
	repo.accounts["bob"] = &game.RankingAccount{PlayerID: "bob", Points: 3}
	ledger := NewRankingLedger(repo)

	delta, err := ledger.ApplyRanked("alice", "Alice", "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta.PointsLost != 3 {
		t.Fatalf("loss must cap at the loser's balance, got %d", delta.PointsLost)
	}
	loser, _ := repo.GetRankingAccount("bob")
	if loser.Points != 0 {
		t.Fatalf("expected loser at 0, got %d", loser.Points)
	}
}

func TestApplyRanked_StreakBonusCaps(t *testing.T) {
	repo := newMockLedgerRepo()
	repo.accounts["alice"] = &game.RankingAccount{PlayerID: "alice", Points: 100, CurrentStreak: 15, HighestStreak: 15}
	repo.accounts["bob"] = &game.RankingAccount{PlayerID: "bob", Points: 100}
	ledger := NewRankingLedger(repo)

	delta, err := ledger.ApplyRanked("alice", "Alice", "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Streak 16 would bonus 32; the cap holds it at 20 for a gain of 30.
	if delta.PointsGained != 30 {
		t.Fatalf("expected capped gain 30, got %d", delta.PointsGained)
	}
	if delta.PointsLost != 15 {
		t.Fatalf("expected loss of 15 (half of 30, rounded up), got %d", delta.PointsLost)
	}
	winner, _ := repo.GetRankingAccount("alice")
	if winner.HighestStreak != 16 {
		t.Fatalf("highest streak must track the new peak, got %d", winner.HighestStreak)
	}
}

func TestApplyRanked_ConcurrentSettlementsStayConsistent(t *testing.T) {
	repo := newMockLedgerRepo()
	ledger := NewRankingLedger(repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.ApplyRanked("alice", "Alice", "bob", "Bob"); err != nil {
				t.Errorf("settlement failed: %v", err)
			}
		}()
	}
	wg.Wait()

	winner, err := repo.GetRankingAccount("alice")
	if err != nil {
		t.Fatalf("winner account missing: %v", err)
	}
	if winner.CurrentStreak != 8 {
		t.Fatalf("eight serialized wins must leave streak 8, got %d", winner.CurrentStreak)
	}
	loser, _ := repo.GetRankingAccount("bob")
	if loser.Points != 0 {
		t.Fatalf("loser must stay at 0, got %d", loser.Points)
	}
}

// failingLedgerRepo fails account reads with a non-missing error.
type failingLedgerRepo struct {
	storage.Repository
}

var errLedgerDown = errors.New("database locked")

func (failingLedgerRepo) GetRankingAccount(string) (*game.RankingAccount, error) {
	return nil, errLedgerDown
}

func TestApplyRanked_SurfacesStorageErrors(t *testing.T) {
	ledger := NewRankingLedger(failingLedgerRepo{})
	if _, err := ledger.ApplyRanked("alice", "Alice", "bob", "Bob"); !errors.Is(err, errLedgerDown) {
		t.Fatalf("a transient storage failure must abort settlement, got %v", err)
	}
}

func TestAuditEntries_AppendAndDecode(t *testing.T) {
	acc := &game.RankingAccount{PlayerID: "alice"}
	appendAudit(acc, "first")
	appendAudit(acc, "second")
	entries := AuditEntries(acc)
	if len(entries) != 2 || entries[0] != "first" || entries[1] != "second" {
		t.Fatalf("unexpected audit entries: %v", entries)
	}
}

func TestAuditEntries_CorruptLogResets(t *testing.T) {
	acc := &game.RankingAccount{PlayerID: "alice", Audit: "{not json"}
	appendAudit(acc, "fresh")
	entries := AuditEntries(acc)
	if len(entries) != 1 || entries[0] != "fresh" {
		t.Fatalf("corrupt log must reset to the new entry, got %v", entries)
	}
}
