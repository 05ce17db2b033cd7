package storage

import (
	"errors"

	"github.com/soloran/hunter-arena/internal/game"

	"gorm.io/gorm"
)

// heroLevelXPStep is the per-level XP requirement multiplier: a hero at
// level N levels up after accumulating N*heroLevelXPStep experience.
const heroLevelXPStep = 100

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) GetProfile(playerID string) (*game.PlayerProfile, error) {
	var p game.PlayerProfile
	if err := r.db.Where("player_id = ?", playerID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) SaveProfile(p *game.PlayerProfile) error {
	return r.db.Save(p).Error
}

func (r *sqliteRepository) UpsertProfile(playerID, playerName string) (*game.PlayerProfile, error) {
	var p game.PlayerProfile
	err := r.db.Where("player_id = ?", playerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = game.PlayerProfile{PlayerID: playerID, PlayerName: playerName}
		if err := r.db.Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	if playerName != "" && p.PlayerName != playerName {
		p.PlayerName = playerName
		if err := r.db.Save(&p).Error; err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *sqliteRepository) ListProfileIDs() ([]string, error) {
	var ids []string
	if err := r.db.Model(&game.PlayerProfile{}).Pluck("player_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sqliteRepository) RecordArenaOutcome(playerID string, won bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var p game.PlayerProfile
		if err := tx.Where("player_id = ?", playerID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				p = game.PlayerProfile{PlayerID: playerID}
			} else {
				return err
			}
		}
		if won {
			p.ArenaWins++
			p.WinStreak++
		} else {
			p.ArenaLosses++
			p.WinStreak = 0
		}
		return tx.Save(&p).Error
	})
}

func (r *sqliteRepository) GetHeroes(playerID string) ([]game.HeroRecord, error) {
	var heroes []game.HeroRecord
	if err := r.db.Where("player_id = ?", playerID).Order("id asc").Find(&heroes).Error; err != nil {
		return nil, err
	}
	return heroes, nil
}

func (r *sqliteRepository) SaveHero(h *game.HeroRecord) error {
	return r.db.Save(h).Error
}

// AddHeroXP accumulates experience on a hero record and applies any
// level-ups the new total pays for. A missing record is created at level
// one so a grant is never dropped.
func (r *sqliteRepository) AddHeroXP(playerID, heroID string, xp int) error {
	if xp <= 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var h game.HeroRecord
		err := tx.Where("player_id = ? AND hero_id = ?", playerID, heroID).First(&h).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h = game.HeroRecord{PlayerID: playerID, HeroID: heroID, Level: 1}
		} else if err != nil {
			return err
		}
		if h.Level < 1 {
			h.Level = 1
		}
		h.XP += xp
		for h.XP >= h.Level*heroLevelXPStep {
			h.XP -= h.Level * heroLevelXPStep
			h.Level++
		}
		return tx.Save(&h).Error
	})
}

// ApplyCurrency adds the delta onto the profile's currency columns,
// flooring each at zero. The profile is created on first contact.
func (r *sqliteRepository) ApplyCurrency(playerID string, delta CurrencyDelta) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var p game.PlayerProfile
		err := tx.Where("player_id = ?", playerID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = game.PlayerProfile{PlayerID: playerID}
		} else if err != nil {
			return err
		}
		p.Gold = floorZero(p.Gold + delta.Gold)
		p.Traces = floorZero(p.Traces + delta.Traces)
		p.GateKeys = floorZero(p.GateKeys + delta.GateKeys)
		p.Tickets = floorZero(p.Tickets + delta.Tickets)
		p.XP = floorZero(p.XP + delta.XP)
		return tx.Save(&p).Error
	})
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func (r *sqliteRepository) GetRankingAccount(playerID string) (*game.RankingAccount, error) {
	var a game.RankingAccount
	if err := r.db.Where("player_id = ?", playerID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *sqliteRepository) SaveRankingAccounts(a, b *game.RankingAccount) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return tx.Save(b).Error
	})
}

// RecomputeRankingPositions reassigns the derived rank column over the
// whole table, highest points first. Ties break on the earlier-created
// account.
func (r *sqliteRepository) RecomputeRankingPositions() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var accounts []game.RankingAccount
		if err := tx.Order("points desc, created_at asc").Find(&accounts).Error; err != nil {
			return err
		}
		for i := range accounts {
			rank := i + 1
			if accounts[i].Rank == rank {
				continue
			}
			if err := tx.Model(&game.RankingAccount{}).
				Where("id = ?", accounts[i].ID).
				Update("rank", rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) GetTopAccounts(limit int) ([]game.RankingAccount, error) {
	if limit <= 0 {
		limit = 10
	}
	var accounts []game.RankingAccount
	if err := r.db.Order("points desc, created_at asc").Limit(limit).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
