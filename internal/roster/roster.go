// Package roster resolves battle-ready parties and NPC opposition from
// the catalog config and the persisted player state. It implements the
// provider interfaces the battle service consumes.
package roster

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/soloran/hunter-arena/internal/config"
	"github.com/soloran/hunter-arena/internal/engine"
	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/logging"
	"github.com/soloran/hunter-arena/internal/service"
	"github.com/soloran/hunter-arena/internal/storage"
)

// maxPartySize caps how many hero records enter a battle party.
const maxPartySize = 3

type Roster struct {
	cfg  *config.LoadedConfig
	repo storage.Repository

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg *config.LoadedConfig, repo storage.Repository) *Roster {
	return &Roster{
		cfg:  cfg,
		repo: repo,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadParty implements service.PartyProvider. Hero records referencing
// catalog entries that no longer exist are skipped with a log line rather
// than failing the whole party.
func (r *Roster) LoadParty(playerID string) (*game.Party, error) {
	ownerName := playerID
	if profile, err := r.repo.GetProfile(playerID); err == nil && profile != nil && profile.PlayerName != "" {
		ownerName = profile.PlayerName
	}
	records, err := r.repo.GetHeroes(playerID)
	if err != nil {
		return nil, err
	}

	party := &game.Party{OwnerID: playerID, OwnerName: ownerName}
	for _, rec := range records {
		if len(party.Members) >= maxPartySize {
			break
		}
		tmpl, ok := r.cfg.Hero(rec.HeroID)
		if !ok {
			logging.Error("hero record references unknown catalog hero", nil, logging.Fields{
				"player_id": playerID,
				"hero_id":   rec.HeroID,
			})
			continue
		}
		level := rec.Level
		if level < 1 {
			level = 1
		}
		tier := rec.Tier
		if tier < tmpl.Tier {
			tier = tmpl.Tier
		}
		base := game.BaseStats{
			ID:          tmpl.ID,
			DisplayName: tmpl.Name,
			Level:       level,
			Tier:        tier,
			Element:     tmpl.Element,
			HP:          tmpl.HitPoints + tmpl.HPPerLevel*(level-1),
			MP:          tmpl.ManaPoints + tmpl.MPPerLevel*(level-1),
			Attack:      tmpl.Attack + tmpl.AttackPerLevel*(level-1),
			Defense:     tmpl.Defense + tmpl.DefensePerLevel*(level-1),
		}
		c, warnings := engine.BuildCombatant(base, []string{rec.WeaponID}, r.gearLookup)
		for _, w := range warnings {
			logging.Error("gear reference skipped", nil, logging.Fields{
				"player_id": playerID,
				"hero_id":   rec.HeroID,
				"item_id":   w.ItemID,
				"reason":    w.Reason,
			})
		}
		party.Members = append(party.Members, c)
	}
	return party, nil
}

func (r *Roster) gearLookup(itemID string) (game.GearModifier, bool) {
	mod, ok := r.cfg.Items[itemID]
	return mod, ok
}

// Get implements service.SkillCatalog.
func (r *Roster) Get(id string) (game.Skill, bool) {
	for _, s := range r.cfg.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return game.Skill{}, false
}

// For implements service.SkillCatalog: the union of skills across the
// player's owned heroes, in catalog order.
func (r *Roster) For(playerID string) []game.Skill {
	records, err := r.repo.GetHeroes(playerID)
	if err != nil {
		return nil
	}
	owned := make(map[string]bool)
	for _, rec := range records {
		tmpl, ok := r.cfg.Hero(rec.HeroID)
		if !ok {
			continue
		}
		for _, sid := range tmpl.SkillIDs {
			owned[sid] = true
		}
	}
	var out []game.Skill
	for _, s := range r.cfg.Skills {
		if owned[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// SampleOpponent implements service.OpponentSampler: a uniform pick over
// every known profile that is not the caller and not mid-battle.
func (r *Roster) SampleOpponent(callerID string, busy func(string) bool) (string, error) {
	ids, err := r.repo.ListProfileIDs()
	if err != nil {
		return "", err
	}
	eligible := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == callerID || busy(id) {
			continue
		}
		eligible = append(eligible, id)
	}
	if len(eligible) == 0 {
		return "", service.ErrNoOpponent
	}
	r.mu.Lock()
	pick := eligible[r.rng.Intn(len(eligible))]
	r.mu.Unlock()
	return pick, nil
}

// BossParty implements service.EncounterProvider.
func (r *Roster) BossParty(bossID string) (*game.Party, int, error) {
	tmpl, ok := r.cfg.Boss(bossID)
	if !ok {
		return nil, 0, fmt.Errorf("boss %q not found in catalog", bossID)
	}
	boss := npcCombatant(tmpl)
	return &game.Party{
		OwnerID:   tmpl.ID,
		OwnerName: tmpl.Name,
		Members:   []*game.Combatant{boss},
	}, tmpl.Level, nil
}

// GateEnemy implements service.EncounterProvider.
func (r *Roster) GateEnemy(rank string) (*game.Party, error) {
	tmpl, ok := r.cfg.Gate(rank)
	if !ok {
		return nil, fmt.Errorf("gate rank %q not found in catalog", rank)
	}
	party := &game.Party{
		OwnerID:   "gate-" + tmpl.Rank,
		OwnerName: tmpl.Name,
	}
	for _, e := range tmpl.Enemies {
		party.Members = append(party.Members, npcCombatant(e))
	}
	return party, nil
}

func npcCombatant(t config.BossTemplate) *game.Combatant {
	hp := t.HitPoints
	if hp < 1 {
		hp = 1
	}
	return &game.Combatant{
		ID:          t.ID,
		DisplayName: t.Name,
		Level:       t.Level,
		Element:     t.Element,
		MaxHP:       hp,
		CurrentHP:   hp,
		Attack:      t.Attack,
		Defense:     t.Defense,
		Alive:       true,
	}
}
