package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/soloran/hunter-arena/internal/game"
)

type heroEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Element         string   `json:"element"`
	Tier            int      `json:"tier"`
	HitPoints       int      `json:"hit_points"`
	ManaPoints      int      `json:"mana_points"`
	Attack          int      `json:"attack"`
	Defense         int      `json:"defense"`
	HPPerLevel      int      `json:"hp_per_level"`
	MPPerLevel      int      `json:"mp_per_level"`
	AttackPerLevel  int      `json:"attack_per_level"`
	DefensePerLevel int      `json:"defense_per_level"`
	SkillIDs        []string `json:"skill_ids"`
}

type itemEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Attack     int    `json:"attack"`
	Defense    int    `json:"defense"`
	HitPoints  int    `json:"hit_points"`
	ManaPoints int    `json:"mana_points"`
}

type skillEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DamagePercent int    `json:"damage_percent"`
	MPCost        int    `json:"mp_cost"`
}

type bossEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Element   string `json:"element"`
	Level     int    `json:"level"`
	HitPoints int    `json:"hit_points"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
}

type gateEnemyEntry struct {
	Name      string `json:"name"`
	Element   string `json:"element"`
	Level     int    `json:"level"`
	HitPoints int    `json:"hit_points"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
}

type gateEntry struct {
	Rank    string           `json:"rank"`
	Name    string           `json:"name"`
	Enemies []gateEnemyEntry `json:"enemies"`
}

type rawConfig struct {
	HeroList  []heroEntry  `json:"hero_list"`
	ItemList  []itemEntry  `json:"item_list"`
	SkillList []skillEntry `json:"skill_list"`
	BossList  []bossEntry  `json:"boss_list"`
	GateList  []gateEntry  `json:"gate_list"`
	Server    *struct {
		Address string `json:"address"`
	} `json:"server"`
}

// HeroTemplate is one catalog hero with its per-level stat growth. The
// roster scales a template by a hero record's level to build combatants.
type HeroTemplate struct {
	ID              string
	Name            string
	Element         game.Element
	Tier            int
	HitPoints       int
	ManaPoints      int
	Attack          int
	Defense         int
	HPPerLevel      int
	MPPerLevel      int
	AttackPerLevel  int
	DefensePerLevel int
	SkillIDs        []string
}

// BossTemplate is one raid boss catalog entry.
type BossTemplate struct {
	ID        string
	Name      string
	Element   game.Element
	Level     int
	HitPoints int
	Attack    int
	Defense   int
}

// GateTemplate is one gate rank with its enemy lineup.
type GateTemplate struct {
	Rank    string
	Name    string
	Enemies []BossTemplate
}

// LoadedConfig holds the full battle catalog plus the server address.
type LoadedConfig struct {
	Heroes        []HeroTemplate
	Items         map[string]game.GearModifier
	Skills        []game.Skill
	Bosses        []BossTemplate
	Gates         []GateTemplate
	ServerAddress string
}

// Hero looks up a catalog hero by id.
func (c *LoadedConfig) Hero(id string) (HeroTemplate, bool) {
	for _, h := range c.Heroes {
		if h.ID == id {
			return h, true
		}
	}
	return HeroTemplate{}, false
}

// Boss looks up a raid boss by id.
func (c *LoadedConfig) Boss(id string) (BossTemplate, bool) {
	for _, b := range c.Bosses {
		if b.ID == id {
			return b, true
		}
	}
	return BossTemplate{}, false
}

// Gate looks up a gate lineup by rank (case-insensitive).
func (c *LoadedConfig) Gate(rank string) (GateTemplate, bool) {
	for _, g := range c.Gates {
		if strings.EqualFold(g.Rank, rank) {
			return g, true
		}
	}
	return GateTemplate{}, false
}

func parseElement(path, owner, raw string) (game.Element, error) {
	if raw == "" || strings.EqualFold(raw, string(game.None)) {
		return game.None, nil
	}
	for _, e := range game.Elements {
		if strings.EqualFold(string(e), raw) {
			return e, nil
		}
	}
	return game.None, fmt.Errorf("config file %s: entry '%s' has unknown element '%s'", path, owner, raw)
}

// LoadConfig reads the catalog file at path. It requires the key
// `hero_list` (snake_case); the other catalogs may be empty.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.HeroList) == 0 {
		return nil, fmt.Errorf("config file %s: hero_list is empty (provide 'hero_list' array)", path)
	}

	skills := make([]game.Skill, 0, len(rc.SkillList))
	skillSet := make(map[string]struct{}, len(rc.SkillList))
	for _, s := range rc.SkillList {
		if s.ID == "" {
			return nil, fmt.Errorf("config file %s: skill entry missing 'id'", path)
		}
		if _, exists := skillSet[s.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate skill id '%s'", path, s.ID)
		}
		skillSet[s.ID] = struct{}{}
		if s.DamagePercent <= 0 {
			return nil, fmt.Errorf("config file %s: skill '%s' needs a positive 'damage_percent'", path, s.ID)
		}
		skills = append(skills, game.Skill{
			ID:            s.ID,
			Name:          s.Name,
			DamagePercent: s.DamagePercent,
			MPCost:        s.MPCost,
		})
	}

	heroes := make([]HeroTemplate, 0, len(rc.HeroList))
	heroSet := make(map[string]struct{}, len(rc.HeroList))
	for _, h := range rc.HeroList {
		if h.ID == "" || h.Name == "" {
			return nil, fmt.Errorf("config file %s: hero entry missing 'id' or 'name'", path)
		}
		if _, exists := heroSet[h.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate hero id '%s'", path, h.ID)
		}
		heroSet[h.ID] = struct{}{}
		el, err := parseElement(path, h.ID, h.Element)
		if err != nil {
			return nil, err
		}
		for _, sid := range h.SkillIDs {
			if _, ok := skillSet[sid]; !ok {
				return nil, fmt.Errorf("config file %s: hero '%s' references unknown skill '%s'", path, h.ID, sid)
			}
		}
		heroes = append(heroes, HeroTemplate{
			ID:              h.ID,
			Name:            h.Name,
			Element:         el,
			Tier:            h.Tier,
			HitPoints:       h.HitPoints,
			ManaPoints:      h.ManaPoints,
			Attack:          h.Attack,
			Defense:         h.Defense,
			HPPerLevel:      h.HPPerLevel,
			MPPerLevel:      h.MPPerLevel,
			AttackPerLevel:  h.AttackPerLevel,
			DefensePerLevel: h.DefensePerLevel,
			SkillIDs:        h.SkillIDs,
		})
	}

	items := make(map[string]game.GearModifier, len(rc.ItemList))
	for _, it := range rc.ItemList {
		if it.ID == "" {
			return nil, fmt.Errorf("config file %s: item entry missing 'id'", path)
		}
		if _, exists := items[it.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate item id '%s'", path, it.ID)
		}
		items[it.ID] = game.GearModifier{
			ItemID:  it.ID,
			Attack:  it.Attack,
			Defense: it.Defense,
			HP:      it.HitPoints,
			MP:      it.ManaPoints,
		}
	}

	bosses := make([]BossTemplate, 0, len(rc.BossList))
	bossSet := make(map[string]struct{}, len(rc.BossList))
	for _, bb := range rc.BossList {
		if bb.ID == "" {
			return nil, fmt.Errorf("config file %s: boss entry missing 'id'", path)
		}
		if _, exists := bossSet[bb.ID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate boss id '%s'", path, bb.ID)
		}
		bossSet[bb.ID] = struct{}{}
		el, err := parseElement(path, bb.ID, bb.Element)
		if err != nil {
			return nil, err
		}
		bosses = append(bosses, BossTemplate{
			ID:        bb.ID,
			Name:      bb.Name,
			Element:   el,
			Level:     bb.Level,
			HitPoints: bb.HitPoints,
			Attack:    bb.Attack,
			Defense:   bb.Defense,
		})
	}

	gates := make([]GateTemplate, 0, len(rc.GateList))
	gateSet := make(map[string]struct{}, len(rc.GateList))
	for _, g := range rc.GateList {
		if g.Rank == "" {
			return nil, fmt.Errorf("config file %s: gate entry missing 'rank'", path)
		}
		rank := strings.ToUpper(strings.TrimSpace(g.Rank))
		if _, exists := gateSet[rank]; exists {
			return nil, fmt.Errorf("config file %s: duplicate gate rank '%s'", path, g.Rank)
		}
		gateSet[rank] = struct{}{}
		if len(g.Enemies) == 0 {
			return nil, fmt.Errorf("config file %s: gate '%s' has no enemies", path, g.Rank)
		}
		enemies := make([]BossTemplate, 0, len(g.Enemies))
		for i, e := range g.Enemies {
			el, err := parseElement(path, g.Rank, e.Element)
			if err != nil {
				return nil, err
			}
			enemies = append(enemies, BossTemplate{
				ID:        fmt.Sprintf("gate-%s-%d", strings.ToLower(rank), i),
				Name:      e.Name,
				Element:   el,
				Level:     e.Level,
				HitPoints: e.HitPoints,
				Attack:    e.Attack,
				Defense:   e.Defense,
			})
		}
		gates = append(gates, GateTemplate{Rank: rank, Name: g.Name, Enemies: enemies})
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	return &LoadedConfig{
		Heroes:        heroes,
		Items:         items,
		Skills:        skills,
		Bosses:        bosses,
		Gates:         gates,
		ServerAddress: addr,
	}, nil
}
