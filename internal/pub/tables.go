package pub

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ShopTrade is one buy/sell line of a shop. A price of 0 disables that side.
type ShopTrade struct {
	ItemID    int `yaml:"item_id"`
	BuyPrice  int `yaml:"buy_price"`
	SellPrice int `yaml:"sell_price"`
	MaxAmount int `yaml:"max_amount"`
}

// ShopCraftIngredient is one input of a craft recipe.
type ShopCraftIngredient struct {
	ItemID int `yaml:"item_id"`
	Amount int `yaml:"amount"`
}

// ShopCraft is one craftable output of a shop.
type ShopCraft struct {
	ItemID      int                   `yaml:"item_id"`
	Ingredients []ShopCraftIngredient `yaml:"ingredients"`
}

// Shop is one vendor's stock, keyed by the NPC record's VendorID.
type Shop struct {
	VendorID int         `yaml:"vendor_id"`
	Name     string      `yaml:"name"`
	Trades   []ShopTrade `yaml:"trades"`
	Crafts   []ShopCraft `yaml:"crafts"`
}

// Drop is one possible drop from an NPC.
type Drop struct {
	ItemID int `yaml:"item_id"`
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
	Chance int `yaml:"chance"` // out of 1,000,000
}

// TalkLines is an NPC's idle chatter.
type TalkLines struct {
	NpcID    int      `yaml:"npc_id"`
	Rate     int      `yaml:"rate"` // percent chance per act tick
	Messages []string `yaml:"messages"`
}

// InnQuestion is one citizenship quiz entry.
type InnQuestion struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Inn is one innkeeper's home definition.
type Inn struct {
	VendorID  int           `yaml:"vendor_id"`
	Name      string        `yaml:"name"`
	SpawnMap  int           `yaml:"spawn_map"`
	SpawnX    int           `yaml:"spawn_x"`
	SpawnY    int           `yaml:"spawn_y"`
	SleepMap  int           `yaml:"sleep_map"`
	SleepX    int           `yaml:"sleep_x"`
	SleepY    int           `yaml:"sleep_y"`
	Questions []InnQuestion `yaml:"questions"`
}

// MasterSkill is one spell a skill master sells.
type MasterSkill struct {
	SpellID  int `yaml:"spell_id"`
	LevelReq int `yaml:"level_req"`
	ClassReq int `yaml:"class_req"`
	Price    int `yaml:"price"`
	StrReq   int `yaml:"str_req"`
	IntReq   int `yaml:"int_req"`
	WisReq   int `yaml:"wis_req"`
	AgiReq   int `yaml:"agi_req"`
	ConReq   int `yaml:"con_req"`
	ChaReq   int `yaml:"cha_req"`
}

// Master is one skill master's offering.
type Master struct {
	VendorID int           `yaml:"vendor_id"`
	Name     string        `yaml:"name"`
	Skills   []MasterSkill `yaml:"skills"`
}

// Tables aggregates every static catalog.
type Tables struct {
	Items   map[int]*ItemRecord
	Npcs    map[int]*NpcRecord
	Classes map[int]*ClassRecord
	Spells  map[int]*SpellRecord

	Shops   map[int]*Shop      // by vendor id
	Drops   map[int][]Drop     // by npc id
	Talk    map[int]*TalkLines // by npc id
	Inns    map[int]*Inn       // by vendor id
	Masters map[int]*Master    // by vendor id
}

// Item returns the item record for id, or nil.
func (t *Tables) Item(id int) *ItemRecord { return t.Items[id] }

// Npc returns the NPC record for id, or nil.
func (t *Tables) Npc(id int) *NpcRecord { return t.Npcs[id] }

// Class returns the class record for id, or nil.
func (t *Tables) Class(id int) *ClassRecord { return t.Classes[id] }

// Spell returns the spell record for id, or nil.
func (t *Tables) Spell(id int) *SpellRecord { return t.Spells[id] }

// Load reads every catalog under dir. Record files are required; the YAML
// server tables fall back to empty tables when absent.
func Load(dir string) (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Items, err = LoadItems(filepath.Join(dir, "dat001.eif")); err != nil {
		return nil, err
	}
	if t.Npcs, err = LoadNpcs(filepath.Join(dir, "dtn001.enf")); err != nil {
		return nil, err
	}
	if t.Classes, err = LoadClasses(filepath.Join(dir, "dat001.ecf")); err != nil {
		return nil, err
	}
	if t.Spells, err = LoadSpells(filepath.Join(dir, "dsl001.esf")); err != nil {
		return nil, err
	}

	var shops struct {
		Shops []*Shop `yaml:"shops"`
	}
	if err := loadYAML(filepath.Join(dir, "shops.yaml"), &shops); err != nil {
		return nil, err
	}
	t.Shops = make(map[int]*Shop, len(shops.Shops))
	for _, s := range shops.Shops {
		t.Shops[s.VendorID] = s
	}

	var drops struct {
		Drops []struct {
			NpcID int    `yaml:"npc_id"`
			Items []Drop `yaml:"items"`
		} `yaml:"drops"`
	}
	if err := loadYAML(filepath.Join(dir, "drops.yaml"), &drops); err != nil {
		return nil, err
	}
	t.Drops = make(map[int][]Drop, len(drops.Drops))
	for _, d := range drops.Drops {
		t.Drops[d.NpcID] = d.Items
	}

	var talk struct {
		Talk []*TalkLines `yaml:"talk"`
	}
	if err := loadYAML(filepath.Join(dir, "talk.yaml"), &talk); err != nil {
		return nil, err
	}
	t.Talk = make(map[int]*TalkLines, len(talk.Talk))
	for _, l := range talk.Talk {
		t.Talk[l.NpcID] = l
	}

	var inns struct {
		Inns []*Inn `yaml:"inns"`
	}
	if err := loadYAML(filepath.Join(dir, "inns.yaml"), &inns); err != nil {
		return nil, err
	}
	t.Inns = make(map[int]*Inn, len(inns.Inns))
	for _, inn := range inns.Inns {
		t.Inns[inn.VendorID] = inn
	}

	var masters struct {
		Masters []*Master `yaml:"masters"`
	}
	if err := loadYAML(filepath.Join(dir, "masters.yaml"), &masters); err != nil {
		return nil, err
	}
	t.Masters = make(map[int]*Master, len(masters.Masters))
	for _, m := range masters.Masters {
		t.Masters[m.VendorID] = m
	}

	return t, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read table %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse table %s: %w", path, err)
	}
	return nil
}

// LoadMaps reads every numbered map file under dir. Map 0 (nirvana) has no
// file; the world creates it synthetically.
func LoadMaps(dir string) (map[int]*MapFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read map dir %s: %w", dir, err)
	}
	maps := make(map[int]*MapFile)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".emf" {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(e.Name(), "%d.emf", &id); err != nil {
			continue
		}
		m, err := LoadMap(filepath.Join(dir, e.Name()), id)
		if err != nil {
			return nil, err
		}
		maps[id] = m
	}
	return maps, nil
}
