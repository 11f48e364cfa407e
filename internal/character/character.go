// Package character holds the in-memory character model. A character lives
// inside exactly one map actor while in world and migrates by value through
// the nirvana hop during cross-map warp; it is written back to SQL on save.
package character

import (
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

// GoldItemID is the currency item id.
const GoldItemID = 1

// Direction is the facing of a character or NPC.
type Direction int

const (
	DirDown Direction = iota
	DirLeft
	DirUp
	DirRight
)

// Offset returns the tile delta for one step in the direction.
func (d Direction) Offset() (int, int) {
	switch d {
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirUp:
		return 0, -1
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// Gender of a character.
type Gender int

const (
	GenderFemale Gender = iota
	GenderMale
)

// AdminLevel gates admin-only packet families.
type AdminLevel int

const (
	AdminPlayer AdminLevel = iota
	AdminSpy
	AdminLight
	AdminGuardian
	AdminGM
	AdminHGM
)

// SitState is the character's current posture.
type SitState int

const (
	Standing SitState = iota
	SitChair
	SitFloor
)

// Item is one inventory, bank or trade line.
type Item struct {
	ID     int
	Amount int
}

// Spell is one learned spell.
type Spell struct {
	ID    int
	Level int
}

// Paperdoll equipment slots.
const (
	EquipBoots = iota
	EquipAccessory
	EquipGloves
	EquipBelt
	EquipArmor
	EquipNecklace
	EquipHat
	EquipShield
	EquipWeapon
	EquipRing1
	EquipRing2
	EquipArmlet1
	EquipArmlet2
	EquipBracer1
	EquipBracer2
	EquipSlots
)

// PlayerConn is the handle a character keeps to its player actor. It is a
// cheap clonable reference, not ownership; every method is safe to call from
// any actor goroutine.
type PlayerConn interface {
	PlayerID() int
	Send(w *protocol.Writer)
	SendBuf(buf []byte)
	Close(reason string)
}

// Character is the full in-memory character state.
type Character struct {
	ID        int
	AccountID int
	Name      string
	Title     string
	Home      string
	Fiance    string
	Partner   string

	Admin  AdminLevel
	Class  int
	Gender Gender
	Skin   int
	HairStyle int
	HairColor int

	Level int
	Exp   int

	HP    int
	MaxHP int
	TP    int
	MaxTP int
	SP    int
	MaxSP int

	StatPoints  int
	SkillPoints int
	Karma       int
	Usage       int // minutes played

	// Base stats; Calc* derivations add equipment bonuses.
	Str int
	Int int
	Wis int
	Agi int
	Con int
	Cha int

	AdjStr int
	AdjInt int
	AdjWis int
	AdjAgi int
	AdjCon int
	AdjCha int

	MinDam    int
	MaxDam    int
	Accuracy  int
	Evade     int
	Armor     int
	MaxWeight int

	Paperdoll [EquipSlots]int
	Items     []Item
	Spells    []Spell

	Bank      []Item
	BankLevel int
	GoldBank  int

	GuildTag      string
	GuildName     string
	GuildRank     int
	GuildRankStr  string

	HomeMap    int
	HomeCoords pub.Coords

	MapID  int
	Coords pub.Coords
	Direction Direction

	Sit        SitState
	Hidden     bool
	GhostTicks int

	AutoPickup []int

	// Trade state is mirrored on both partners while a trade window is open.
	TradeItems    []Item
	Trading       bool
	TradeAccepted bool

	// Interaction handles, valid only while the character is on a map.
	InteractPlayerID int // trade/marriage partner player id, 0 = none
	InteractNpcIndex int // NPC the character has a dialog open with, -1 = none
	ChestAt          *pub.Coords // chest coords while a chest window is open
	BoardIndex       int         // board id while a board is open, 0 = none

	LastWalk int64 // unix millis of last accepted walk (anti-speed)

	Conn PlayerConn
}

// Clone deep-copies the character for handoff to a save worker, so the
// owning map actor can keep mutating the original.
func (c *Character) Clone() *Character {
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	cp.Spells = append([]Spell(nil), c.Spells...)
	cp.Bank = append([]Item(nil), c.Bank...)
	cp.TradeItems = append([]Item(nil), c.TradeItems...)
	cp.AutoPickup = append([]int(nil), c.AutoPickup...)
	if c.ChestAt != nil {
		at := *c.ChestAt
		cp.ChestAt = &at
	}
	return &cp
}

// PlayerID returns the owning connection's player id, or 0 when detached.
func (c *Character) PlayerID() int {
	if c.Conn == nil {
		return 0
	}
	return c.Conn.PlayerID()
}

// CalcStats recomputes adjusted stats and combat numbers from base stats,
// class and paperdoll. Call after login, level-up, equip and unequip.
func (c *Character) CalcStats(t *pub.Tables) {
	c.AdjStr, c.AdjInt, c.AdjWis = c.Str, c.Int, c.Wis
	c.AdjAgi, c.AdjCon, c.AdjCha = c.Agi, c.Con, c.Cha
	c.MinDam, c.MaxDam = 0, 0
	c.Accuracy, c.Evade, c.Armor = 0, 0, 0

	for _, id := range c.Paperdoll {
		if id == 0 {
			continue
		}
		rec := t.Item(id)
		if rec == nil {
			continue
		}
		c.AdjStr += rec.Str
		c.AdjInt += rec.Int
		c.AdjWis += rec.Wis
		c.AdjAgi += rec.Agi
		c.AdjCon += rec.Con
		c.AdjCha += rec.Cha
		c.MinDam += rec.MinDam
		c.MaxDam += rec.MaxDam
		c.Accuracy += rec.Accuracy
		c.Evade += rec.Evade
		c.Armor += rec.Armor
	}

	if cls := t.Class(c.Class); cls != nil {
		c.AdjStr += cls.Str
		c.AdjInt += cls.Int
		c.AdjWis += cls.Wis
		c.AdjAgi += cls.Agi
		c.AdjCon += cls.Con
		c.AdjCha += cls.Cha
	}

	c.MaxHP = 10 + c.Level*3 + c.AdjCon*2
	c.MaxTP = 10 + c.Level*2 + c.AdjWis + c.AdjInt
	c.MaxSP = 20 + c.Level*2
	c.MaxWeight = 70 + c.AdjStr
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	if c.TP > c.MaxTP {
		c.TP = c.MaxTP
	}

	if c.MinDam == 0 {
		c.MinDam = 1
	}
	if c.MaxDam == 0 {
		c.MaxDam = 1
	}
}

// InRangeOf reports whether the observer at c sees target per the range
// predicate: Manhattan distance, with the bound extended by 3 when the
// observer is not to the lower-right of the target (tiles draw upward-right
// on the client).
func InRangeOf(observer, target pub.Coords, base int) bool {
	dx := observer.X - target.X
	dy := observer.Y - target.Y
	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	d := adx + ady
	if dx >= 0 && dy >= 0 {
		return d <= base
	}
	return d <= base+3
}

// Server/client range bounds for the asymmetric in-range predicate.
const (
	RangeServer = 12
	RangeClient = 11
)

// InRange is the server-side observer predicate.
func InRange(observer, target pub.Coords) bool {
	return InRangeOf(observer, target, RangeServer)
}

// InClientRange is the tighter bound used for client-relevant broadcasts.
func InClientRange(observer, target pub.Coords) bool {
	return InRangeOf(observer, target, RangeClient)
}

// Distance is the plain Manhattan distance between two tiles.
func Distance(a, b pub.Coords) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
