// Package pub loads the static game catalogs: binary record files for items,
// NPCs, classes and spells, binary map files, and YAML server tables for
// shops, drops, talk lines, inns and skill masters. Every table is loaded
// once at startup and treated as immutable afterwards.
package pub

// ItemType classifies an item record.
type ItemType int

const (
	ItemStatic ItemType = iota
	ItemMoney
	ItemHeal
	ItemTeleport
	ItemSpell
	ItemExpReward
	ItemStatReward
	ItemKey
	ItemWeapon
	ItemShield
	ItemArmor
	ItemHat
	ItemBoots
	ItemGloves
	ItemAccessory
	ItemBelt
	ItemNecklace
	ItemRing
	ItemArmlet
	ItemBracer
	ItemBeer
	ItemEffectPotion
	ItemHairDye
	ItemCureCurse
)

// ItemSpecial marks rarity flags that gate drop/junk/trade.
type ItemSpecial int

const (
	SpecialNormal ItemSpecial = iota
	SpecialRare
	SpecialUnique // at most one in inventory
	SpecialLore   // cannot be dropped or traded
	SpecialCursed
)

// ItemRecord is one row of the item catalog.
type ItemRecord struct {
	ID      int
	Name    string
	Graphic int
	Type    ItemType
	SubType int
	Special ItemSpecial

	HP       int
	TP       int
	MinDam   int
	MaxDam   int
	Accuracy int
	Evade    int
	Armor    int

	Str int
	Int int
	Wis int
	Agi int
	Con int
	Cha int

	// Spec1 carries the key id for key items, the spell id for scrolls,
	// the warp map for teleport items.
	Spec1 int
	Spec2 int
	Spec3 int

	LevelReq int
	ClassReq int
	Weight   int
	Size     int
}

// NpcType classifies an NPC record's behaviour and dialog family.
type NpcType int

const (
	NpcFriendly NpcType = iota
	NpcPassive
	NpcAggressive
	NpcShop
	NpcInn
	NpcBank
	NpcBarber
	NpcGuildMaster
	NpcPriest
	NpcLawyer
	NpcSkillMaster
	NpcQuest
)

// NpcRecord is one row of the NPC catalog.
type NpcRecord struct {
	ID      int
	Name    string
	Graphic int
	Type    NpcType
	Boss    bool
	Child   bool

	// VendorID links shop/inn/master NPCs to their YAML table entries.
	VendorID int

	HP       int
	Exp      int
	MinDam   int
	MaxDam   int
	Accuracy int
	Evade    int
	Armor    int
}

// ClassRecord is one row of the class catalog.
type ClassRecord struct {
	ID   int
	Name string

	Parent    int
	StatGroup int

	Str int
	Int int
	Wis int
	Agi int
	Con int
	Cha int
}

// SpellTargetRestrict gates who a spell may target.
type SpellTargetRestrict int

const (
	TargetRestrictNPCOnly SpellTargetRestrict = iota
	TargetRestrictFriendly
	TargetRestrictOpponent
)

// SpellType classifies a spell record.
type SpellType int

const (
	SpellHeal SpellType = iota
	SpellDamage
	SpellBard
)

// SpellTarget selects the cast targeting mode.
type SpellTarget int

const (
	SpellTargetNormal SpellTarget = iota
	SpellTargetSelf
	SpellTargetUnused
	SpellTargetGroup
)

// SpellRecord is one row of the spell catalog.
type SpellRecord struct {
	ID      int
	Name    string
	Chant   string
	Icon    int
	Graphic int

	TPCost   int
	SPCost   int
	CastTime int

	Type           SpellType
	TargetRestrict SpellTargetRestrict
	Target         SpellTarget

	MinDam   int
	MaxDam   int
	Accuracy int
	HP       int
}
