package pub

import (
	"fmt"
	"os"

	"github.com/telgard/server/internal/protocol"
)

// Binary record files share one layout: a 3-byte magic tag, a 4-byte
// revision, a 2-byte record count, then per record a length-prefixed name
// followed by a fixed block of pair-encoded fields. The encoding matches the
// wire codec, so a client can verify its local copy against the server's.

type recordReader struct {
	data []byte
	off  int
}

func (r *recordReader) char() int {
	v := protocol.DecodeNumber(r.bytes(1)...)
	return v
}

func (r *recordReader) short() int {
	return protocol.DecodeNumber(r.bytes(2)...)
}

func (r *recordReader) three() int {
	return protocol.DecodeNumber(r.bytes(3)...)
}

func (r *recordReader) bytes(n int) []byte {
	end := r.off + n
	if end > len(r.data) {
		end = len(r.data)
	}
	b := r.data[r.off:end]
	r.off = end
	return b
}

func (r *recordReader) name() string {
	n := r.char()
	return string(r.bytes(n))
}

func (r *recordReader) remaining() int {
	return len(r.data) - r.off
}

func openRecords(path, magic string) (*recordReader, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read pub file %s: %w", path, err)
	}
	r := &recordReader{data: data}
	if got := string(r.bytes(3)); got != magic {
		return nil, 0, fmt.Errorf("pub file %s: bad magic %q, want %q", path, got, magic)
	}
	r.bytes(4) // revision, unchecked
	count := r.short()
	return r, count, nil
}

// LoadItems parses an EIF item catalog.
func LoadItems(path string) (map[int]*ItemRecord, error) {
	r, count, err := openRecords(path, "EIF")
	if err != nil {
		return nil, err
	}
	items := make(map[int]*ItemRecord, count)
	for id := 1; id <= count && r.remaining() > 0; id++ {
		rec := &ItemRecord{ID: id}
		rec.Name = r.name()
		rec.Graphic = r.short()
		rec.Type = ItemType(r.char())
		rec.SubType = r.char()
		rec.Special = ItemSpecial(r.char())
		rec.HP = r.short()
		rec.TP = r.short()
		rec.MinDam = r.short()
		rec.MaxDam = r.short()
		rec.Accuracy = r.short()
		rec.Evade = r.short()
		rec.Armor = r.short()
		rec.Str = r.char()
		rec.Int = r.char()
		rec.Wis = r.char()
		rec.Agi = r.char()
		rec.Con = r.char()
		rec.Cha = r.char()
		rec.Spec1 = r.three()
		rec.Spec2 = r.char()
		rec.Spec3 = r.char()
		rec.LevelReq = r.short()
		rec.ClassReq = r.short()
		rec.Weight = r.char()
		rec.Size = r.char()
		items[id] = rec
	}
	return items, nil
}

// LoadNpcs parses an ENF NPC catalog.
func LoadNpcs(path string) (map[int]*NpcRecord, error) {
	r, count, err := openRecords(path, "ENF")
	if err != nil {
		return nil, err
	}
	npcs := make(map[int]*NpcRecord, count)
	for id := 1; id <= count && r.remaining() > 0; id++ {
		rec := &NpcRecord{ID: id}
		rec.Name = r.name()
		rec.Graphic = r.short()
		rec.Type = NpcType(r.char())
		rec.Boss = r.char() != 0
		rec.Child = r.char() != 0
		rec.VendorID = r.short()
		rec.HP = r.three()
		rec.Exp = r.three()
		rec.MinDam = r.short()
		rec.MaxDam = r.short()
		rec.Accuracy = r.short()
		rec.Evade = r.short()
		rec.Armor = r.short()
		npcs[id] = rec
	}
	return npcs, nil
}

// LoadClasses parses an ECF class catalog.
func LoadClasses(path string) (map[int]*ClassRecord, error) {
	r, count, err := openRecords(path, "ECF")
	if err != nil {
		return nil, err
	}
	classes := make(map[int]*ClassRecord, count)
	for id := 1; id <= count && r.remaining() > 0; id++ {
		rec := &ClassRecord{ID: id}
		rec.Name = r.name()
		rec.Parent = r.char()
		rec.StatGroup = r.char()
		rec.Str = r.char()
		rec.Int = r.char()
		rec.Wis = r.char()
		rec.Agi = r.char()
		rec.Con = r.char()
		rec.Cha = r.char()
		classes[id] = rec
	}
	return classes, nil
}

// LoadSpells parses an ESF spell catalog.
func LoadSpells(path string) (map[int]*SpellRecord, error) {
	r, count, err := openRecords(path, "ESF")
	if err != nil {
		return nil, err
	}
	spells := make(map[int]*SpellRecord, count)
	for id := 1; id <= count && r.remaining() > 0; id++ {
		rec := &SpellRecord{ID: id}
		rec.Name = r.name()
		rec.Chant = r.name()
		rec.Icon = r.short()
		rec.Graphic = r.short()
		rec.TPCost = r.short()
		rec.SPCost = r.short()
		rec.CastTime = r.char()
		rec.Type = SpellType(r.char())
		rec.TargetRestrict = SpellTargetRestrict(r.char())
		rec.Target = SpellTarget(r.char())
		rec.MinDam = r.short()
		rec.MaxDam = r.short()
		rec.Accuracy = r.short()
		rec.HP = r.short()
		spells[id] = rec
	}
	return spells, nil
}
