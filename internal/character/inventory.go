package character

import "github.com/telgard/server/internal/pub"

// ItemAmount returns how many of item id the character holds.
func (c *Character) ItemAmount(id int) int {
	for _, it := range c.Items {
		if it.ID == id {
			return it.Amount
		}
	}
	return 0
}

// HasItem reports whether the character holds at least one of item id.
func (c *Character) HasItem(id int) bool {
	return c.ItemAmount(id) > 0
}

// Gold returns the carried gold amount.
func (c *Character) Gold() int {
	return c.ItemAmount(GoldItemID)
}

// AddItem adds amount of id, clamped to the per-item stack cap. Returns the
// amount actually added.
func (c *Character) AddItem(id, amount, maxItem int) int {
	if amount <= 0 || id <= 0 {
		return 0
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			room := maxItem - c.Items[i].Amount
			if room <= 0 {
				return 0
			}
			if amount > room {
				amount = room
			}
			c.Items[i].Amount += amount
			return amount
		}
	}
	if amount > maxItem {
		amount = maxItem
	}
	c.Items = append(c.Items, Item{ID: id, Amount: amount})
	return amount
}

// RemoveItem removes up to amount of id; returns the amount removed.
func (c *Character) RemoveItem(id, amount int) int {
	if amount <= 0 {
		return 0
	}
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}
		if amount >= c.Items[i].Amount {
			removed := c.Items[i].Amount
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return removed
		}
		c.Items[i].Amount -= amount
		return amount
	}
	return 0
}

// Weight returns the carried weight including the paperdoll.
func (c *Character) Weight(t *pub.Tables) int {
	w := 0
	for _, it := range c.Items {
		if rec := t.Item(it.ID); rec != nil {
			w += rec.Weight * it.Amount
		}
	}
	for _, id := range c.Paperdoll {
		if id == 0 {
			continue
		}
		if rec := t.Item(id); rec != nil {
			w += rec.Weight
		}
	}
	return w
}

// CanHold reports whether amount of id fits under the weight cap.
func (c *Character) CanHold(t *pub.Tables, id, amount int) bool {
	rec := t.Item(id)
	if rec == nil {
		return false
	}
	return c.Weight(t)+rec.Weight*amount <= c.MaxWeight
}

// Equipped reports whether item id occupies any paperdoll slot.
func (c *Character) Equipped(id int) bool {
	for _, e := range c.Paperdoll {
		if e == id && id != 0 {
			return true
		}
	}
	return false
}

// EquipSlotFor picks the paperdoll slot for an item type, preferring the
// first free slot for paired jewelry. Returns -1 for non-equippable types.
func (c *Character) EquipSlotFor(rec *pub.ItemRecord) int {
	switch rec.Type {
	case pub.ItemWeapon:
		return EquipWeapon
	case pub.ItemShield:
		return EquipShield
	case pub.ItemArmor:
		return EquipArmor
	case pub.ItemHat:
		return EquipHat
	case pub.ItemBoots:
		return EquipBoots
	case pub.ItemGloves:
		return EquipGloves
	case pub.ItemAccessory:
		return EquipAccessory
	case pub.ItemBelt:
		return EquipBelt
	case pub.ItemNecklace:
		return EquipNecklace
	case pub.ItemRing:
		if c.Paperdoll[EquipRing1] == 0 {
			return EquipRing1
		}
		return EquipRing2
	case pub.ItemArmlet:
		if c.Paperdoll[EquipArmlet1] == 0 {
			return EquipArmlet1
		}
		return EquipArmlet2
	case pub.ItemBracer:
		if c.Paperdoll[EquipBracer1] == 0 {
			return EquipBracer1
		}
		return EquipBracer2
	}
	return -1
}

// HasSpell reports whether the spell is in the character's book.
func (c *Character) HasSpell(id int) bool {
	for _, s := range c.Spells {
		if s.ID == id {
			return true
		}
	}
	return false
}

// AddSpell adds a spell at level 0 if not yet known.
func (c *Character) AddSpell(id int) bool {
	if c.HasSpell(id) {
		return false
	}
	c.Spells = append(c.Spells, Spell{ID: id})
	return true
}

// TradeOffer returns the offered amount of id in the open trade.
func (c *Character) TradeOffer(id int) int {
	for _, it := range c.TradeItems {
		if it.ID == id {
			return it.Amount
		}
	}
	return 0
}

// ResetTrade clears all trade state on the character.
func (c *Character) ResetTrade() {
	c.TradeItems = nil
	c.Trading = false
	c.TradeAccepted = false
}

// WantsPickup reports whether item id is on the auto-pickup list.
func (c *Character) WantsPickup(id int) bool {
	for _, v := range c.AutoPickup {
		if v == id {
			return true
		}
	}
	return false
}

// BankAdd deposits amount of id into the locker; bankSize caps the number of
// distinct lines. Returns the amount deposited.
func (c *Character) BankAdd(id, amount, maxItem, bankSize int) int {
	if amount <= 0 {
		return 0
	}
	for i := range c.Bank {
		if c.Bank[i].ID == id {
			room := maxItem - c.Bank[i].Amount
			if room <= 0 {
				return 0
			}
			if amount > room {
				amount = room
			}
			c.Bank[i].Amount += amount
			return amount
		}
	}
	if len(c.Bank) >= bankSize {
		return 0
	}
	if amount > maxItem {
		amount = maxItem
	}
	c.Bank = append(c.Bank, Item{ID: id, Amount: amount})
	return amount
}

// BankRemove withdraws up to amount of id from the locker.
func (c *Character) BankRemove(id, amount int) int {
	if amount <= 0 {
		return 0
	}
	for i := range c.Bank {
		if c.Bank[i].ID != id {
			continue
		}
		if amount >= c.Bank[i].Amount {
			removed := c.Bank[i].Amount
			c.Bank = append(c.Bank[:i], c.Bank[i+1:]...)
			return removed
		}
		c.Bank[i].Amount -= amount
		return amount
	}
	return 0
}
