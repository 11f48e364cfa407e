package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
)

func (d *Deps) registerShops(reg *protocol.Registry) {
	playing(reg, protocol.FamilyShop, protocol.ActionOpen, d.handleNpcOpen)
	playing(reg, protocol.FamilyShop, protocol.ActionBuy, d.handleShopBuy)
	playing(reg, protocol.FamilyShop, protocol.ActionSell, d.handleShopSell)
	playing(reg, protocol.FamilyShop, protocol.ActionCreate, d.handleShopCraft)

	playing(reg, protocol.FamilyStatSkill, protocol.ActionOpen, d.handleNpcOpen)
	playing(reg, protocol.FamilyStatSkill, protocol.ActionTake, d.handleSkillLearn)

	playing(reg, protocol.FamilyBank, protocol.ActionOpen, d.handleNpcOpen)
	playing(reg, protocol.FamilyBank, protocol.ActionAdd, d.handleBankDeposit)
	playing(reg, protocol.FamilyBank, protocol.ActionTake, d.handleBankWithdraw)

	playing(reg, protocol.FamilyCitizen, protocol.ActionOpen, d.handleNpcOpen)
	playing(reg, protocol.FamilyCitizen, protocol.ActionReply, d.handleInnAnswers)
	playing(reg, protocol.FamilyCitizen, protocol.ActionUse, d.handleInnSleep)

	playing(reg, protocol.FamilyPriest, protocol.ActionOpen, d.handleNpcOpen)
	playing(reg, protocol.FamilyMarriage, protocol.ActionOpen, d.handleNpcOpen)
}

// handleNpcOpen starts an NPC dialog; the map actor picks the reply by the
// NPC's vendor type, so one handler serves every storefront family.
func (d *Deps) handleNpcOpen(p *player.Player, r *protocol.Reader) {
	p.MapHandle.OpenNpc(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleShopBuy(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetInt()
	p.MapHandle.BuyItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleShopSell(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetInt()
	p.MapHandle.SellItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleShopCraft(p *player.Player, r *protocol.Reader) {
	p.MapHandle.CraftItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleSkillLearn(p *player.Player, r *protocol.Reader) {
	p.MapHandle.LearnSkill(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleBankDeposit(p *player.Player, r *protocol.Reader) {
	p.MapHandle.DepositGold(p.PlayerID(), r.GetInt())
}

func (d *Deps) handleBankWithdraw(p *player.Player, r *protocol.Reader) {
	p.MapHandle.WithdrawGold(p.PlayerID(), r.GetInt())
}

func (d *Deps) handleInnAnswers(p *player.Player, r *protocol.Reader) {
	r.SetChunked(true)
	answers := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		answers = append(answers, r.GetString())
		r.NextChunk()
	}
	p.MapHandle.AnswerInn(p.PlayerID(), answers)
}

func (d *Deps) handleInnSleep(p *player.Player, r *protocol.Reader) {
	p.MapHandle.SleepInn(p.PlayerID())
}
