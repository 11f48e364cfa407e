package handler

import (
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
)

func (d *Deps) registerInteract(reg *protocol.Registry) {
	playing(reg, protocol.FamilyDoor, protocol.ActionOpen, d.handleDoorOpen)

	playing(reg, protocol.FamilyChest, protocol.ActionOpen, d.handleChestOpen)
	playing(reg, protocol.FamilyChest, protocol.ActionTake, d.handleChestTake)
	playing(reg, protocol.FamilyChest, protocol.ActionAdd, d.handleChestAdd)
	playing(reg, protocol.FamilyChest, protocol.ActionClose, d.handleChestClose)

	playing(reg, protocol.FamilyLocker, protocol.ActionOpen, d.handleLockerOpen)
	playing(reg, protocol.FamilyLocker, protocol.ActionAdd, d.handleLockerAdd)
	playing(reg, protocol.FamilyLocker, protocol.ActionTake, d.handleLockerTake)
	playing(reg, protocol.FamilyLocker, protocol.ActionBuy, d.handleLockerUpgrade)

	playing(reg, protocol.FamilyJukebox, protocol.ActionOpen, d.handleJukeboxOpen)
	playing(reg, protocol.FamilyJukebox, protocol.ActionMsg, d.handleJukeboxPlay)

	playing(reg, protocol.FamilyBoard, protocol.ActionOpen, d.handleBoardOpen)

	playing(reg, protocol.FamilyPriest, protocol.ActionRequest, d.handlePriestRequest)
	playing(reg, protocol.FamilyPriest, protocol.ActionAccept, d.handlePriestAccept)
	playing(reg, protocol.FamilyPriest, protocol.ActionUse, d.handlePriestVow)
	playing(reg, protocol.FamilyMarriage, protocol.ActionRequest, d.handleMarriageRequest)
}

func (d *Deps) handleDoorOpen(p *player.Player, r *protocol.Reader) {
	x := r.GetChar()
	y := r.GetChar()
	p.MapHandle.OpenDoor(p.PlayerID(), pub.Coords{X: x, Y: y})
}

func (d *Deps) handleChestOpen(p *player.Player, r *protocol.Reader) {
	x := r.GetChar()
	y := r.GetChar()
	p.MapHandle.OpenChest(p.PlayerID(), pub.Coords{X: x, Y: y})
}

func (d *Deps) handleChestTake(p *player.Player, r *protocol.Reader) {
	p.MapHandle.TakeChestItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleChestAdd(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetThree()
	p.MapHandle.AddChestItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleChestClose(p *player.Player, r *protocol.Reader) {
	p.MapHandle.CloseChest(p.PlayerID())
}

func (d *Deps) handleLockerOpen(p *player.Player, r *protocol.Reader) {
	x := r.GetChar()
	y := r.GetChar()
	p.MapHandle.OpenLocker(p.PlayerID(), pub.Coords{X: x, Y: y})
}

func (d *Deps) handleLockerAdd(p *player.Player, r *protocol.Reader) {
	itemID := r.GetShort()
	amount := r.GetThree()
	p.MapHandle.AddLockerItem(p.PlayerID(), itemID, amount)
}

func (d *Deps) handleLockerTake(p *player.Player, r *protocol.Reader) {
	p.MapHandle.TakeLockerItem(p.PlayerID(), r.GetShort())
}

func (d *Deps) handleLockerUpgrade(p *player.Player, r *protocol.Reader) {
	p.MapHandle.UpgradeLocker(p.PlayerID())
}

func (d *Deps) handleJukeboxOpen(p *player.Player, r *protocol.Reader) {
	x := r.GetChar()
	y := r.GetChar()
	p.MapHandle.OpenJukebox(p.PlayerID(), pub.Coords{X: x, Y: y})
}

func (d *Deps) handleJukeboxPlay(p *player.Player, r *protocol.Reader) {
	p.MapHandle.PlayJukebox(p.PlayerID(), r.GetShort())
}

// handleBoardOpen answers every board with an empty listing; message boards
// store nothing server-side yet.
func (d *Deps) handleBoardOpen(p *player.Player, r *protocol.Reader) {
	boardID := r.GetChar()
	w := protocol.NewWriter(protocol.ActionOpen, protocol.FamilyBoard)
	w.AddChar(boardID)
	w.AddChar(0)
	p.Send(w)
}

func (d *Deps) handlePriestRequest(p *player.Player, r *protocol.Reader) {
	r.SetChunked(true)
	r.NextChunk()
	partner := r.GetString()
	if partner == "" {
		return
	}
	p.MapHandle.RequestWedding(p.PlayerID(), partner)
}

func (d *Deps) handlePriestAccept(p *player.Player, r *protocol.Reader) {
	p.MapHandle.AcceptWedding(p.PlayerID())
}

func (d *Deps) handlePriestVow(p *player.Player, r *protocol.Reader) {
	p.MapHandle.SayIDo(p.PlayerID())
}

// handleMarriageRequest covers the lawyer dialog: approval papers or a
// divorce, selected by the request type byte.
func (d *Deps) handleMarriageRequest(p *player.Player, r *protocol.Reader) {
	const (
		requestApproval = 1
		requestDivorce  = 2
	)
	switch r.GetChar() {
	case requestApproval:
		r.SetChunked(true)
		r.NextChunk()
		partner := r.GetString()
		if partner == "" {
			return
		}
		p.MapHandle.RequestEngagement(p.PlayerID(), partner)
	case requestDivorce:
		p.MapHandle.RequestDivorce(p.PlayerID())
	}
}
