package protocol

import "fmt"

// Family selects the gameplay subsystem a packet belongs to.
// Unknown codes are carried through as-is; String renders them as
// Unrecognized(n) instead of failing.
type Family byte

const (
	FamilyConnection    Family = 1
	FamilyAccount       Family = 2
	FamilyCharacter     Family = 3
	FamilyLogin         Family = 4
	FamilyWelcome       Family = 5
	FamilyWalk          Family = 6
	FamilyFace          Family = 7
	FamilyChair         Family = 8
	FamilyEmote         Family = 9
	FamilyAttack        Family = 11
	FamilySpell         Family = 12
	FamilyShop          Family = 13
	FamilyItem          Family = 14
	FamilyStatSkill     Family = 16
	FamilyGlobal        Family = 17
	FamilyTalk          Family = 18
	FamilyWarp          Family = 21
	FamilyJukebox       Family = 22
	FamilyPlayers       Family = 23
	FamilyAvatar        Family = 24
	FamilyParty         Family = 25
	FamilyRefresh       Family = 26
	FamilyNPC           Family = 27
	FamilyPlayerRange   Family = 28
	FamilyNPCRange      Family = 29
	FamilyRange         Family = 30
	FamilyPaperdoll     Family = 31
	FamilyEffect        Family = 32
	FamilyTrade         Family = 33
	FamilyChest         Family = 34
	FamilyDoor          Family = 35
	FamilyMessage       Family = 36
	FamilyBank          Family = 37
	FamilyLocker        Family = 38
	FamilyBarber        Family = 39
	FamilyGuild         Family = 40
	FamilyMusic         Family = 41
	FamilySit           Family = 42
	FamilyRecover       Family = 43
	FamilyBoard         Family = 44
	FamilyCast          Family = 45
	FamilyArena         Family = 47
	FamilyPriest        Family = 48
	FamilyMarriage      Family = 49
	FamilyAdminInteract Family = 50
	FamilyCitizen       Family = 51
	FamilyQuest         Family = 52
	FamilyBook          Family = 53
	FamilyInit          Family = 255
)

var familyNames = map[Family]string{
	FamilyConnection: "Connection", FamilyAccount: "Account",
	FamilyCharacter: "Character", FamilyLogin: "Login", FamilyWelcome: "Welcome",
	FamilyWalk: "Walk", FamilyFace: "Face", FamilyChair: "Chair",
	FamilyEmote: "Emote", FamilyAttack: "Attack", FamilySpell: "Spell",
	FamilyShop: "Shop", FamilyItem: "Item", FamilyStatSkill: "StatSkill",
	FamilyGlobal: "Global", FamilyTalk: "Talk", FamilyWarp: "Warp",
	FamilyJukebox: "Jukebox", FamilyPlayers: "Players", FamilyAvatar: "Avatar",
	FamilyParty: "Party", FamilyRefresh: "Refresh", FamilyNPC: "NPC",
	FamilyPlayerRange: "PlayerRange", FamilyNPCRange: "NPCRange",
	FamilyRange: "Range", FamilyPaperdoll: "Paperdoll", FamilyEffect: "Effect",
	FamilyTrade: "Trade", FamilyChest: "Chest", FamilyDoor: "Door",
	FamilyMessage: "Message", FamilyBank: "Bank", FamilyLocker: "Locker",
	FamilyBarber: "Barber", FamilyGuild: "Guild", FamilyMusic: "Music",
	FamilySit: "Sit", FamilyRecover: "Recover", FamilyBoard: "Board",
	FamilyCast: "Cast", FamilyArena: "Arena", FamilyPriest: "Priest",
	FamilyMarriage: "Marriage", FamilyAdminInteract: "AdminInteract",
	FamilyCitizen: "Citizen", FamilyQuest: "Quest", FamilyBook: "Book",
	FamilyInit: "Init",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Unrecognized(%d)", byte(f))
}

// Action selects the operation within a family.
type Action byte

const (
	ActionRequest Action = 1
	ActionAccept  Action = 2
	ActionReply   Action = 3
	ActionRemove  Action = 4
	ActionAgree   Action = 5
	ActionCreate  Action = 6
	ActionAdd     Action = 7
	ActionPlayer  Action = 8
	ActionTake    Action = 9
	ActionUse     Action = 10
	ActionBuy     Action = 11
	ActionSell    Action = 12
	ActionOpen    Action = 13
	ActionClose   Action = 14
	ActionMsg     Action = 15
	ActionSpec    Action = 16
	ActionAdmin   Action = 17
	ActionList    Action = 18
	ActionTell    Action = 20
	ActionReport  Action = 21
	ActionAnnounce Action = 22
	ActionServer  Action = 23
	ActionDrop    Action = 24
	ActionJunk    Action = 25
	ActionObtain  Action = 26
	ActionGet     Action = 27
	ActionKick    Action = 28
	ActionRank    Action = 29
	ActionTargetSelf  Action = 30
	ActionTargetOther Action = 31
	ActionTargetGroup Action = 33
	ActionDialog      Action = 34
	ActionPing    Action = 240
	ActionPong    Action = 241
	ActionNet242  Action = 242
	ActionNet243  Action = 243
	ActionNet244  Action = 244
	ActionError   Action = 250
	ActionInit    Action = 255
)

var actionNames = map[Action]string{
	ActionRequest: "Request", ActionAccept: "Accept", ActionReply: "Reply",
	ActionRemove: "Remove", ActionAgree: "Agree", ActionCreate: "Create",
	ActionAdd: "Add", ActionPlayer: "Player", ActionTake: "Take",
	ActionUse: "Use", ActionBuy: "Buy", ActionSell: "Sell",
	ActionOpen: "Open", ActionClose: "Close", ActionMsg: "Msg",
	ActionSpec: "Spec", ActionAdmin: "Admin", ActionList: "List",
	ActionTell: "Tell", ActionReport: "Report", ActionAnnounce: "Announce",
	ActionServer: "Server", ActionDrop: "Drop", ActionJunk: "Junk",
	ActionObtain: "Obtain", ActionGet: "Get", ActionKick: "Kick",
	ActionRank: "Rank", ActionTargetSelf: "TargetSelf",
	ActionTargetOther: "TargetOther", ActionTargetGroup: "TargetGroup",
	ActionDialog: "Dialog", ActionPing: "Ping", ActionPong: "Pong",
	ActionNet242: "Net242", ActionNet243: "Net243", ActionNet244: "Net244",
	ActionError: "Error", ActionInit: "Init",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Unrecognized(%d)", byte(a))
}
