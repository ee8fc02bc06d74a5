package game

import "errors"

// 请求被拒绝的原因, 只回复给发起者
var (
	ErrGameAlreadyStarted     = errors.New("game already started")
	ErrInsufficientPlayers    = errors.New("not enough players to start")
	ErrInvalidPhaseForAction  = errors.New("action not allowed in the current phase")
	ErrDeadPlayerAction       = errors.New("dead players cannot act")
	ErrRepeatProtectionTarget = errors.New("you protected this person last night, choose someone else")
	ErrNotMafia               = errors.New("you are not in the mafia")
	ErrGameEnded              = errors.New("game has ended")
	ErrInvalidTarget          = errors.New("invalid target")
	ErrNotInRoom              = errors.New("player is not in this room")
	ErrNoNightAction          = errors.New("your role has no night action")
	ErrAlreadyActed           = errors.New("you already acted this night")
	ErrRoomFull               = errors.New("room is full")
	ErrPlayerExists           = errors.New("player already in room")
	ErrRolesAssigned          = errors.New("roles already assigned")
	ErrRolePoolTooSmall       = errors.New("role pool smaller than player count")
)
