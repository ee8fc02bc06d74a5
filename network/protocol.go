package network

const (
	MsgTypeHeartbeat = 1

	// client -> server
	MsgTypeCreateRoom       = 101
	MsgTypeJoinRoom         = 102
	MsgTypeStartGame        = 103
	MsgTypeSubmitVote       = 201
	MsgTypeNightAction      = 202
	MsgTypeChatMessage      = 203
	MsgTypeMafiaChatMessage = 204

	// server -> client
	MsgTypeRoomCreated     = 111
	MsgTypeJoinedRoom      = 112
	MsgTypeUpdatePlayers   = 301
	MsgTypeGameStarted     = 302
	MsgTypeRoleAssigned    = 303
	MsgTypeDetectiveResult = 304
	MsgTypePhaseChanged    = 305
	MsgTypeGameOver        = 306
	MsgTypeError           = 500
)

var eventNames = map[uint16]string{
	MsgTypeHeartbeat:        "heartbeat",
	MsgTypeCreateRoom:       "create-room",
	MsgTypeJoinRoom:         "join-room",
	MsgTypeStartGame:        "start-game",
	MsgTypeSubmitVote:       "submit-vote",
	MsgTypeNightAction:      "night-action",
	MsgTypeChatMessage:      "chat-message",
	MsgTypeMafiaChatMessage: "mafia-chat-message",
	MsgTypeRoomCreated:      "room-created",
	MsgTypeJoinedRoom:       "joined-room",
	MsgTypeUpdatePlayers:    "update-players",
	MsgTypeGameStarted:      "game-started",
	MsgTypeRoleAssigned:     "role-assigned",
	MsgTypeDetectiveResult:  "detective-result",
	MsgTypePhaseChanged:     "phase-changed",
	MsgTypeGameOver:         "game-over",
	MsgTypeError:            "error",
}

// EventName returns the event name of a message id, for logging.
func EventName(msgID uint16) string {
	if name, ok := eventNames[msgID]; ok {
		return name
	}
	return "unknown"
}
