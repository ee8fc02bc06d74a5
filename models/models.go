// models/models.go
package models

import (
	"time"
)

// --- inbound payloads ---

// RoomSettings 创建房间时的可选设置
type RoomSettings struct {
	Name string `json:"name,omitempty"`
}

// JoinRoomRequest is the join-room payload.
type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name,omitempty"`
}

// RoomRequest carries only a room id (start-game).
type RoomRequest struct {
	RoomID string `json:"room_id"`
}

// TargetRequest is shared by submit-vote and night-action.
type TargetRequest struct {
	RoomID   string `json:"room_id"`
	TargetID string `json:"target_id"`
}

// ChatRequest is shared by chat-message and mafia-chat-message.
type ChatRequest struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

// --- outbound payloads ---

// RoomResponse answers room-created and joined-room.
type RoomResponse struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// PlayerInfo is one roster entry. Role is only filled when revealed.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	Role  string `json:"role,omitempty"`
}

// RoleAssignment is sent privately to each player at game start.
type RoleAssignment struct {
	Role string `json:"role"`
}

// ChatMessage is relayed to the whole room or to the mafia subset.
type ChatMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// DetectiveResult is the detective's private verdict.
type DetectiveResult struct {
	TargetID string `json:"target_id"`
	Verdict  string `json:"verdict"`
}

// PhaseChange announces entry into a new phase.
type PhaseChange struct {
	Phase      string `json:"phase"`
	Round      int    `json:"round"`
	DurationMs int64  `json:"duration_ms"`
}

// GameOver announces the winner with every role revealed.
type GameOver struct {
	Winner  string       `json:"winner"`
	Players []PlayerInfo `json:"players"`
}

// ErrorMessage is sent only to the player whose request failed.
type ErrorMessage struct {
	Message string `json:"message"`
}

// --- archive / admin ---

// GameRecord 一局结束后的存档
type GameRecord struct {
	RoomID    string       `json:"room_id"`
	Winner    string       `json:"winner"`
	Rounds    int          `json:"rounds"`
	Players   []PlayerInfo `json:"players"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at"`
}

// RoomSummary is the admin view of a live room.
type RoomSummary struct {
	RoomID    string    `json:"room_id"`
	Phase     string    `json:"phase"`
	Round     int       `json:"round"`
	Players   int       `json:"players"`
	Alive     int       `json:"alive"`
	CreatedAt time.Time `json:"created_at"`
}
