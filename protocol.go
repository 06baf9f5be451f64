package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreateRoom       = "game:createRoom"
	MsgJoinRoom         = "game:joinRoom"
	MsgPlaceDefense     = "game:placeDefense"
	MsgLaunchProjectile = "game:launchProjectile"
)

// Server -> Client message types
const (
	MsgTemplates        = "game:templates"
	MsgStart            = "game:start"
	MsgState            = "game:stateUpdate"
	MsgEnd              = "game:end"
	MsgPeerDisconnected = "game:playerDisconnected"
	MsgPeerReconnected  = "game:playerReconnected"
	MsgAbandoned        = "game:abandoned"
	MsgError            = "game:error"
)

// Snapshot status values
const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusEnded   = "ended"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Vec2 is a position in canonical coordinates
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Player is one of the two participants as reported by the server
type Player struct {
	ID           int64 `json:"id" msgpack:"id"`
	Resources    int   `json:"resources" msgpack:"resources"`
	CoreHP       int   `json:"coreHP" msgpack:"coreHP"`
	CorePosition Vec2  `json:"corePosition" msgpack:"corePosition"`
}

// Defense is a placed structure. The ID is server-assigned and unique for
// the lifetime of the match.
type Defense struct {
	ID       string  `json:"id" msgpack:"id"`
	Type     string  `json:"type" msgpack:"type"`
	PlayerID int64   `json:"playerId" msgpack:"playerId"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	HP       int     `json:"hp" msgpack:"hp"`
}

// Projectile is a transient attack object, created and destroyed entirely by
// the server. The client never infers projectile removal itself.
type Projectile struct {
	ID       string  `json:"id" msgpack:"id"`
	Type     string  `json:"type" msgpack:"type"`
	PlayerID int64   `json:"playerId" msgpack:"playerId"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	TargetX  float64 `json:"targetX" msgpack:"targetX"`
	TargetY  float64 `json:"targetY" msgpack:"targetY"`
}

// GameSnapshot is the full authoritative state pushed by the server. Each
// push replaces the previous snapshot wholesale; fields are never merged.
type GameSnapshot struct {
	Players     []Player     `json:"players" msgpack:"players"`
	Defenses    []Defense    `json:"defenses" msgpack:"defenses"`
	Projectiles []Projectile `json:"projectiles" msgpack:"projectiles"`
	Status      string       `json:"status" msgpack:"status"`
}

// PlayerByID returns the player with the given id, or nil.
func (s *GameSnapshot) PlayerByID(id int64) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// OpponentOf returns the other participant, or nil. Exactly two players
// exist once a match is active, so the result is unambiguous.
func (s *GameSnapshot) OpponentOf(id int64) *Player {
	for i := range s.Players {
		if s.Players[i].ID != id {
			return &s.Players[i]
		}
	}
	return nil
}

// TemplatesMsg parameterizes the client's affordability checks. Sent once at
// connect.
type TemplatesMsg struct {
	Defenses    []DefenseTemplate    `json:"defenses"`
	Projectiles []ProjectileTemplate `json:"projectiles"`
}

// StartMsg signals that the second player joined and the match begins
type StartMsg struct {
	RoomID string `json:"roomId"`
}

// EndMsg carries the winner of a finished match
type EndMsg struct {
	WinnerID int64 `json:"winnerId"`
}

// PeerMsg reports a transient peer disconnect or reconnect
type PeerMsg struct {
	PlayerID int64  `json:"playerId"`
	Reason   string `json:"reason,omitempty"`
}

// AbandonedMsg reports a match forfeited after the disconnect grace period
type AbandonedMsg struct {
	Reason   string `json:"reason"`
	WinnerID int64  `json:"winnerId"`
	LoserID  int64  `json:"loserId"`
}

// ErrorMsg carries a protocol-level error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CreateRoomMsg is the creator's room-entry intent
type CreateRoomMsg struct {
	RoomID string `json:"roomId"`
	UserID int64  `json:"userId"`
}

// JoinRoomMsg is the joiner's room-entry intent
type JoinRoomMsg struct {
	RoomID string `json:"roomId"`
	UserID int64  `json:"userId"`
}

// PlaceDefenseMsg requests a structure placement. The position is always in
// canonical coordinates; the server remains the authority on affordability,
// limits and collision.
type PlaceDefenseMsg struct {
	RoomID      string  `json:"roomId"`
	DefenseType string  `json:"defenseType"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PlayerID    int64   `json:"playerId"`
}

// LaunchProjectileMsg requests an attack. Targeting is resolved server-side,
// so no coordinates are sent.
type LaunchProjectileMsg struct {
	RoomID         string `json:"roomId"`
	ProjectileType string `json:"projectileType"`
	PlayerID       int64  `json:"playerId"`
	TargetPlayerID int64  `json:"targetPlayerId"`
}
