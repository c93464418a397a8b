package network

import (
	"errors"
	"fmt"

	"skirmish/world"
)

var ErrUnknownType = errors.New("unknown message type")

// MessageType is the `type` discriminator of an envelope. The set is closed:
// ParseMessageType rejects anything not listed here.
type MessageType string

const (
	// Sent by the client.
	TypeJoin    MessageType = "join"
	TypeUpdate  MessageType = "update"
	TypeShoot   MessageType = "shoot"
	TypeRespawn MessageType = "respawn"

	// Sent by the server.
	TypePlayerJoined    MessageType = "player_joined"
	TypePlayerLeft      MessageType = "player_left"
	TypePlayerUpdate    MessageType = "player_update"
	TypePlayerShot      MessageType = "player_shot"
	TypePlayerHit       MessageType = "player_hit"
	TypePlayerDied      MessageType = "player_died"
	TypePlayerRespawned MessageType = "player_respawned"
	TypeGameState       MessageType = "game_state"
	TypeGameTick        MessageType = "game_tick"
)

var messageFactories = map[MessageType]func() Message{
	TypeJoin:            func() Message { return &Join{} },
	TypeUpdate:          func() Message { return &Update{} },
	TypeShoot:           func() Message { return &Shoot{} },
	TypeRespawn:         func() Message { return &Respawn{} },
	TypePlayerJoined:    func() Message { return &PlayerJoined{} },
	TypePlayerLeft:      func() Message { return &PlayerLeft{} },
	TypePlayerUpdate:    func() Message { return &PlayerUpdate{} },
	TypePlayerShot:      func() Message { return &PlayerShot{} },
	TypePlayerHit:       func() Message { return &PlayerHit{} },
	TypePlayerDied:      func() Message { return &PlayerDied{} },
	TypePlayerRespawned: func() Message { return &PlayerRespawned{} },
	TypeGameState:       func() Message { return &GameState{} },
	TypeGameTick:        func() Message { return &GameTick{} },
}

func ParseMessageType(raw string) (MessageType, error) {
	t := MessageType(raw)
	if _, ok := messageFactories[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
	return t, nil
}

func newMessage(t MessageType) (Message, error) {
	factory, ok := messageFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return factory(), nil
}

// Message is a typed envelope payload. Implementations are pointers so that
// a nil value still reports its type.
type Message interface {
	Type() MessageType
}

type Join struct {
	Name string `json:"name"`
}

type Update struct {
	Position  world.Vector3 `json:"position"`
	Rotation  world.Vector3 `json:"rotation"`
	Velocity  world.Vector3 `json:"velocity"`
	Health    float64       `json:"health"`
	Timestamp int64         `json:"timestamp"`
}

type Shoot struct {
	Position  world.Vector3 `json:"position"`
	Rotation  world.Vector3 `json:"rotation"`
	Timestamp int64         `json:"timestamp"`
}

type Respawn struct {
	Position  world.Vector3 `json:"position"`
	Timestamp int64         `json:"timestamp"`
}

// PlayerJoined carries YourID only in the confirmation sent to the joining client.
type PlayerJoined struct {
	YourID string         `json:"yourId,omitempty"`
	Player world.Snapshot `json:"player"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type PlayerUpdate struct {
	Player world.Snapshot `json:"player"`
}

type PlayerShot struct {
	PlayerID string        `json:"playerId,omitempty"`
	Position world.Vector3 `json:"position"`
	Rotation world.Vector3 `json:"rotation"`
}

type PlayerHit struct {
	PlayerID  string        `json:"playerId"`
	ShooterID string        `json:"shooterId"`
	Damage    float64       `json:"damage"`
	Headshot  bool          `json:"headshot"`
	Position  world.Vector3 `json:"position"`
}

type PlayerDied struct {
	PlayerID string `json:"playerId"`
	KillerID string `json:"killerId,omitempty"`
}

// PlayerRespawned has a nil Position when the server lets the client pick.
type PlayerRespawned struct {
	PlayerID string         `json:"playerId"`
	Position *world.Vector3 `json:"position,omitempty"`
}

type GameState struct {
	Players map[string]world.Snapshot `json:"players"`
}

// GameTick is the periodic authoritative broadcast. Remote entries are
// smoothed towards it rather than overwritten.
type GameTick struct {
	Tick    int64                     `json:"tick,omitempty"`
	Players map[string]world.Snapshot `json:"players"`
}

func (*Join) Type() MessageType            { return TypeJoin }
func (*Update) Type() MessageType          { return TypeUpdate }
func (*Shoot) Type() MessageType           { return TypeShoot }
func (*Respawn) Type() MessageType         { return TypeRespawn }
func (*PlayerJoined) Type() MessageType    { return TypePlayerJoined }
func (*PlayerLeft) Type() MessageType      { return TypePlayerLeft }
func (*PlayerUpdate) Type() MessageType    { return TypePlayerUpdate }
func (*PlayerShot) Type() MessageType      { return TypePlayerShot }
func (*PlayerHit) Type() MessageType       { return TypePlayerHit }
func (*PlayerDied) Type() MessageType      { return TypePlayerDied }
func (*PlayerRespawned) Type() MessageType { return TypePlayerRespawned }
func (*GameState) Type() MessageType       { return TypeGameState }
func (*GameTick) Type() MessageType        { return TypeGameTick }
