package room

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MessageType tags every envelope on the wire.
type MessageType string

// Inbound
const (
	TypeCreateRoom MessageType = "CREATE_ROOM"
	TypeJoinRoom   MessageType = "JOIN_ROOM"
	TypeMakeChoice MessageType = "MAKE_CHOICE"
	TypeCloseRoom  MessageType = "CLOSE_ROOM"
)

// Outbound
const (
	TypeWelcome              MessageType = "WELCOME_NEW_CONNECTION"
	TypeRoomCreated          MessageType = "ROOM_CREATED"
	TypePlayerJoined         MessageType = "PLAYER_JOINED"
	TypeGameStart            MessageType = "GAME_START"
	TypeChoiceMade           MessageType = "CHOICE_MADE"
	TypeOpponentChoiceMade   MessageType = "OPPONENT_CHOICE_MADE"
	TypeGameResult           MessageType = "GAME_RESULT"
	TypeNewRound             MessageType = "NEW_ROUND"
	TypePlayerReconnected    MessageType = "PLAYER_RECONNECTED"
	TypeOpponentDisconnected MessageType = "OPPONENT_DISCONNECTED"
	TypeRoomStateUpdate      MessageType = "ROOM_STATE_UPDATE"
	TypeRoomClosed           MessageType = "ROOM_CLOSED"
	TypeError                MessageType = "ERROR"
)

// envelope is the wire shape of every message.
type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command is an inbound message. The set of implementations is closed.
type Command interface {
	Type() MessageType
	isCommand()
}

type CreateRoomCommand struct{}

type JoinRoomCommand struct {
	RoomCode string `json:"roomCode"`
}

type MakeChoiceCommand struct {
	RoomCode string `json:"roomCode"`
	Choice   string `json:"choice"`
}

type CloseRoomCommand struct {
	RoomCode string `json:"roomCode"`
}

func (CreateRoomCommand) Type() MessageType { return TypeCreateRoom }
func (JoinRoomCommand) Type() MessageType   { return TypeJoinRoom }
func (MakeChoiceCommand) Type() MessageType { return TypeMakeChoice }
func (CloseRoomCommand) Type() MessageType  { return TypeCloseRoom }

func (CreateRoomCommand) isCommand() {}
func (JoinRoomCommand) isCommand()   {}
func (MakeChoiceCommand) isCommand() {}
func (CloseRoomCommand) isCommand()  {}

// DecodeCommand parses a raw inbound frame. Unknown tags are rejected.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var cmd Command
	switch env.Type {
	case TypeCreateRoom:
		return CreateRoomCommand{}, nil
	case TypeJoinRoom:
		var c JoinRoomCommand
		if err := decodePayload(env.Payload, &c); err != nil {
			return nil, err
		}
		cmd = c
	case TypeMakeChoice:
		var c MakeChoiceCommand
		if err := decodePayload(env.Payload, &c); err != nil {
			return nil, err
		}
		cmd = c
	case TypeCloseRoom:
		var c CloseRoomCommand
		if err := decodePayload(env.Payload, &c); err != nil {
			return nil, err
		}
		cmd = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
	return cmd, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Outbound is a message to a single connection. Build it with the
// constructors below; Payload is always one of the *Payload types.
type Outbound struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type PlayerInfo struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type ChoiceInfo struct {
	Username string `json:"username"`
	Choice   Move   `json:"choice,omitempty"`
	Chosen   bool   `json:"chosen"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type RoomInfoPayload struct {
	RoomCode string       `json:"roomCode"`
	Players  []PlayerInfo `json:"players"`
	Status   Status       `json:"status"`
	OwnerID  int64        `json:"ownerId"`
}

type RoomMessagePayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
	Round    int    `json:"round,omitempty"`
}

type ChoiceMadePayload struct {
	Choice  Move   `json:"choice"`
	Message string `json:"message"`
}

type GameResultPayload struct {
	RoomCode       string                `json:"roomCode"`
	Round          int                   `json:"round"`
	Choices        map[string]ChoiceInfo `json:"choices"`
	Result         string                `json:"result"`
	WinnerID       *int64                `json:"winnerId"`
	WinnerUsername *string               `json:"winnerUsername"`
}

type PlayerReconnectedPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type OpponentDisconnectedPayload struct {
	UserID   int64        `json:"userId"`
	Username string       `json:"username"`
	Message  string       `json:"message"`
	Players  []PlayerInfo `json:"players"`
}

type RoomStatePayload struct {
	RoomCode string                `json:"roomCode"`
	Players  []PlayerInfo          `json:"players"`
	Status   Status                `json:"status"`
	OwnerID  int64                 `json:"ownerId"`
	Round    int                   `json:"round"`
	Choices  map[string]ChoiceInfo `json:"choices"`
	MyChoice *Move                 `json:"myChoice"`
}

func welcomeMsg() Outbound {
	return Outbound{Type: TypeWelcome, Payload: MessagePayload{Message: "Welcome! Create or join a room."}}
}

func roomCreatedMsg(info RoomInfoPayload) Outbound {
	return Outbound{Type: TypeRoomCreated, Payload: info}
}

func playerJoinedMsg(info RoomInfoPayload) Outbound {
	return Outbound{Type: TypePlayerJoined, Payload: info}
}

func gameStartMsg(code string, round int) Outbound {
	return Outbound{Type: TypeGameStart, Payload: RoomMessagePayload{
		RoomCode: code,
		Message:  "Both players are here. Make your moves!",
		Round:    round,
	}}
}

func choiceMadeMsg(m Move) Outbound {
	return Outbound{Type: TypeChoiceMade, Payload: ChoiceMadePayload{
		Choice:  m,
		Message: "Your move was recorded. Waiting for your opponent...",
	}}
}

func opponentChoiceMadeMsg() Outbound {
	return Outbound{Type: TypeOpponentChoiceMade, Payload: MessagePayload{Message: "Your opponent has made a move."}}
}

func gameResultMsg(p GameResultPayload) Outbound {
	return Outbound{Type: TypeGameResult, Payload: p}
}

func newRoundMsg(code string, round int) Outbound {
	return Outbound{Type: TypeNewRound, Payload: RoomMessagePayload{
		RoomCode: code,
		Message:  "New round! Make your choices.",
		Round:    round,
	}}
}

func playerReconnectedMsg(p PlayerInfo) Outbound {
	return Outbound{Type: TypePlayerReconnected, Payload: PlayerReconnectedPayload{UserID: p.UserID, Username: p.Username}}
}

func opponentDisconnectedMsg(p PlayerInfo, players []PlayerInfo) Outbound {
	return Outbound{Type: TypeOpponentDisconnected, Payload: OpponentDisconnectedPayload{
		UserID:   p.UserID,
		Username: p.Username,
		Message:  p.Username + " disconnected.",
		Players:  players,
	}}
}

func roomStateMsg(p RoomStatePayload) Outbound {
	return Outbound{Type: TypeRoomStateUpdate, Payload: p}
}

func roomClosedMsg(code string) Outbound {
	return Outbound{Type: TypeRoomClosed, Payload: RoomMessagePayload{
		RoomCode: code,
		Message:  "The room was closed by its owner.",
	}}
}

// ErrorMsg renders err for the originating connection.
func ErrorMsg(err error) Outbound {
	return Outbound{Type: TypeError, Payload: MessagePayload{Message: PublicMessage(err)}}
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
