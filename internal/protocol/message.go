// Package protocol is the wire codec between typed messages and their
// JSON encoding. It carries no business logic.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client to server actions.
const (
	ActionMakeMove  = "makeMove"
	ActionResetGame = "resetGame"
	ActionPlayAgain = "playAgain"
)

// Server to client message types.
const (
	TypePlayerAssigned     = "playerAssigned"
	TypeQueueUpdate        = "queueUpdate"
	TypeGameState          = "gameState"
	TypeGameStart          = "gameStart"
	TypeTurnChange         = "turnChange"
	TypeGameEnd            = "gameEnd"
	TypeAskPlayAgain       = "askPlayAgain"
	TypeResponseReceived   = "responseReceived"
	TypeLeftGame           = "leftGame"
	TypeBackToQueue        = "backToQueue"
	TypeGameReset          = "gameReset"
	TypePlayerDisconnected = "playerDisconnected"
	TypeError              = "error"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrMissingAction    = errors.New("missing action")
	ErrUnknownAction    = errors.New("unknown action")
	ErrMissingField     = errors.New("missing field")
)

// ClientMessage is the closed set of commands a client may send. The
// discriminator is resolved once here; everything past the codec
// switches exhaustively on the concrete type.
type ClientMessage interface {
	clientMessage()
}

type MakeMove struct {
	Position int
}

type ResetGame struct{}

type PlayAgain struct {
	Response bool
}

func (MakeMove) clientMessage()  {}
func (ResetGame) clientMessage() {}
func (PlayAgain) clientMessage() {}

// envelope mirrors the raw wire shape before the action is dispatched.
type envelope struct {
	Action   string `json:"action"`
	Position *int   `json:"position,omitempty"`
	Response *bool  `json:"response,omitempty"`
}

// Decode parses one inbound message into its typed command.
func Decode(raw []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if env.Action == "" {
		return nil, ErrMissingAction
	}

	switch env.Action {
	case ActionMakeMove:
		if env.Position == nil {
			return nil, fmt.Errorf("%w: position", ErrMissingField)
		}

		return MakeMove{Position: *env.Position}, nil
	case ActionResetGame:
		return ResetGame{}, nil
	case ActionPlayAgain:
		if env.Response == nil {
			return nil, fmt.Errorf("%w: response", ErrMissingField)
		}

		return PlayAgain{Response: *env.Response}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}

// Message is a server notice addressed to a client display.
type Message struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewMessage(msgType, data, text string) Message {
	return Message{
		Type:    msgType,
		Data:    data,
		Message: text,
	}
}

// GameState is the full session snapshot broadcast after every mutation.
// Winner stays empty until a result is determined; a drawn game carries
// "draw".
type GameState struct {
	Type        string    `json:"type"`
	Board       [9]string `json:"board"`
	CurrentTurn string    `json:"currentTurn"`
	GameStarted bool      `json:"gameStarted"`
	GameEnded   bool      `json:"gameEnded"`
	Winner      string    `json:"winner"`
	GameID      string    `json:"gameId"`
	QueueSize   int       `json:"queueSize"`
}

// Encode marshals a server message to its wire form.
func Encode(message any) ([]byte, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return payload, nil
}
