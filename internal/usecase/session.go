package usecase

import (
	"fmt"
	"log/slog"

	"github.com/anuhyanallapati/tic-tac-toe/internal/apperror"
	"github.com/anuhyanallapati/tic-tac-toe/internal/entity"
	"github.com/anuhyanallapati/tic-tac-toe/internal/matchmaking"
	"github.com/anuhyanallapati/tic-tac-toe/internal/protocol"
)

// Session is one two-player game instance: a board, two player slots,
// and the rematch-vote state. An empty slot is a nil Connection; a
// session with both slots empty is garbage and must be evicted by the
// caller. All methods run inside the orchestrator's critical section.
type Session struct {
	logger *slog.Logger
	game   *entity.Game

	playerX Connection
	playerO Connection

	queue    *matchmaking.Queue[Connection]
	registry *Registry
}

// RematchResult is the session-level outcome of a resolved negotiation.
// Leaving holds players who declined: their farewell is already sent and
// the caller schedules the transport close so the message flushes first.
type RematchResult struct {
	Resolved bool
	Leaving  []Connection
}

func NewSession(logger *slog.Logger, game *entity.Game, queue *matchmaking.Queue[Connection], registry *Registry) *Session {
	return &Session{
		logger:   logger.With("component", "session", "gameID", game.ID),
		game:     game,
		queue:    queue,
		registry: registry,
	}
}

func (that *Session) ID() string {
	return that.game.ID
}

func (that *Session) Winner() string {
	return that.game.Winner
}

func (that *Session) Ended() bool {
	return that.game.GameEnded
}

func (that *Session) AwaitingRematch() bool {
	return that.game.Rematch.Awaiting
}

func (that *Session) IsEmpty() bool {
	return that.playerX == nil && that.playerO == nil
}

func (that *Session) HasPlayer(conn Connection) bool {
	return conn == that.playerX || conn == that.playerO
}

// AssignPlayers fills both slots and starts the game. Sessions are
// created atomically with both slots occupied, never half-empty; X is
// always the earlier-queued connection.
func (that *Session) AssignPlayers(x, o Connection) {
	that.playerX = x
	that.playerO = o
	that.registry.BindConn(x, that.game.ID)
	that.registry.BindConn(o, that.game.ID)

	that.sendTo(x, protocol.NewMessage(protocol.TypePlayerAssigned, entity.PlayerX,
		fmt.Sprintf("You are Player X in Game #%s", that.game.ID)))
	that.sendTo(o, protocol.NewMessage(protocol.TypePlayerAssigned, entity.PlayerO,
		fmt.Sprintf("You are Player O in Game #%s", that.game.ID)))

	that.game.GameStarted = true
	that.broadcastState()
}

// BroadcastStart announces whose turn opens the game. Run from a
// scheduled task shortly after assignment so clients render the
// assignment message first; the delay is cosmetic, not a correctness
// dependency.
func (that *Session) BroadcastStart() {
	turn := that.game.CurrentTurn
	that.broadcast(protocol.NewMessage(protocol.TypeGameStart, turn,
		fmt.Sprintf("Game #%s started! %s's turn", that.game.ID, turn)))
}

// HandleMove applies one move from the given connection. A rejection
// returns the reason without touching any state; the caller answers the
// sender only. ended reports whether this move finished the game.
func (that *Session) HandleMove(conn Connection, position int) (ended bool, err error) {
	mark, ok := that.markOf(conn)
	if !ok {
		return false, apperror.ErrNotInGame
	}

	if err = that.game.ApplyMove(mark, position); err != nil {
		return false, err
	}

	that.broadcastState()

	if that.game.GameEnded {
		that.broadcastEnd()
		that.askPlayAgain()

		return true, nil
	}

	turn := that.game.CurrentTurn
	that.broadcast(protocol.NewMessage(protocol.TypeTurnChange, turn, turn+"'s turn"))

	return false, nil
}

// Reset clears the board for the same players and goes straight back
// into play. Serves both the manual reset command and the both-yes
// rematch.
func (that *Session) Reset() {
	that.game.Reset()

	that.broadcast(protocol.NewMessage(protocol.TypeGameReset, "",
		fmt.Sprintf("Game #%s has been reset", that.game.ID)))
	that.broadcastState()

	if that.game.GameStarted {
		turn := that.game.CurrentTurn
		that.broadcast(protocol.NewMessage(protocol.TypeGameStart, turn, turn+"'s turn"))
	}
}

// HandleRematchVote records one answer and resolves the negotiation once
// every occupied slot has answered.
func (that *Session) HandleRematchVote(conn Connection, wantsToPlay bool) (RematchResult, error) {
	if !that.game.Rematch.Awaiting {
		return RematchResult{}, apperror.ErrNoVotePending
	}

	mark, ok := that.markOf(conn)
	if !ok {
		return RematchResult{}, apperror.ErrNotInGame
	}

	vote := entity.VoteNo
	ack := "You chose to stop playing."
	if wantsToPlay {
		vote = entity.VoteYes
		ack = "You chose to play again!"
	}

	if mark == entity.PlayerX {
		that.game.Rematch.VoteX = vote
	} else {
		that.game.Rematch.VoteO = vote
	}

	that.sendTo(conn, protocol.NewMessage(protocol.TypeResponseReceived, "", ack))

	return that.resolveRematch(), nil
}

// ResolveRematchIfComplete re-checks an outstanding negotiation after a
// slot emptied mid-vote, so the remaining player is not left waiting on
// an answer that can no longer arrive.
func (that *Session) ResolveRematchIfComplete() RematchResult {
	if !that.game.Rematch.Awaiting {
		return RematchResult{}
	}

	return that.resolveRematch()
}

// RemovePlayer clears the slot and the reverse index entry. The caller
// checks IsEmpty and evicts; the session never destroys itself.
func (that *Session) RemovePlayer(conn Connection) {
	switch conn {
	case that.playerX:
		that.playerX = nil
	case that.playerO:
		that.playerO = nil
	}

	that.registry.UnbindConn(conn)
}

// NotifyDisconnect tells the remaining players their opponent is gone.
func (that *Session) NotifyDisconnect() {
	that.broadcast(protocol.NewMessage(protocol.TypePlayerDisconnected, "",
		fmt.Sprintf("Other player disconnected from Game #%s", that.game.ID)))
}

// resolveRematch fires only once every occupied slot is non-pending;
// absent slots count as already answered, so a one-player session still
// resolves.
func (that *Session) resolveRematch() RematchResult {
	rematch := &that.game.Rematch

	answered := (that.playerX == nil || rematch.VoteX != entity.VotePending) &&
		(that.playerO == nil || rematch.VoteO != entity.VotePending)
	if !answered {
		return RematchResult{}
	}

	rematch.Awaiting = false

	bothContinue := that.playerX != nil && rematch.VoteX == entity.VoteYes &&
		that.playerO != nil && rematch.VoteO == entity.VoteYes
	if bothContinue {
		that.logger.Info("same players continue")
		that.Reset()

		return RematchResult{Resolved: true}
	}

	result := RematchResult{Resolved: true}

	if that.playerX != nil && rematch.VoteX == entity.VoteNo {
		result.Leaving = append(result.Leaving, that.playerX)
		that.sayFarewell(that.playerX)
	}
	if that.playerO != nil && rematch.VoteO == entity.VoteNo {
		result.Leaving = append(result.Leaving, that.playerO)
		that.sayFarewell(that.playerO)
	}

	// A willing player whose opponent declined or left goes to the back
	// of the waiting queue.
	if that.playerX != nil && rematch.VoteX == entity.VoteYes {
		that.requeue(that.playerX)
	}
	if that.playerO != nil && rematch.VoteO == entity.VoteYes {
		that.requeue(that.playerO)
	}

	return result
}

func (that *Session) sayFarewell(conn Connection) {
	that.sendTo(conn, protocol.NewMessage(protocol.TypeLeftGame, "",
		"Thanks for playing! You can reconnect anytime."))
	that.RemovePlayer(conn)
}

func (that *Session) requeue(conn Connection) {
	that.queue.Enqueue(conn)
	that.sendTo(conn, protocol.NewMessage(protocol.TypeBackToQueue, "",
		"You're back in queue for a new game!"))
	that.RemovePlayer(conn)
}

// markOf resolves a connection to its symbol within this session.
func (that *Session) markOf(conn Connection) (string, bool) {
	switch conn {
	case that.playerX:
		return entity.PlayerX, true
	case that.playerO:
		return entity.PlayerO, true
	}

	return "", false
}

// broadcastState sends the full snapshot to both players; it follows
// every mutation.
func (that *Session) broadcastState() {
	that.broadcast(protocol.GameState{
		Type:        protocol.TypeGameState,
		Board:       [9]string(that.game.Board),
		CurrentTurn: that.game.CurrentTurn,
		GameStarted: that.game.GameStarted,
		GameEnded:   that.game.GameEnded,
		Winner:      that.game.Winner,
		GameID:      that.game.ID,
		QueueSize:   that.queue.Len(),
	})
}

func (that *Session) broadcastEnd() {
	if that.game.Winner == entity.WinnerDraw {
		that.broadcast(protocol.NewMessage(protocol.TypeGameEnd, entity.WinnerDraw,
			fmt.Sprintf("Game #%s ended - It's a draw!", that.game.ID)))
		return
	}

	that.broadcast(protocol.NewMessage(protocol.TypeGameEnd, that.game.Winner,
		fmt.Sprintf("Game #%s ended - %s wins!", that.game.ID, that.game.Winner)))
}

// askPlayAgain opens the rematch negotiation with every occupied slot.
func (that *Session) askPlayAgain() {
	that.game.Rematch.Awaiting = true
	that.game.Rematch.VoteX = entity.VotePending
	that.game.Rematch.VoteO = entity.VotePending

	prompt := protocol.NewMessage(protocol.TypeAskPlayAgain, "",
		"Game ended! Do you want to play another game? (Type 'yes' or 'no')")
	that.sendTo(that.playerX, prompt)
	that.sendTo(that.playerO, prompt)
}

// broadcast reaches the occupied, open slots of this session only.
func (that *Session) broadcast(message any) {
	that.sendTo(that.playerX, message)
	that.sendTo(that.playerO, message)
}

func (that *Session) sendTo(conn Connection, message any) {
	if conn == nil || !conn.IsOpen() {
		return
	}

	payload, err := protocol.Encode(message)
	if err != nil {
		that.logger.Error("failed to encode message", "error", err)
		return
	}

	conn.Send(payload)
}
