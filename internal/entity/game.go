package entity

import (
	"fmt"
	"strconv"

	"github.com/anuhyanallapati/tic-tac-toe/internal/apperror"
)

const (
	PlayerX    = "X"
	PlayerO    = "O"
	WinnerDraw = "draw"
)

// WinLines are the eight winning lines in scan priority order: rows,
// then columns, then diagonals. Result detection stops on the first match.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board holds the nine cells. An unmarked cell displays its 1-based
// index, a marked cell holds PlayerX or PlayerO.
type Board [9]string

func NewBoard() Board {
	var board Board
	for i := range board {
		board[i] = strconv.Itoa(i + 1)
	}

	return board
}

// IsMarked reports whether the 0-based cell holds a player mark.
func (that *Board) IsMarked(cell int) bool {
	return that[cell] == PlayerX || that[cell] == PlayerO
}

// Result returns the mark of the first matching win line, WinnerDraw when
// every cell is marked without a winner, or an empty string while the
// game is still undecided.
func (that *Board) Result() string {
	for _, line := range WinLines {
		a, b, c := that[line[0]], that[line[1]], that[line[2]]
		if (a == PlayerX || a == PlayerO) && a == b && b == c {
			return a
		}
	}

	for cell := range that {
		if !that.IsMarked(cell) {
			return ""
		}
	}

	return WinnerDraw
}

// Vote is one player's rematch answer.
type Vote int

const (
	VotePending Vote = iota
	VoteYes
	VoteNo
)

// RematchState tracks the post-game negotiation. It is cleared whenever
// a new game starts and after a negotiation resolves.
type RematchState struct {
	Awaiting bool
	VoteX    Vote
	VoteO    Vote
}

func (that *RematchState) Clear() {
	that.Awaiting = false
	that.VoteX = VotePending
	that.VoteO = VotePending
}

// Game is one session's board and turn state.
type Game struct {
	ID          string
	Board       Board
	CurrentTurn string
	GameStarted bool
	GameEnded   bool
	Winner      string
	Rematch     RematchState
}

func NewGame(id string) *Game {
	return &Game{
		ID:          id,
		Board:       NewBoard(),
		CurrentTurn: PlayerX,
	}
}

// ApplyMove validates and applies one move at a 1-based position.
// Rejections leave the game untouched. A terminal move records the
// winner without handing the turn over; otherwise the turn flips.
func (that *Game) ApplyMove(mark string, position int) error {
	if !that.GameStarted || that.GameEnded {
		return apperror.ErrGameNotActive
	}

	if mark != that.CurrentTurn {
		return apperror.ErrNotYourTurn
	}

	if position < 1 || position > len(that.Board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidPosition, position)
	}

	if that.Board.IsMarked(position - 1) {
		return apperror.ErrPositionTaken
	}

	that.Board[position-1] = mark

	if result := that.Board.Result(); result != "" {
		that.Winner = result
		that.GameEnded = true

		return nil
	}

	that.CurrentTurn = toggleMark(mark)

	return nil
}

// Reset restores a fresh board for the same session. GameStarted is kept
// so a reset mid-session goes straight back into play.
func (that *Game) Reset() {
	that.Board = NewBoard()
	that.CurrentTurn = PlayerX
	that.Winner = ""
	that.GameEnded = false
	that.Rematch.Clear()
}

func toggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}

	return PlayerX
}
