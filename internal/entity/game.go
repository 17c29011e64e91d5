package entity

import (
	"fmt"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Game is the authoritative state of one side-stacker session. It is
// mutated only through the usecase layer, never by a transport handler.
type Game struct {
	ID         string                      `json:"id"`
	Board      sidestacker.Board           `json:"board"`
	Turn       sidestacker.Cell            `json:"turn"`
	Players    map[string]sidestacker.Cell `json:"players"`
	Winner     string                      `json:"winner"`
	Status     string                      `json:"status,omitempty"`
	Difficulty string                      `json:"difficulty,omitempty"`
	Expires    int64                       `json:"expires"`
}

// NewGame returns an open game with an empty board and X to move.
func NewGame(id string, expires int64) *Game {
	return &Game{
		ID:      id,
		Board:   sidestacker.NewBoard(),
		Turn:    sidestacker.PlayerX,
		Players: make(map[string]sidestacker.Cell),
		Status:  StatusWaiting,
		Expires: expires,
	}
}

// BindPlayer assigns the first binder X and the second O. The first binder
// moves first. A third distinct participant is rejected.
func (that *Game) BindPlayer(userID string) (sidestacker.Cell, error) {
	if symbol, ok := that.Players[userID]; ok {
		return symbol, nil
	}

	switch len(that.Players) {
	case 0:
		that.Players[userID] = sidestacker.PlayerX
		return sidestacker.PlayerX, nil
	case 1:
		that.Players[userID] = sidestacker.PlayerO
		that.Status = StatusOngoing
		return sidestacker.PlayerO, nil
	default:
		return sidestacker.EmptyCell, fmt.Errorf("%w: game id %s", apperror.ErrSessionFull, that.ID)
	}
}

// SymbolOf returns the symbol assigned to userID, or the empty cell.
func (that *Game) SymbolOf(userID string) sidestacker.Cell {
	return that.Players[userID]
}

// Reset clears board and winner and gives the first move to the requesting
// participant's symbol.
func (that *Game) Reset(symbol sidestacker.Cell) {
	that.Board = sidestacker.NewBoard()
	that.Winner = ""
	that.Status = StatusOngoing
	if symbol != sidestacker.EmptyCell {
		that.Turn = symbol
	} else {
		that.Turn = sidestacker.PlayerX
	}
}

// Finish transitions the game to its terminal state.
func (that *Game) Finish(winner string) {
	that.Winner = winner
	that.Status = StatusFinished
	that.Turn = sidestacker.EmptyCell
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// IsMultiplayer reports whether two human participants are bound.
func (that *Game) IsMultiplayer() bool {
	return len(that.Players) == 2
}

// ToggleSymbol returns the other player's symbol.
func ToggleSymbol(symbol sidestacker.Cell) sidestacker.Cell {
	if symbol == sidestacker.PlayerX {
		return sidestacker.PlayerO
	}
	return sidestacker.PlayerX
}
