package sidestacker

import (
	"errors"
	"fmt"
)

const (
	// Size is the side length of the square board.
	Size = 7

	// WinLength is the number of consecutive symbols needed to win.
	WinLength = 4

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

var (
	ErrIllegalPlacement = errors.New("cell is not an open end of its row")
	ErrOutOfBounds      = errors.New("position is out of bounds")
)

// Cell holds one of EmptyCell, PlayerX or PlayerO.
type Cell = string

// Position addresses a board cell by row and column, both 0..Size-1.
type Position struct {
	Row int `json:"i"`
	Col int `json:"j"`
}

// Board is a 7x7 grid. It is a value type: Place returns a modified
// copy, so a caller's board is never aliased.
type Board [Size][Size]Cell

// NewBoard returns a board with every cell empty.
func NewBoard() Board {
	return Board{}
}

// InBounds reports whether pos addresses a cell on the board.
func InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < Size && pos.Col >= 0 && pos.Col < Size
}

// Place puts symbol at pos and returns the resulting board. The position
// must be the current leftmost or rightmost empty cell of its row.
func Place(board Board, pos Position, symbol Cell) (Board, error) {
	if !InBounds(pos) {
		return board, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, pos.Row, pos.Col)
	}

	if !IsValid(ValidMoves(board), pos) {
		return board, fmt.Errorf("%w: (%d,%d)", ErrIllegalPlacement, pos.Row, pos.Col)
	}

	board[pos.Row][pos.Col] = symbol

	return board, nil
}

// ValidMoves returns the open slots of the board: for every row with at
// least one empty cell, its lowest and highest empty columns. The two
// coincide into a single move when exactly one empty cell remains.
func ValidMoves(board Board) []Position {
	moves := make([]Position, 0, 2*Size)

	for i := range board {
		first, last := -1, -1
		for j, cell := range board[i] {
			if cell != EmptyCell {
				continue
			}
			if first == -1 {
				first = j
			}
			last = j
		}

		if first == -1 {
			continue
		}

		moves = append(moves, Position{Row: i, Col: first})
		if last != first {
			moves = append(moves, Position{Row: i, Col: last})
		}
	}

	return moves
}

// IsValid reports exact membership of pos in moves.
func IsValid(moves []Position, pos Position) bool {
	for _, move := range moves {
		if move == pos {
			return true
		}
	}
	return false
}

// IsFull reports whether no empty cell remains.
func IsFull(board Board) bool {
	return len(ValidMoves(board)) == 0
}
