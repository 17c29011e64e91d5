package sidestacker

// lineDirections are the four line orientations through a cell:
// horizontal, vertical and the two diagonals.
var lineDirections = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// IsWinning reports whether the cell at pos, occupied by symbol, sits on a
// run of at least WinLength consecutive symbols. Each orientation is scanned
// up to WinLength-1 cells on both sides of the anchor, so a line completed
// at either end of the new piece is detected.
func IsWinning(board Board, pos Position, symbol Cell) bool {
	if symbol == EmptyCell || !InBounds(pos) {
		return false
	}

	if board[pos.Row][pos.Col] != symbol {
		return false
	}

	for _, dir := range lineDirections {
		run := 1
		run += countRun(board, pos, symbol, dir[0], dir[1])
		run += countRun(board, pos, symbol, -dir[0], -dir[1])

		if run >= WinLength {
			return true
		}
	}

	return false
}

// countRun counts consecutive symbol cells starting one step from pos in
// direction (di, dj).
func countRun(board Board, pos Position, symbol Cell, di, dj int) int {
	count := 0
	for step := 1; step < WinLength; step++ {
		next := Position{Row: pos.Row + di*step, Col: pos.Col + dj*step}
		if !InBounds(next) || board[next.Row][next.Col] != symbol {
			break
		}
		count++
	}
	return count
}

// ContainsWinningMove reports whether symbol has any WinLength-in-a-row on
// the board. Scanning forward rays from every anchor visits each line once.
func ContainsWinningMove(board Board, symbol Cell) bool {
	for i := range board {
		for j := range board[i] {
			if board[i][j] != symbol {
				continue
			}

			pos := Position{Row: i, Col: j}
			for _, dir := range lineDirections {
				if countRun(board, pos, symbol, dir[0], dir[1]) >= WinLength-1 {
					return true
				}
			}
		}
	}

	return false
}
