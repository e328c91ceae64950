package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned for move commands that are not up, down, left or right
var ErrInvalidDirection = errors.New("invalid direction")

// vectors maps a direction to the unit step a sliding tile takes
var vectors = map[Direction]Position{
	Up:    {Row: -1, Col: 0},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
	Right: {Row: 0, Col: 1},
}

// ParseDirection accepts up/down/left/right and the w/s/a/d keys, case-insensitively
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// traversal returns the row and column visiting order for a direction.
// The edge the tiles slide toward is always visited first.
func traversal(direction Direction, gridSize int) (rows, cols []int) {
	rows = make([]int, gridSize)
	cols = make([]int, gridSize)
	for i := 0; i < gridSize; i++ {
		rows[i] = i
		cols[i] = i
	}
	switch direction {
	case Down:
		reverse(rows)
	case Right:
		reverse(cols)
	}
	return rows, cols
}

// ApplyMove slides every tile of board toward direction and merges equal neighbours.
//
// Each tile walks through empty cells until it reaches the wall or another tile. When that
// tile has the same value and is not itself the product of a merge in this move, both are
// replaced by a single tile of double value carrying a fresh id. The input board is never
// modified; when nothing moves the returned board is a copy of it.
func ApplyMove(direction Direction, board Board, gridSize int, ids IDGen) MoveResult {
	vec, ok := vectors[direction]
	if !ok || gridSize <= 0 {
		return MoveResult{Board: board.Clone()}
	}

	grid := make([]*Tile, gridSize*gridSize)
	for i := range board {
		t := board[i]
		if inBounds(t.Row, t.Col, gridSize) {
			grid[t.Row*gridSize+t.Col] = &t
		}
	}

	merged := make(map[int]bool)
	moved := false
	gain := 0
	merges := 0

	rows, cols := traversal(direction, gridSize)
	for _, row := range rows {
		for _, col := range cols {
			current := grid[row*gridSize+col]
			if current == nil {
				continue
			}

			last := Position{Row: row, Col: col}
			next := Position{Row: row + vec.Row, Col: col + vec.Col}
			for inBounds(next.Row, next.Col, gridSize) && grid[next.Row*gridSize+next.Col] == nil {
				last = next
				next = Position{Row: last.Row + vec.Row, Col: last.Col + vec.Col}
			}
			if last.Row != row || last.Col != col {
				moved = true
			}
			grid[row*gridSize+col] = nil

			var other *Tile
			if inBounds(next.Row, next.Col, gridSize) {
				other = grid[next.Row*gridSize+next.Col]
			}

			if other != nil && other.Value == current.Value && !merged[other.ID] {
				moved = true
				value := current.Value * 2
				gain += value
				merges++

				product := &Tile{
					ID:       ids(),
					Value:    value,
					Row:      other.Row,
					Col:      other.Col,
					IsMerged: true,
				}
				merged[product.ID] = true
				grid[other.Row*gridSize+other.Col] = product
				continue
			}

			slid := *current
			slid.Row, slid.Col = last.Row, last.Col
			grid[last.Row*gridSize+last.Col] = &slid
		}
	}

	if !moved {
		return MoveResult{Board: board.Clone()}
	}

	out := make(Board, 0, len(board))
	for _, t := range grid {
		if t != nil {
			out = append(out, *t)
		}
	}
	return MoveResult{Board: out, Moved: true, ScoreGain: gain, Merges: merges}
}

// IsTerminal reports whether the board is full and no two orthogonal neighbours share a value
func IsTerminal(board Board, gridSize int) bool {
	if gridSize <= 0 || len(board) < gridSize*gridSize {
		return false
	}

	values := make([]int, gridSize*gridSize)
	for _, t := range board {
		if inBounds(t.Row, t.Col, gridSize) {
			values[t.Row*gridSize+t.Col] = t.Value
		}
	}

	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			v := values[row*gridSize+col]
			if v == 0 {
				return false
			}
			if col < gridSize-1 && values[row*gridSize+col+1] == v {
				return false
			}
			if row < gridSize-1 && values[(row+1)*gridSize+col] == v {
				return false
			}
		}
	}
	return true
}
