package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidGridSize is returned when a board is requested with no cells
var ErrInvalidGridSize = errors.New("grid size must be positive")

// EmptyCells lists every unoccupied position in row-major order
func EmptyCells(board Board, gridSize int) []Position {
	if gridSize <= 0 {
		return nil
	}
	occupied := make([]bool, gridSize*gridSize)
	for _, t := range board {
		if inBounds(t.Row, t.Col, gridSize) {
			occupied[t.Row*gridSize+t.Col] = true
		}
	}

	cells := make([]Position, 0, max(0, len(occupied)-len(board)))
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			if !occupied[row*gridSize+col] {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}
	return cells
}

// RandomEmptyCell picks one empty position uniformly at random.
// It returns false when the board is full.
func RandomEmptyCell(board Board, gridSize int, rng Rand) (Position, bool) {
	cells := EmptyCells(board, gridSize)
	if len(cells) == 0 {
		return Position{}, false
	}
	return cells[rng.IntN(len(cells))], true
}

// InitBoard creates a starting board: two tiles of value 2 on distinct cells
func InitBoard(gridSize int, ids IDGen, rng Rand) (Board, error) {
	if gridSize < 1 {
		return nil, fmt.Errorf("init board: %w, got %d", ErrInvalidGridSize, gridSize)
	}

	board := make(Board, 0, StartTileCount)
	for i := 0; i < StartTileCount; i++ {
		// the second draw samples the board so far so both tiles land on different cells
		pos, ok := RandomEmptyCell(board, gridSize, rng)
		if !ok {
			break
		}
		board = append(board, Tile{
			ID:    ids(),
			Value: StartTileValue,
			Row:   pos.Row,
			Col:   pos.Col,
			IsNew: true,
		})
	}
	return board, nil
}

// SpawnTile adds a 2 (90%) or a 4 (10%) on a random empty cell
func SpawnTile(board Board, gridSize int, ids IDGen, rng Rand) Board {
	return SpawnTileWithProbability(board, gridSize, ids, rng, DefaultFourProbability)
}

// SpawnTileWithProbability adds one tile whose value is 4 with probability fourProbability
// and 2 otherwise. A full board is returned unchanged.
func SpawnTileWithProbability(board Board, gridSize int, ids IDGen, rng Rand, fourProbability float64) Board {
	pos, ok := RandomEmptyCell(board, gridSize, rng)
	if !ok {
		return board
	}

	value := 2
	if rng.Float64() >= 1-fourProbability {
		value = 4
	}

	next := make(Board, len(board), len(board)+1)
	copy(next, board)
	return append(next, Tile{
		ID:    ids(),
		Value: value,
		Row:   pos.Row,
		Col:   pos.Col,
		IsNew: true,
	})
}
