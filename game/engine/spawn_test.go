package engine

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// fakeRand always picks the same index (clamped) and the same float
type fakeRand struct {
	index int
	float float64
}

func (f *fakeRand) IntN(n int) int {
	return min(f.index, n-1)
}

func (f *fakeRand) Float64() float64 {
	return f.float
}

func TestEmptyCells(t *testing.T) {
	board := Board{
		{ID: 1, Value: 2, Row: 0, Col: 1},
		{ID: 2, Value: 2, Row: 2, Col: 2},
	}

	cells := EmptyCells(board, 3)
	if len(cells) != 7 {
		t.Fatalf("Expected 7 empty cells, got %d", len(cells))
	}
	if cells[0] != (Position{Row: 0, Col: 0}) || cells[1] != (Position{Row: 0, Col: 2}) {
		t.Errorf("Expected row-major order, got %v", cells[:2])
	}
	for _, c := range cells {
		if c == (Position{Row: 2, Col: 2}) {
			t.Error("Occupied cell listed as empty")
		}
	}

	if EmptyCells(nil, 0) != nil {
		t.Error("Expected no cells for an empty grid")
	}
}

func TestRandomEmptyCell_Full(t *testing.T) {
	board := boardFromRows([][]int{{2, 4, 2}, {4, 2, 4}, {2, 4, 2}}, 1)

	if _, ok := RandomEmptyCell(board, 3, &fakeRand{}); ok {
		t.Error("Expected no empty cell on a full board")
	}
}

func TestRandomEmptyCell_Uniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	board := Board{{ID: 1, Value: 2, Row: 0, Col: 0}}
	counts := make(map[Position]int)

	const draws = 15000
	for i := 0; i < draws; i++ {
		pos, ok := RandomEmptyCell(board, 4, rng)
		if !ok {
			t.Fatal("Expected an empty cell")
		}
		counts[pos]++
	}

	if len(counts) != 15 {
		t.Fatalf("Expected all 15 empty cells to be drawn, got %d", len(counts))
	}
	for pos, n := range counts {
		// expected 1000 per cell
		if n < 800 || n > 1200 {
			t.Errorf("Cell %v drawn %d times, outside the expected range", pos, n)
		}
	}
}

func TestInitBoard(t *testing.T) {
	for size := MinGridSize; size <= MaxGridSize; size++ {
		ids := NewCounter(0)
		board, err := InitBoard(size, ids.Next, rand.New(rand.NewPCG(uint64(size), 1)))
		if err != nil {
			t.Fatalf("InitBoard(%d) failed: %v", size, err)
		}
		if len(board) != StartTileCount {
			t.Fatalf("Expected %d tiles, got %d", StartTileCount, len(board))
		}
		if board[0].Row == board[1].Row && board[0].Col == board[1].Col {
			t.Errorf("Expected distinct cells, both at (%d,%d)", board[0].Row, board[0].Col)
		}
		for _, tile := range board {
			if tile.Value != StartTileValue || !tile.IsNew {
				t.Errorf("Expected new tile of value 2, got %+v", tile)
			}
		}
		if board[0].ID == board[1].ID {
			t.Error("Expected distinct ids")
		}
	}
}

func TestInitBoard_SecondDrawExcludesFirst(t *testing.T) {
	// index 0 every time: without sampling the board so far both tiles would land on (0,0)
	board, err := InitBoard(4, NewCounter(0).Next, &fakeRand{})
	if err != nil {
		t.Fatal(err)
	}
	if board[0].Row != 0 || board[0].Col != 0 || board[1].Row != 0 || board[1].Col != 1 {
		t.Errorf("Expected tiles at (0,0) and (0,1), got %+v", board)
	}
}

func TestInitBoard_InvalidSize(t *testing.T) {
	if _, err := InitBoard(0, NewCounter(0).Next, &fakeRand{}); !errors.Is(err, ErrInvalidGridSize) {
		t.Errorf("Expected ErrInvalidGridSize, got %v", err)
	}
}

func TestSpawnTile(t *testing.T) {
	board := Board{{ID: 1, Value: 8, Row: 0, Col: 0}}

	next := SpawnTile(board, 4, NewCounter(5).Next, &fakeRand{index: 0, float: 0.5})

	if len(board) != 1 {
		t.Error("Expected input board to be untouched")
	}
	if len(next) != 2 {
		t.Fatalf("Expected 2 tiles, got %d", len(next))
	}
	spawned := next[1]
	if spawned.Value != 2 || spawned.ID != 5 || !spawned.IsNew {
		t.Errorf("Unexpected spawned tile %+v", spawned)
	}
	if spawned.Row != 0 || spawned.Col != 1 {
		t.Errorf("Expected spawn at first empty cell (0,1), got (%d,%d)", spawned.Row, spawned.Col)
	}

	four := SpawnTile(board, 4, NewCounter(5).Next, &fakeRand{float: 0.95})
	if four[1].Value != 4 {
		t.Errorf("Expected a 4 for a high draw, got %d", four[1].Value)
	}
}

func TestSpawnTile_FullBoard(t *testing.T) {
	board := boardFromRows([][]int{{2, 4, 2}, {4, 2, 4}, {2, 4, 2}}, 1)
	ids := NewCounter(100)

	next := SpawnTile(board, 3, ids.Next, &fakeRand{})

	if len(next) != len(board) {
		t.Errorf("Expected full board unchanged, got %d tiles", len(next))
	}
	if ids.Peek() != 100 {
		t.Error("Expected no id to be consumed on a full board")
	}
}

func TestSpawnTile_Fairness(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 2048))
	ids := NewCounter(0)

	const spawns = 10000
	fours := 0
	for i := 0; i < spawns; i++ {
		next := SpawnTile(nil, 4, ids.Next, rng)
		if next[0].Value == 4 {
			fours++
		}
	}

	ratio := float64(fours) / spawns
	if ratio < 0.08 || ratio > 0.12 {
		t.Errorf("Expected about 10%% fours, got %.3f", ratio)
	}
}

func TestSpawnTileWithProbability_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 100; i++ {
		if v := SpawnTileWithProbability(nil, 3, NewCounter(0).Next, rng, 0)[0].Value; v != 2 {
			t.Fatalf("Expected only 2s with probability 0, got %d", v)
		}
		if v := SpawnTileWithProbability(nil, 3, NewCounter(0).Next, rng, 1)[0].Value; v != 4 {
			t.Fatalf("Expected only 4s with probability 1, got %d", v)
		}
	}
}
