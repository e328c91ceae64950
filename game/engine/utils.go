package engine

import (
	"strconv"
	"strings"
)

// Counter hands out tile ids for one session, starting from its current value
type Counter struct {
	next int
}

// NewCounter creates a counter whose first id is start
func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

// Next returns the next id
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// Peek returns the id the next call to Next will hand out
func (c *Counter) Peek() int {
	return c.next
}

// Clone returns a copy of the board that shares no memory with it
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	copy(out, b)
	return out
}

// Clone returns a deep copy of the state. Later moves on the engine do not touch it,
// so it can be encoded or handed to another goroutine.
func (s *GameState) Clone() *GameState {
	out := *s
	out.Faces = make([]Face, len(s.Faces))
	for i, face := range s.Faces {
		out.Faces[i] = face
		out.Faces[i].Tiles = face.Tiles.Clone()
	}
	out.MoveHistory = cloneHistory(s.MoveHistory)
	out.CurrentMoves = cloneHistory(s.CurrentMoves)
	if s.BoardText != nil {
		out.BoardText = append([]string(nil), s.BoardText...)
	}
	return &out
}

func cloneHistory(entries []MoveHistoryEntry) []MoveHistoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]MoveHistoryEntry, len(entries))
	copy(out, entries)
	for i, entry := range out {
		if entry.Spawned != nil {
			spawned := *entry.Spawned
			out[i].Spawned = &spawned
		}
	}
	return out
}

// ClearFlags returns a copy of the board with the new/merged hints reset
func (b Board) ClearFlags() Board {
	out := b.Clone()
	for i := range out {
		out[i].IsNew = false
		out[i].IsMerged = false
	}
	return out
}

// Values returns a dense row-major grid of tile values, 0 for empty cells
func (b Board) Values(gridSize int) [][]int {
	grid := make([][]int, gridSize)
	for i := range grid {
		grid[i] = make([]int, gridSize)
	}
	for _, t := range b {
		if inBounds(t.Row, t.Col, gridSize) {
			grid[t.Row][t.Col] = t.Value
		}
	}
	return grid
}

// HighestTile returns the largest value on the board, 0 when empty
func (b Board) HighestTile() int {
	highest := 0
	for _, t := range b {
		if t.Value > highest {
			highest = t.Value
		}
	}
	return highest
}

// Rows renders the board one line per row, values tab separated and "." for empty cells
func (b Board) Rows(gridSize int) []string {
	values := b.Values(gridSize)
	lines := make([]string, 0, gridSize)
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == 0 {
				cells[i] = "."
			} else {
				cells[i] = strconv.Itoa(v)
			}
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return lines
}

// Format renders the board as a multi-line string
func (b Board) Format(gridSize int) string {
	return strings.Join(b.Rows(gridSize), "\n")
}

func inBounds(row, col, gridSize int) bool {
	return row >= 0 && row < gridSize && col >= 0 && col < gridSize
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
