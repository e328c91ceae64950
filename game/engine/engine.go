package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidFace = errors.New("invalid face")

// Reasons a move did not change the board
const (
	ReasonNoMove       = "no_move"
	ReasonFaceTerminal = "face_terminal"
	ReasonGameOver     = "game_over"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsGameOver() bool
	GetScore() int
	GetLevel() int
	GetHighScore() int
	SetHighScore(score int)

	// Movement operations
	Move(direction Direction) MoveOutcome
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// Faces
	ActiveFace() int
	SelectFace(face int) error
	ActiveBoard() Board
	TerminalFaces(ctx context.Context) ([]bool, error)

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// MoveOutcome describes one turn on the active face
type MoveOutcome struct {
	Direction    Direction `json:"direction"`
	Face         int       `json:"face"`
	Moved        bool      `json:"moved"`
	Reason       string    `json:"reason,omitempty"`
	ScoreGain    int       `json:"score_gain"`
	Merges       int       `json:"merges"`
	Spawned      *Tile     `json:"spawned,omitempty"`
	FaceTerminal bool      `json:"face_terminal"`
	LevelUp      bool      `json:"level_up,omitempty"`
	NewHighScore bool      `json:"new_high_score,omitempty"`
	GameOver     bool      `json:"game_over"`
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    Rand
	ids    *Counter
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithRand(config, newRand())
}

// NewEngineWithRand creates a game engine drawing spawns from rng
func NewEngineWithRand(config *GameConfig, rng Rand) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		rng:    rng,
	}
	engine.state = engine.newGameState()

	return engine, nil
}

func newRand() Rand {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

// newGameState deals a fresh board on every face and restarts tile ids at zero
func (e *GameEngine) newGameState() *GameState {
	e.ids = NewCounter(0)

	faces := make([]Face, e.config.Faces)
	for i := range faces {
		// grid size is validated with the config, so InitBoard cannot fail here
		board, _ := InitBoard(e.config.GridSize, e.ids.Next, e.rng)
		faces[i] = Face{Tiles: board}
	}

	return &GameState{
		GridSize:          e.config.GridSize,
		Faces:             faces,
		ActiveFace:        0,
		Score:             0,
		Level:             1,
		GameOver:          false,
		Message:           e.config.Messages.Welcome,
		ConfigName:        e.config.Name,
		NextTileID:        e.ids.Peek(),
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}

// GetState returns the live game state. Use Clone to hand it to another goroutine.
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Reset starts a new game with the same configuration
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history, totals and the high score across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves
	highScore := e.state.HighScore

	e.state = e.newGameState()

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.HighScore = highScore
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetLevel returns the current level
func (e *GameEngine) GetLevel() int {
	return e.state.Level
}

// GetHighScore returns the best score known to this game
func (e *GameEngine) GetHighScore() int {
	return e.state.HighScore
}

// SetHighScore seeds the high score, typically from a persisted value
func (e *GameEngine) SetHighScore(score int) {
	if score > e.state.HighScore {
		e.state.HighScore = score
	}
}

// Move plays one turn on the active face: slide and merge, then spawn a tile and
// check whether the face has any move left.
func (e *GameEngine) Move(direction Direction) MoveOutcome {
	s := e.state
	outcome := MoveOutcome{Direction: direction, Face: s.ActiveFace}

	switch {
	case s.GameOver:
		outcome.Reason = ReasonGameOver
		outcome.GameOver = true
		s.Message = e.config.Messages.GameOver
	case s.Faces[s.ActiveFace].Terminal:
		outcome.Reason = ReasonFaceTerminal
		outcome.FaceTerminal = true
		s.Message = e.config.Messages.FaceTerminal
	default:
		e.turn(direction, &outcome)
	}

	e.addMoveToHistory(outcome)
	return outcome
}

func (e *GameEngine) turn(direction Direction, outcome *MoveOutcome) {
	s := e.state
	face := &s.Faces[s.ActiveFace]

	// hints from the previous turn are stale once a new move starts
	result := ApplyMove(direction, face.Tiles.ClearFlags(), s.GridSize, e.ids.Next)
	if !result.Moved {
		outcome.Reason = ReasonNoMove
		s.Message = e.config.Messages.NoMove
		return
	}

	outcome.Moved = true
	outcome.ScoreGain = result.ScoreGain
	outcome.Merges = result.Merges

	board := SpawnTileWithProbability(result.Board, s.GridSize, e.ids.Next, e.rng, e.config.FourChance())
	if len(board) > len(result.Board) {
		spawned := board[len(board)-1]
		outcome.Spawned = &spawned
	}

	face.Tiles = board
	face.Moves++
	face.Terminal = IsTerminal(board, s.GridSize)
	outcome.FaceTerminal = face.Terminal

	s.NextTileID = e.ids.Peek()
	s.Score += result.ScoreGain
	s.Message = fmt.Sprintf("Score: %d (+%d)", s.Score, result.ScoreGain)

	if level := s.Score/e.config.LevelScore + 1; level > s.Level {
		s.Level = level
		outcome.LevelUp = true
		s.Message = fmt.Sprintf(e.config.Messages.NewLevel, level)
	}

	if s.Score > s.HighScore {
		s.HighScore = s.Score
		outcome.NewHighScore = true
	}

	if face.Terminal {
		s.Message = e.config.Messages.FaceTerminal
		if e.config.GameOverPolicy == AllFacesPolicy {
			s.GameOver = e.refreshTerminalFaces()
		} else {
			s.GameOver = true
		}
	}
	if s.GameOver {
		s.Message = e.config.Messages.GameOver
	}
	outcome.GameOver = s.GameOver
}

// refreshTerminalFaces re-evaluates every face, stores the flags and reports whether
// none of them has a move left
func (e *GameEngine) refreshTerminalFaces() bool {
	flags, err := e.TerminalFaces(context.Background())
	if err != nil {
		return false
	}
	all := true
	for i, terminal := range flags {
		e.state.Faces[i].Terminal = terminal
		all = all && terminal
	}
	return all
}

// CanMove checks if a move in the specified direction would change the active face
func (e *GameEngine) CanMove(direction Direction) bool {
	s := e.state
	if s.GameOver || s.Faces[s.ActiveFace].Terminal {
		return false
	}

	// a scratch counter keeps the session ids untouched
	scratch := NewCounter(e.ids.Peek())
	return ApplyMove(direction, s.Faces[s.ActiveFace].Tiles, s.GridSize, scratch.Next).Moved
}

// GetPossibleMoves returns all directions that would change the active face
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction

	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}

	return possible
}

// ActiveFace returns the index of the face receiving moves
func (e *GameEngine) ActiveFace() int {
	return e.state.ActiveFace
}

// SelectFace makes face the target of subsequent moves
func (e *GameEngine) SelectFace(face int) error {
	if face < 0 || face >= len(e.state.Faces) {
		return fmt.Errorf("%w: %d, game has %d faces", ErrInvalidFace, face, len(e.state.Faces))
	}
	e.state.ActiveFace = face
	if !e.state.GameOver {
		e.state.Message = fmt.Sprintf("Face %d selected", face)
	}
	return nil
}

// ActiveBoard returns the tiles of the active face
func (e *GameEngine) ActiveBoard() Board {
	return e.state.Faces[e.state.ActiveFace].Tiles
}

// TerminalFaces evaluates every face concurrently. Faces share no data, so no locking
// is needed between the workers.
func (e *GameEngine) TerminalFaces(ctx context.Context) ([]bool, error) {
	gridSize := e.state.GridSize
	flags := make([]bool, len(e.state.Faces))

	g, ctx := errgroup.WithContext(ctx)
	for i, face := range e.state.Faces {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			flags[i] = IsTerminal(face.Tiles, gridSize)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flags, nil
}

// HighestTile returns the largest tile over all faces
func (e *GameEngine) HighestTile() int {
	highest := 0
	for _, face := range e.state.Faces {
		if v := face.Tiles.HighestTile(); v > highest {
			highest = v
		}
	}
	return highest
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	highScore := e.state.HighScore
	e.config = config
	e.state = e.newGameState()
	e.state.HighScore = highScore
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, stopping once the game is over
func (e *GameEngine) BulkMove(moves []Direction) []MoveOutcome {
	outcomes := make([]MoveOutcome, 0, len(moves))

	for _, direction := range moves {
		if e.IsGameOver() {
			break
		}
		outcomes = append(outcomes, e.Move(direction))
	}

	return outcomes
}

// addMoveToHistory adds a move to the game's move history
func (e *GameEngine) addMoveToHistory(outcome MoveOutcome) {
	s := e.state
	entry := MoveHistoryEntry{
		Action:     string(outcome.Direction),
		Face:       outcome.Face,
		Moved:      outcome.Moved,
		ScoreGain:  outcome.ScoreGain,
		Merges:     outcome.Merges,
		Score:      s.Score,
		Spawned:    outcome.Spawned,
		Timestamp:  time.Now().Unix(),
		MoveNumber: s.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	s.MoveHistory = append(s.MoveHistory, entry)
	s.TotalMoves++

	// Append to current segment history and increment its counter
	s.CurrentMoves = append(s.CurrentMoves, entry)
	s.CurrentMovesCount++
}
