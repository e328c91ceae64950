package service

import (
	"time"

	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

// Event types emitted by moves
const (
	EventMove         = "move"
	EventMerge        = "merge"
	EventSpawn        = "spawn"
	EventFaceTerminal = "face_terminal"
	EventNewLevel     = "new_level"
	EventHighScore    = "high_score"
	EventGameOver     = "game_over"
	EventReset        = "reset"
	EventFaceSelected = "face_selected"
)

// Bulk move stop codes
const (
	StopNoMove           = engine.ReasonNoMove
	StopFaceTerminal     = engine.ReasonFaceTerminal
	StopGameOver         = engine.ReasonGameOver
	StopInvalidDirection = "invalid_direction"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool                `json:"success"`
	GameState *engine.GameState   `json:"game_state"`
	Message   string              `json:"message"`
	Events    []GameEvent         `json:"events,omitempty"`
	Outcome   *engine.MoveOutcome `json:"outcome,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // no_move|face_terminal|game_over|invalid_direction
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	Face       int `json:"face"`
	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	BoardText     []string `json:"board_text,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx          int          `json:"idx"`
	Dir          string       `json:"dir"`
	Moved        bool         `json:"moved"`
	ScoreGain    int          `json:"score_gain"`
	Merges       int          `json:"merges"`
	Spawned      *engine.Tile `json:"spawned,omitempty"`
	FaceTerminal bool         `json:"face_terminal,omitempty"`
	LevelUp      bool         `json:"level_up,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Face      int       `json:"face"`
	Value     int       `json:"value,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename       string `json:"filename"`
	ConfigID       string `json:"config_id"` // The identifier to use for session creation
	Name           string `json:"name"`      // Display name
	Description    string `json:"description"`
	GridSize       int    `json:"grid_size"`
	Faces          int    `json:"faces"`
	GameOverPolicy string `json:"game_over_policy"`
}

// HighScoreInfo is the persisted best score of one configuration
type HighScoreInfo struct {
	ConfigID  string `json:"config_id"`
	HighScore int    `json:"high_score"`
}
