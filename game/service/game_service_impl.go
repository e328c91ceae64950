package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   HighScoreStore
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
// and as the high score key
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return strings.ToLower(configName)
}

// configKey normalises a requested config name into the id high scores are stored under,
// so "CUBE" and "cube.json" share the "cube" entry
func configKey(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, ".json"))
}

// sessionConfigID is the config id a session was created with
func (s *gameServiceImpl) sessionConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	return s.getConfigID(sess.Config.Name)
}

// NewGameService creates a new game service instance. scores may be nil, in which case
// high scores only live as long as their session.
func NewGameService(sessions SessionManager, configs ConfigManager, scores HighScoreStore) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		scores:   scores,
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.sessionConfigID(sess),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      decorate(sess.Engine),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Prefer the input configName if provided, otherwise look up the config_id by display name
	configID := configKey(configName)
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}
	session.ConfigID = configID

	if s.scores != nil {
		best, err := s.scores.Get(ctx, configID)
		if err != nil {
			log.Warn().Err(err).Str("config", configID).Msg("failed to read high score")
		} else {
			session.Engine.SetHighScore(best)
		}
	}

	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// touching LastAccessedAt writes the session, so even reads take the write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed time
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Engine.Reset()
		events = append(events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	outcome := sess.Engine.Move(dir)
	events = append(events, s.extractMoveEvents(sess, outcome)...)
	if outcome.NewHighScore {
		s.recordHighScore(ctx, sess)
	}

	state := decorate(sess.Engine)
	return &MoveResult{
		Success:   outcome.Moved,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Outcome:   &outcome,
	}, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first move that leaves
// the board unchanged
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle reset
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	state := sess.Engine.GetState()
	result.Face = state.ActiveFace
	result.StartScore = state.Score

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	newHighScore := false
	for i, move := range moves {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = "game is over"
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StopReasonCode = StopInvalidDirection
			result.StoppedOnMove = i + 1
			break
		}

		outcome := sess.Engine.Move(dir)
		if !outcome.Moved {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d (%s) did not change the board", i+1, dir)
			result.StopReasonCode = outcome.Reason
			result.StoppedOnMove = i + 1
			break
		}

		result.MovesExecuted++
		result.Events = append(result.Events, s.extractMoveEvents(sess, outcome)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:          i + 1,
			Dir:          string(dir),
			Moved:        true,
			ScoreGain:    outcome.ScoreGain,
			Merges:       outcome.Merges,
			Spawned:      outcome.Spawned,
			FaceTerminal: outcome.FaceTerminal,
			LevelUp:      outcome.LevelUp,
		})
		newHighScore = newHighScore || outcome.NewHighScore
	}

	if newHighScore {
		s.recordHighScore(ctx, sess)
	}

	// Finalize snapshots
	endState := decorate(sess.Engine)
	result.GameState = endState
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.GameOver = endState.GameOver
	result.Message = endState.Message
	result.BoardText = endState.BoardText

	// The last executed move may have ended the game or locked the face
	if result.StopReasonCode == "" {
		switch {
		case endState.GameOver:
			result.StopReasonCode = StopGameOver
		case endState.Faces[endState.ActiveFace].Terminal:
			result.StopReasonCode = StopFaceTerminal
		}
	}

	for _, dir := range sess.Engine.GetPossibleMoves() {
		result.PossibleMoves = append(result.PossibleMoves, string(dir))
	}

	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.Reset()
	return decorate(sess.Engine), nil
}

// SelectFace switches the face receiving moves
func (s *gameServiceImpl) SelectFace(ctx context.Context, sessionID string, face int) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	if err := sess.Engine.SelectFace(face); err != nil {
		return nil, err
	}
	return decorate(sess.Engine), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	// touching LastAccessedAt writes the session, so even reads take the write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return decorate(sess.Engine), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// GetHighScore returns the persisted best score of a configuration, the default one when
// configName is empty
func (s *gameServiceImpl) GetHighScore(ctx context.Context, configName string) (*HighScoreInfo, error) {
	configID := configKey(configName)
	if configID == "" {
		configID = s.getConfigID(s.configs.GetDefault().Name)
	}

	info := &HighScoreInfo{ConfigID: configID}
	if s.scores == nil {
		return info, nil
	}

	best, err := s.scores.Get(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to read high score for %s: %w", configID, err)
	}
	info.HighScore = best
	return info, nil
}

// recordHighScore persists the session's high score. Failures are logged and do not fail the move.
func (s *gameServiceImpl) recordHighScore(ctx context.Context, sess *Session) {
	if s.scores == nil {
		return
	}
	configID := s.sessionConfigID(sess)
	best := sess.Engine.GetHighScore()
	if err := s.scores.Put(ctx, configID, best); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Str("config", configID).Int("score", best).
			Msg("failed to persist high score")
	}
}

// extractMoveEvents generates events from a move outcome
func (s *gameServiceImpl) extractMoveEvents(sess *Session, outcome engine.MoveOutcome) []GameEvent {
	if !outcome.Moved {
		return nil
	}

	state := sess.Engine.GetState()
	messages := sess.Config.Messages
	now := time.Now()
	face := outcome.Face

	events := []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Moved %s on face %d", outcome.Direction, face),
		Timestamp: now,
		Face:      face,
	}}

	if outcome.Merges > 0 {
		events = append(events, GameEvent{
			Type:      EventMerge,
			Message:   fmt.Sprintf("%d merge(s), +%d points", outcome.Merges, outcome.ScoreGain),
			Timestamp: now,
			Face:      face,
			Value:     outcome.ScoreGain,
		})
	}

	if outcome.Spawned != nil {
		events = append(events, GameEvent{
			Type:      EventSpawn,
			Message:   fmt.Sprintf("A %d appeared at (%d,%d)", outcome.Spawned.Value, outcome.Spawned.Row, outcome.Spawned.Col),
			Timestamp: now,
			Face:      face,
			Value:     outcome.Spawned.Value,
		})
	}

	if outcome.LevelUp {
		events = append(events, GameEvent{
			Type:      EventNewLevel,
			Message:   fmt.Sprintf(messages.NewLevel, state.Level),
			Timestamp: now,
			Face:      face,
			Value:     state.Level,
		})
	}

	if outcome.NewHighScore {
		events = append(events, GameEvent{
			Type:      EventHighScore,
			Message:   fmt.Sprintf(messages.NewHighScore, state.HighScore),
			Timestamp: now,
			Face:      face,
			Value:     state.HighScore,
		})
	}

	if outcome.FaceTerminal {
		events = append(events, GameEvent{
			Type:      EventFaceTerminal,
			Message:   messages.FaceTerminal,
			Timestamp: now,
			Face:      face,
		})
	}

	if outcome.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   messages.GameOver,
			Timestamp: now,
			Face:      face,
			Value:     state.Score,
		})
	}

	return events
}

// decorate returns a snapshot of the engine state with the derived fields clients read
// without decoding tiles. The caller must hold s.mu; the snapshot is safe to use after
// the lock is released.
func decorate(eng *engine.GameEngine) *engine.GameState {
	state := eng.GetState().Clone()
	state.BoardText = eng.ActiveBoard().Rows(state.GridSize)
	state.HighestTile = eng.HighestTile()
	return state
}
