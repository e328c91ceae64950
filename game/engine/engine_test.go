package engine

import (
	"context"
	"errors"
	"testing"
)

func createTestConfig(faces int, policy GameOverPolicy) *GameConfig {
	config := &GameConfig{
		Name:           "Engine Test Config",
		Description:    "Configuration for engine integration tests",
		GridSize:       3,
		Faces:          faces,
		LevelScore:     4,
		GameOverPolicy: policy,
	}
	ApplyDefaults(config)
	return config
}

// lockingRows is one left move away from a terminal 3x3 face when the spawn lands on (0,2) as a 2
var lockingRows = [][]int{
	{2, 2, 8},
	{16, 32, 64},
	{128, 256, 512},
}

func newTestEngine(t *testing.T, faces int, policy GameOverPolicy) *GameEngine {
	t.Helper()
	engine, err := NewEngineWithRand(createTestConfig(faces, policy), &fakeRand{})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

func loadLockingFace(t *testing.T, engine *GameEngine) {
	t.Helper()
	state := engine.GetState()
	state.Faces[0].Tiles = boardFromRows(lockingRows, 100)
	engine.ids = NewCounter(200)
	state.NextTileID = 200
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig(CubeFaces, ActiveFacePolicy)
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	state := engine.GetState()
	if len(state.Faces) != CubeFaces {
		t.Fatalf("Expected %d faces, got %d", CubeFaces, len(state.Faces))
	}
	for i, face := range state.Faces {
		if len(face.Tiles) != StartTileCount {
			t.Errorf("Face %d: expected %d tiles, got %d", i, StartTileCount, len(face.Tiles))
		}
	}
	if engine.GetScore() != 0 {
		t.Errorf("Expected initial score 0, got %d", engine.GetScore())
	}
	if engine.GetLevel() != 1 {
		t.Errorf("Expected initial level 1, got %d", engine.GetLevel())
	}
	if engine.IsGameOver() {
		t.Error("Expected game not to be over initially")
	}
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	// ids are unique across all faces of one game
	if state.NextTileID != CubeFaces*StartTileCount {
		t.Errorf("Expected next tile id %d, got %d", CubeFaces*StartTileCount, state.NextTileID)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig(ClassicFaces, ActiveFacePolicy)
	config.GridSize = 2

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for a 2x2 grid")
	}
	if _, err := NewEngine(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestEngine_Move(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	// fakeRand deals both starting 2s onto (0,0) and (0,1)

	outcome := engine.Move(Left)

	if !outcome.Moved {
		t.Fatal("Expected left to merge the starting tiles")
	}
	if outcome.ScoreGain != 4 || engine.GetScore() != 4 {
		t.Errorf("Expected score 4, got gain %d score %d", outcome.ScoreGain, engine.GetScore())
	}
	if outcome.Spawned == nil {
		t.Fatal("Expected a tile to spawn after a move")
	}
	if outcome.Spawned.Row != 0 || outcome.Spawned.Col != 1 || outcome.Spawned.Value != 2 {
		t.Errorf("Unexpected spawn %+v", outcome.Spawned)
	}

	board := engine.ActiveBoard()
	if len(board) != 2 {
		t.Fatalf("Expected merged tile plus spawn, got %d tiles", len(board))
	}
	for _, tile := range board {
		if tile.Value == 4 && !tile.IsMerged {
			t.Error("Expected the merged tile to carry the merge hint")
		}
	}
	if engine.GetState().Faces[0].Moves != 1 {
		t.Errorf("Expected face move count 1, got %d", engine.GetState().Faces[0].Moves)
	}
}

func TestEngine_MoveNoChange(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	before := engine.ActiveBoard().Clone()

	outcome := engine.Move(Up)

	if outcome.Moved {
		t.Error("Expected up to be a no-op on the top row")
	}
	if outcome.Reason != ReasonNoMove {
		t.Errorf("Expected reason %q, got %q", ReasonNoMove, outcome.Reason)
	}
	if len(engine.ActiveBoard()) != len(before) {
		t.Error("Expected no spawn after a no-op")
	}
	if engine.GetState().Message != engine.GetConfig().Messages.NoMove {
		t.Errorf("Expected no-move message, got %q", engine.GetState().Message)
	}
	if engine.GetState().TotalMoves != 1 {
		t.Errorf("Expected rejected move in history, got %d", engine.GetState().TotalMoves)
	}
}

func TestEngine_FlagsClearedNextTurn(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	engine.Move(Left)
	engine.Move(Down)

	newCount := 0
	for _, tile := range engine.ActiveBoard() {
		if tile.IsNew {
			newCount++
		}
	}
	if newCount != 1 {
		t.Errorf("Expected only the latest spawn to be new, got %d new tiles", newCount)
	}
}

func TestEngine_CanMove(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	nextID := engine.GetState().NextTileID

	if engine.CanMove(Up) {
		t.Error("Expected up to be blocked")
	}
	if !engine.CanMove(Left) {
		t.Error("Expected left to merge")
	}
	if engine.GetState().NextTileID != nextID {
		t.Error("Expected CanMove not to consume ids")
	}

	moves := engine.GetPossibleMoves()
	if len(moves) != 3 {
		t.Errorf("Expected 3 possible moves, got %v", moves)
	}
	for _, m := range moves {
		if m == Up {
			t.Error("Up should not be possible")
		}
	}
}

func TestEngine_GameOverActiveFace(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, ActiveFacePolicy)
	loadLockingFace(t, engine)

	outcome := engine.Move(Left)

	if !outcome.FaceTerminal || !outcome.GameOver {
		t.Fatalf("Expected terminal face to end the game, got %+v", outcome)
	}
	if !engine.IsGameOver() {
		t.Error("Expected game over")
	}
	if engine.GetState().Message != engine.GetConfig().Messages.GameOver {
		t.Errorf("Expected game over message, got %q", engine.GetState().Message)
	}

	again := engine.Move(Right)
	if again.Moved || again.Reason != ReasonGameOver {
		t.Errorf("Expected moves to be rejected after game over, got %+v", again)
	}
}

func TestEngine_GameOverAllFaces(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, AllFacesPolicy)
	loadLockingFace(t, engine)

	outcome := engine.Move(Left)

	if !outcome.FaceTerminal {
		t.Fatal("Expected face 0 to be terminal")
	}
	if outcome.GameOver || engine.IsGameOver() {
		t.Fatal("Expected the game to continue on other faces")
	}

	blocked := engine.Move(Right)
	if blocked.Reason != ReasonFaceTerminal {
		t.Errorf("Expected %q on a terminal face, got %q", ReasonFaceTerminal, blocked.Reason)
	}

	if err := engine.SelectFace(1); err != nil {
		t.Fatalf("SelectFace failed: %v", err)
	}
	if !engine.Move(Left).Moved {
		t.Error("Expected face 1 to accept moves")
	}
}

func TestEngine_GameOverAllFaces_LastFace(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, AllFacesPolicy)
	loadLockingFace(t, engine)

	// the other faces are already stuck but were never moved, so their flags are stale
	stuck := [][]int{{2, 4, 2}, {4, 2, 4}, {2, 4, 2}}
	state := engine.GetState()
	for i := 1; i < len(state.Faces); i++ {
		state.Faces[i].Tiles = boardFromRows(stuck, 300+i*10)
	}

	outcome := engine.Move(Left)

	if !outcome.GameOver || !engine.IsGameOver() {
		t.Fatal("Expected game over once the last playable face locks")
	}
	for i, face := range engine.GetState().Faces {
		if !face.Terminal {
			t.Errorf("Expected face %d to be flagged terminal", i)
		}
	}
}

func TestEngine_LevelAndHighScore(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	engine.SetHighScore(2)

	outcome := engine.Move(Left)

	if !outcome.LevelUp || engine.GetLevel() != 2 {
		t.Errorf("Expected level 2 at score 4 with level score 4, got %d", engine.GetLevel())
	}
	if !outcome.NewHighScore || engine.GetHighScore() != 4 {
		t.Errorf("Expected high score 4, got %d", engine.GetHighScore())
	}

	engine.SetHighScore(1)
	if engine.GetHighScore() != 4 {
		t.Error("Expected SetHighScore never to lower the high score")
	}
}

func TestEngine_SelectFace(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, ActiveFacePolicy)

	if err := engine.SelectFace(5); err != nil {
		t.Fatalf("SelectFace(5) failed: %v", err)
	}
	if engine.ActiveFace() != 5 {
		t.Errorf("Expected active face 5, got %d", engine.ActiveFace())
	}

	for _, bad := range []int{-1, CubeFaces} {
		if err := engine.SelectFace(bad); !errors.Is(err, ErrInvalidFace) {
			t.Errorf("SelectFace(%d): expected ErrInvalidFace, got %v", bad, err)
		}
	}

	outcome := engine.Move(Left)
	if outcome.Face != 5 {
		t.Errorf("Expected move on face 5, got %d", outcome.Face)
	}
	if engine.GetState().Faces[0].Moves != 0 {
		t.Error("Expected other faces to be untouched")
	}
}

func TestEngine_Reset(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, ActiveFacePolicy)
	engine.Move(Left)
	engine.Move(Down)
	_ = engine.SelectFace(3)
	highScore := engine.GetHighScore()

	state := engine.Reset()

	if state.Score != 0 || state.Level != 1 || state.GameOver || state.ActiveFace != 0 {
		t.Errorf("Expected a fresh game, got score %d level %d active %d", state.Score, state.Level, state.ActiveFace)
	}
	if state.HighScore != highScore {
		t.Errorf("Expected high score %d to survive reset, got %d", highScore, state.HighScore)
	}
	if state.TotalMoves != 2 || len(state.MoveHistory) != 2 {
		t.Errorf("Expected cumulative history to survive reset, got %d", state.TotalMoves)
	}
	if state.CurrentMovesCount != 0 || len(state.CurrentMoves) != 0 {
		t.Error("Expected current segment to be cleared")
	}
	if state.NextTileID != CubeFaces*StartTileCount {
		t.Errorf("Expected ids to restart, next id %d", state.NextTileID)
	}
}

func TestEngine_BulkMove(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	loadLockingFace(t, engine)

	outcomes := engine.BulkMove([]Direction{Left, Right, Up})

	if len(outcomes) != 1 {
		t.Errorf("Expected bulk move to stop at game over, got %d outcomes", len(outcomes))
	}
	if !engine.IsGameOver() {
		t.Error("Expected game over")
	}
}

func TestEngine_TerminalFaces(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, AllFacesPolicy)
	loadLockingFace(t, engine)
	engine.Move(Left)

	flags, err := engine.TerminalFaces(context.Background())
	if err != nil {
		t.Fatalf("TerminalFaces failed: %v", err)
	}
	if !flags[0] {
		t.Error("Expected face 0 to be terminal")
	}
	for i := 1; i < len(flags); i++ {
		if flags[i] {
			t.Errorf("Expected face %d to be playable", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.TerminalFaces(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEngine_ConfigManagement(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	engine.Move(Left)

	bigger := createTestConfig(CubeFaces, AllFacesPolicy)
	bigger.GridSize = 5
	if err := engine.SetConfig(bigger); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if engine.GetState().GridSize != 5 || len(engine.GetState().Faces) != CubeFaces {
		t.Error("Expected a new game on the new config")
	}
	if engine.GetHighScore() != 4 {
		t.Errorf("Expected high score to carry over, got %d", engine.GetHighScore())
	}

	invalid := createTestConfig(ClassicFaces, ActiveFacePolicy)
	invalid.Faces = 2
	if err := engine.SetConfig(invalid); err == nil {
		t.Error("Expected error for 2 faces")
	}
}

func TestEngine_History(t *testing.T) {
	engine := newTestEngine(t, ClassicFaces, ActiveFacePolicy)
	if engine.GetLastMove() != nil {
		t.Error("Expected no last move initially")
	}

	engine.Move(Left)
	engine.Move(Up)

	history := engine.GetMoveHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if history[0].Action != "left" || !history[0].Moved || history[0].Score != 4 {
		t.Errorf("Unexpected first entry %+v", history[0])
	}
	last := engine.GetLastMove()
	if last.MoveNumber != 2 || last.Action != "up" {
		t.Errorf("Unexpected last entry %+v", last)
	}
}

func TestEngine_HighestTile(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, ActiveFacePolicy)
	loadLockingFace(t, engine)

	if got := engine.HighestTile(); got != 512 {
		t.Errorf("Expected highest tile 512, got %d", got)
	}
}

func TestGameState_Clone(t *testing.T) {
	engine := newTestEngine(t, CubeFaces, ActiveFacePolicy)
	engine.Move(Left)

	snapshot := engine.GetState().Clone()
	tiles := len(snapshot.Faces[0].Tiles)
	firstTile := snapshot.Faces[0].Tiles[0]
	history := len(snapshot.MoveHistory)

	engine.Move(Right)
	engine.Move(Down)

	if len(snapshot.Faces[0].Tiles) != tiles || snapshot.Faces[0].Tiles[0] != firstTile {
		t.Error("Expected snapshot tiles to be unaffected by later moves")
	}
	if len(snapshot.MoveHistory) != history || len(snapshot.CurrentMoves) != history {
		t.Errorf("Expected %d history entries in the snapshot, got %d", history, len(snapshot.MoveHistory))
	}
	if spawned := snapshot.MoveHistory[0].Spawned; spawned == nil || spawned == engine.GetMoveHistory()[0].Spawned {
		t.Error("Expected the snapshot not to share spawned tiles with the engine")
	}

	snapshot.Faces[1].Tiles[0].Value = 1024
	if engine.GetState().Faces[1].Tiles[0].Value == 1024 {
		t.Error("Expected writes to the snapshot not to reach the engine")
	}
}
