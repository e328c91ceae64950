// Package engine provides the core game logic for the Merge Mania cube 2048 game.
//
// The engine package implements the game mechanics including:
//   - Sliding and merging tiles on a square grid
//   - Spawning new tiles on random empty cells
//   - Terminal detection for full, unmergeable faces
//   - Multi-face play with a selectable active face
//   - Configuration loading and validation
//
// Core Types:
//
// A Board is an unordered list of Tiles, each carrying a stable ID so a
// renderer can animate it between moves. ApplyMove, SpawnTile, InitBoard and
// IsTerminal are pure functions over boards; randomness and id generation are
// injected through the Rand interface and an IDGen callback.
//
// The Engine interface defines the stateful contract for a game, implemented
// by GameEngine. GameState holds every face plus score, level and history,
// while GameConfig defines grid size, face count and messages loaded from JSON.
//
// Usage:
//
//	data, err := os.ReadFile("configs/cube.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config, err := engine.ParseGameConfig(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome := gameEngine.Move(engine.Left)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Every move slides all tiles of the active face toward one edge. Two tiles of
// equal value meeting along the way merge into one tile of double value, and
// the merged value is added to the score. A tile produced by a merge does not
// merge again in the same move. After any move that changes the face, a 2
// (or, with small probability, a 4) appears on a random empty cell. A face is
// terminal when it is full and no neighbours share a value.
package engine
