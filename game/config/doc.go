// Package config provides configuration management for the Merge Mania game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Configuration validation with defaults for omitted fields
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// Each configuration defines:
//   - Grid size (3 to 8) and number of faces (1 or 6)
//   - Probability that a spawned tile is a 4
//   - Score needed per level
//   - Whether the game ends on the active face or only when every face is locked
//   - Game messages for various events
//
// Available Configurations:
//
//   - cube: six 4x4 faces, the default
//   - classic: the single-board 4x4 game
//   - marathon: six 5x5 faces that all have to lock before the game ends
//   - mini: a 3x3 board with more fours
//   - big: an 8x8 board
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("classic")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When the directory holds no usable file the manager falls back to the built-in
// cube configuration, so a server always has something to play.
package config
