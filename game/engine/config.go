package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate grid size
	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("config validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)
	}

	if config.Faces != ClassicFaces && config.Faces != CubeFaces {
		return fmt.Errorf("config validation: faces must be %d or %d, got %d", ClassicFaces, CubeFaces, config.Faces)
	}

	if p := config.FourChance(); p < 0 || p > 1 {
		return fmt.Errorf("config validation: four_probability must be between 0 and 1, got %g", p)
	}
	if config.LevelScore <= 0 {
		return fmt.Errorf("config validation: level_score must be positive, got %d", config.LevelScore)
	}

	switch config.GameOverPolicy {
	case ActiveFacePolicy, AllFacesPolicy:
	default:
		return fmt.Errorf("config validation: game_over_policy must be '%s' or '%s', got '%s'",
			ActiveFacePolicy, AllFacesPolicy, config.GameOverPolicy)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("config validation: messages.game_over is required")
	}
	if config.Messages.NewLevel != "" && !strings.Contains(config.Messages.NewLevel, "%d") {
		return fmt.Errorf("config validation: messages.new_level must contain %%d for the level")
	}
	if config.Messages.NewHighScore != "" && !strings.Contains(config.Messages.NewHighScore, "%d") {
		return fmt.Errorf("config validation: messages.new_high_score must contain %%d for the score")
	}

	return nil
}

// ApplyDefaults fills the optional fields a config file may leave out
func ApplyDefaults(config *GameConfig) {
	if config.Faces == 0 {
		config.Faces = ClassicFaces
	}
	if config.FourProbability == nil {
		p := DefaultFourProbability
		config.FourProbability = &p
	}
	if config.LevelScore == 0 {
		config.LevelScore = DefaultLevelScore
	}
	if config.GameOverPolicy == "" {
		config.GameOverPolicy = ActiveFacePolicy
	}

	m := &config.Messages
	if m.Welcome == "" {
		m.Welcome = "Merge equal tiles to reach 2048!"
	}
	if m.NoMove == "" {
		m.NoMove = "Nothing moves that way"
	}
	if m.FaceTerminal == "" {
		m.FaceTerminal = "This face is stuck, no moves left"
	}
	if m.GameOver == "" {
		m.GameOver = "Game Over!"
	}
	if m.NewLevel == "" {
		m.NewLevel = "Level %d reached!"
	}
	if m.NewHighScore == "" {
		m.NewHighScore = "New high score: %d"
	}
}

// DefaultConfig returns the built-in six-face cube configuration
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "Cube",
		Description: "Six independent 4x4 faces, play any of them",
		GridSize:    4,
		Faces:       CubeFaces,
	}
	ApplyDefaults(config)
	return config
}

// ParseGameConfig decodes, completes and validates a JSON configuration
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	ApplyDefaults(&config)

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
