// Package validate checks game configuration JSON files before a server loads them.
// It reports every problem in a file instead of stopping at the first one:
//   - JSON structure and unknown keys
//   - Required name and description
//   - Grid size within the supported range and a 1 or 6 face layout
//   - Spawn probability, level score and game over policy
//   - Message templates that need a %d placeholder
//   - Playability: a freshly dealt face must have a move
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/bits"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

// Result captures the outcome of validating a single file.
// Errors make the file invalid; Warnings and Info never do.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// File loads and validates one configuration file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	strict := json.NewDecoder(bytes.NewReader(data))
	strict.DisallowUnknownFields()
	if err := strict.Decode(&engine.GameConfig{}); err != nil {
		result.warn("Ignored field: %v", strings.TrimPrefix(err.Error(), "json: "))
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if id != strings.ToLower(id) || strings.ContainsAny(id, " ") {
		result.warn("config_id %q should be lower case without spaces", id)
	}

	engine.ApplyDefaults(&config)
	checkFields(&result, &config)

	if result.Valid {
		if err := engine.ValidateGameConfig(&config); err != nil {
			result.fail("%v", err)
		}
	}

	if result.Valid {
		checkPlayable(&result, &config)
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("Name: %s", config.Name),
			fmt.Sprintf("Grid: %dx%d, faces: %d", config.GridSize, config.GridSize, config.Faces),
			fmt.Sprintf("Spawn: 2 (%.0f%%) or 4 (%.0f%%)", (1-config.FourChance())*100, config.FourChance()*100),
			fmt.Sprintf("Level every %d points", config.LevelScore),
			fmt.Sprintf("Game over: %s", config.GameOverPolicy),
		)
	}

	return result
}

func checkFields(result *Result, config *engine.GameConfig) {
	if config.Name == "" {
		result.fail("name is required")
	}
	if config.Description == "" {
		result.fail("description is required")
	}
	if config.GridSize < engine.MinGridSize || config.GridSize > engine.MaxGridSize {
		result.fail("grid_size must be between %d and %d, got %d", engine.MinGridSize, engine.MaxGridSize, config.GridSize)
	}
	if config.Faces != engine.ClassicFaces && config.Faces != engine.CubeFaces {
		result.fail("faces must be %d or %d, got %d", engine.ClassicFaces, engine.CubeFaces, config.Faces)
	}
	if p := config.FourChance(); p < 0 || p > 1 {
		result.fail("four_probability must be between 0 and 1, got %g", p)
	}
	if config.LevelScore <= 0 {
		result.fail("level_score must be positive, got %d", config.LevelScore)
	} else if bits.OnesCount(uint(config.LevelScore)) != 1 {
		result.warn("level_score %d is not a power of two, levels will not line up with tiles", config.LevelScore)
	}
	switch config.GameOverPolicy {
	case engine.ActiveFacePolicy, engine.AllFacesPolicy:
	default:
		result.fail("game_over_policy must be %q or %q, got %q", engine.ActiveFacePolicy, engine.AllFacesPolicy, config.GameOverPolicy)
	}
	if !strings.Contains(config.Messages.NewLevel, "%d") {
		result.fail("messages.new_level must contain %%d")
	}
	if !strings.Contains(config.Messages.NewHighScore, "%d") {
		result.fail("messages.new_high_score must contain %%d")
	}
	if config.Faces == engine.ClassicFaces && config.GameOverPolicy == engine.AllFacesPolicy {
		result.warn("all_faces policy has no effect with a single face")
	}
}

// checkPlayable deals a fresh game and makes sure the active face can move
func checkPlayable(result *Result, config *engine.GameConfig) {
	eng, err := engine.NewEngineWithRand(config, rand.New(rand.NewPCG(1, uint64(config.GridSize))))
	if err != nil {
		result.fail("Cannot start a game: %v", err)
		return
	}
	if len(eng.GetPossibleMoves()) == 0 {
		result.fail("A new game has no possible moves")
	}
}

// Dir validates every *.json file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints a concise report and returns true when every result is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  ✓ "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
