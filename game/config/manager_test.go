package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidConfig(name string) *engine.GameConfig {
	config := &engine.GameConfig{
		Name:        name,
		Description: "Test configuration",
		GridSize:    4,
		Faces:       engine.CubeFaces,
	}
	engine.ApplyDefaults(config)
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func writeRawFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(os.TempDir(), "definitely-not-here-2048")); err == nil {
			t.Error("Expected error for missing config directory")
		}
	})

	t.Run("empty directory falls back to built-in cube", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		def := m.GetDefault()
		if def == nil || def.Name != "Cube" || def.Faces != engine.CubeFaces {
			t.Errorf("Expected built-in cube default, got %+v", def)
		}
	})

	t.Run("prefers cube", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)
		writeConfigFile(t, dir, "aaa", createValidConfig("First"))
		writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
		writeConfigFile(t, dir, "cube", createValidConfig("My Cube"))

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != "My Cube" {
			t.Errorf("Expected cube as default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("first valid config otherwise", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)
		writeRawFile(t, dir, "aaa.json", `{"name": "Broken"}`)
		writeConfigFile(t, dir, "bbb", createValidConfig("Second"))

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != "Second" {
			t.Errorf("Expected first valid config, got %q", m.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "valid", createValidConfig("Valid"))
	writeRawFile(t, dir, "partial.json", `{"name": "Partial", "description": "defaults fill the rest", "grid_size": 5}`)
	writeRawFile(t, dir, "badjson.json", `{"name": `)
	writeRawFile(t, dir, "badgrid.json", `{"name": "Huge", "description": "too big", "grid_size": 20}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{"valid", "valid", nil},
		{"valid with extension", "valid.json", nil},
		{"defaults applied", "partial", nil},
		{"missing", "missing", ErrConfigNotFound},
		{"path traversal", "../valid", ErrConfigNotFound},
		{"malformed json", "badjson", ErrInvalidConfig},
		{"invalid grid", "badgrid", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := m.LoadConfig(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if config.LevelScore != engine.DefaultLevelScore {
				t.Errorf("Expected defaults applied, got level score %d", config.LevelScore)
			}
		})
	}

	first, _ := m.LoadConfig("valid")
	second, _ := m.LoadConfig("valid")
	if first != second {
		t.Error("Expected cached config to be returned")
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "zeta", createValidConfig("Zeta"))
	writeConfigFile(t, dir, "alpha", createValidConfig("Alpha"))
	writeRawFile(t, dir, "broken.json", `nope`)
	writeRawFile(t, dir, "notes.txt", `not a config`)
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "alpha" || configs[1].ConfigID != "zeta" {
		t.Errorf("Expected sorted ids, got %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[0].Faces != engine.CubeFaces || configs[0].GameOverPolicy != string(engine.ActiveFacePolicy) {
		t.Errorf("Unexpected info %+v", configs[0])
	}
}

func TestManager_SaveAndReload(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	config := createValidConfig("Saved")
	config.GameOverPolicy = engine.AllFacesPolicy
	if err := m.SaveConfig("saved", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Fatalf("Expected file on disk: %v", err)
	}

	m.RefreshCache()
	loaded, err := m.LoadConfig("saved")
	if err != nil {
		t.Fatalf("LoadConfig after refresh failed: %v", err)
	}
	if loaded.GameOverPolicy != engine.AllFacesPolicy {
		t.Errorf("Expected policy to round trip, got %q", loaded.GameOverPolicy)
	}

	if err := m.SetDefault("saved"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if m.GetDefault().Name != "Saved" {
		t.Errorf("Expected new default, got %q", m.GetDefault().Name)
	}
	if err := m.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_SaveInvalid(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	bad := createValidConfig("Bad")
	bad.Faces = 3
	if err := m.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := m.SaveConfig("../escape", createValidConfig("Escape")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for path name, got %v", err)
	}
}

func TestManager_BundledConfigs(t *testing.T) {
	m, err := NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) < 5 {
		t.Errorf("Expected every bundled config to be valid, got %d", len(configs))
	}
	if m.GetDefault().Name != "Cube" {
		t.Errorf("Expected cube default, got %q", m.GetDefault().Name)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "cube", createValidConfig("Cube"))
	writeConfigFile(t, dir, "other", createValidConfig("Other"))

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				m.RefreshCache()
				return
			}
			if _, err := m.LoadConfig("other"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
			_ = m.GetDefault()
			if _, err := m.ListConfigs(); err != nil {
				t.Errorf("ListConfigs failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
