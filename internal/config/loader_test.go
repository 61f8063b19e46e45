package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := parse(DefaultYAML())
	if err != nil {
		t.Fatalf("parse(embedded) failed: %v", err)
	}
	if cfg != DefaultFlappyConfig() {
		t.Errorf("embedded YAML = %+v, expected %+v", cfg, DefaultFlappyConfig())
	}
}

func TestLoadFlappyCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flappy.yaml")
	data := []byte("world:\n  pipe_gap: 120\nphysics:\n  pipe_vel_x: -5\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFlappy(path)
	if err != nil {
		t.Fatalf("LoadFlappy() failed: %v", err)
	}
	if cfg.World.PipeGap != 120 {
		t.Errorf("PipeGap = %v, expected 120", cfg.World.PipeGap)
	}
	if cfg.Physics.PipeVelX != -5 {
		t.Errorf("PipeVelX = %v, expected -5", cfg.Physics.PipeVelX)
	}
	// Unspecified fields keep their defaults
	if cfg.Dimensions.PlayerHeight != 24 {
		t.Errorf("PlayerHeight = %v, expected default 24", cfg.Dimensions.PlayerHeight)
	}
}

func TestLoadFlappyMissingCustomPath(t *testing.T) {
	_, err := LoadFlappy(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadFlappy() with a missing custom path should fail")
	}
}

func TestLoadFlappyRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("physics:\n  pipe_vel_x: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFlappy(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadFlappy() error = %v, expected ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FlappyConfig)
		valid  bool
	}{
		{"defaults", func(*FlappyConfig) {}, true},
		{"zero width", func(c *FlappyConfig) { c.World.Width = 0 }, false},
		{"positive flap", func(c *FlappyConfig) { c.Physics.PlayerFlapAcc = 9 }, false},
		{"ground ratio above one", func(c *FlappyConfig) { c.World.GroundRatio = 1.5 }, false},
		{"base narrower than background", func(c *FlappyConfig) { c.Dimensions.BaseWidth = 200 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultFlappyConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("Validate() = %v, expected nil", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestBaseShift(t *testing.T) {
	if got := DefaultFlappyConfig().Dimensions.BaseShift(); got != 48 {
		t.Errorf("BaseShift() = %v, expected 48", got)
	}
}
