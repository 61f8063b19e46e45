// Package config provides YAML-based simulator configuration loading
// with embedded defaults.
package config

import (
	"errors"
	"fmt"
)

// FlappyConfig contains all configuration for the simulator.
type FlappyConfig struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Dimensions DimensionsConfig `yaml:"dimensions"`
}

// WorldConfig defines the default world geometry used by Reset.
type WorldConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	PipeGap     float64 `yaml:"pipe_gap"`
	GroundRatio float64 `yaml:"ground_ratio"` // Ground line as a fraction of height
}

// PhysicsConfig defines per-tick velocities and accelerations.
type PhysicsConfig struct {
	PipeVelX      float64 `yaml:"pipe_vel_x"`       // Horizontal pipe velocity (negative = left)
	PlayerMaxVelY float64 `yaml:"player_max_vel_y"` // Max descend speed
	PlayerAccY    float64 `yaml:"player_acc_y"`     // Downward acceleration
	PlayerVelRot  float64 `yaml:"player_vel_rot"`   // Angular speed in degrees
	PlayerFlapAcc float64 `yaml:"player_flap_acc"`  // Vertical speed right after a flap
	GroundScroll  float64 `yaml:"ground_scroll"`    // Ground offset step before wrapping
}

// DimensionsConfig defines entity and asset sizes.
type DimensionsConfig struct {
	PlayerWidth      float64 `yaml:"player_width"`
	PlayerHeight     float64 `yaml:"player_height"`
	PipeWidth        float64 `yaml:"pipe_width"`
	PipeHeight       float64 `yaml:"pipe_height"`
	BaseWidth        float64 `yaml:"base_width"`
	BaseHeight       float64 `yaml:"base_height"`
	BackgroundWidth  float64 `yaml:"background_width"`
	BackgroundHeight float64 `yaml:"background_height"`
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// BaseShift is the asset-width differential the ground offset wraps at.
func (d DimensionsConfig) BaseShift() float64 {
	return d.BaseWidth - d.BackgroundWidth
}

// Validate rejects configurations the simulator cannot run with.
func (c FlappyConfig) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"world.width", c.World.Width > 0},
		{"world.height", c.World.Height > 0},
		{"world.pipe_gap", c.World.PipeGap > 0},
		{"world.ground_ratio", c.World.GroundRatio > 0 && c.World.GroundRatio <= 1},
		{"physics.pipe_vel_x", c.Physics.PipeVelX < 0},
		{"physics.player_max_vel_y", c.Physics.PlayerMaxVelY > 0},
		{"physics.player_acc_y", c.Physics.PlayerAccY > 0},
		{"physics.player_flap_acc", c.Physics.PlayerFlapAcc < 0},
		{"dimensions.player_width", c.Dimensions.PlayerWidth > 0},
		{"dimensions.player_height", c.Dimensions.PlayerHeight > 0},
		{"dimensions.pipe_width", c.Dimensions.PipeWidth > 0},
		{"dimensions.pipe_height", c.Dimensions.PipeHeight > 0},
		{"dimensions.base_width", c.Dimensions.BaseShift() > 0},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s out of range", ErrInvalidConfig, chk.name)
		}
	}
	return nil
}
