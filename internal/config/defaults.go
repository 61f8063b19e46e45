package config

import (
	_ "embed"
)

//go:embed defaults/flappy.yaml
var defaultFlappyYAML []byte

// DefaultFlappyConfig returns the default simulator configuration.
func DefaultFlappyConfig() FlappyConfig {
	return FlappyConfig{
		World: WorldConfig{
			Width:       288,
			Height:      512,
			PipeGap:     100,
			GroundRatio: 0.79,
		},
		Physics: PhysicsConfig{
			PipeVelX:      -4,
			PlayerMaxVelY: 10,
			PlayerAccY:    1,
			PlayerVelRot:  3,
			PlayerFlapAcc: -9,
			GroundScroll:  100,
		},
		Dimensions: DimensionsConfig{
			PlayerWidth:      34,
			PlayerHeight:     24,
			PipeWidth:        52,
			PipeHeight:       320,
			BaseWidth:        336,
			BaseHeight:       112,
			BackgroundWidth:  288,
			BackgroundHeight: 512,
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultFlappyYAML
}
