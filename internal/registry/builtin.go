package registry

import (
	"math"
	"time"

	"github.com/vovakirdan/flappy-gym/internal/env"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

// Registered environment ids.
const (
	SimpleID    = "FlappyBird-v0"
	KinematicID = "FlappyBird-kinematic-v0"
	ScreenID    = "FlappyBird-rgb-v0"
)

// Screen observations default to a quarter of the world resolution.
const screenScale = 4

func init() {
	Register(SimpleID, "horizontal and vertical distance to the next gap, reward 1 per tick",
		func(opts Options) env.Env {
			return env.New(SimpleID, newSim(opts), opts.Geometry, env.Simple{Normalize: opts.Normalize})
		})

	Register(KinematicID, "player y, velocity, distance and gap of the next pair, reward per point",
		func(opts Options) env.Env {
			return env.New(KinematicID, newSim(opts), opts.Geometry, env.Kinematic{})
		})

	Register(ScreenID, "downscaled intensity image of the world, reward 1 per tick",
		func(opts Options) env.Env {
			cols, rows := opts.Cols, opts.Rows
			if cols <= 0 {
				cols = int(math.Max(1, math.Round(opts.Geometry.Width/screenScale)))
			}
			if rows <= 0 {
				rows = int(math.Max(1, math.Round(opts.Geometry.Height/screenScale)))
			}
			return env.New(ScreenID, newSim(opts), opts.Geometry, env.Screen{Cols: cols, Rows: rows})
		})
}

func newSim(opts Options) *flappy.Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return flappy.New(opts.Config, flappy.WithSeed(seed))
}
