// Package agent provides simple policies for the environments and a runner
// that plays batches of episodes in parallel.
package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Agent chooses an action from an observation.
type Agent interface {
	Name() string
	Act(obs mat.Matrix) core.Action
}

// Factory builds a fresh agent for one episode.
type Factory func(seed int64) Agent

// ErrUnsupportedObservation is returned when an agent cannot read an
// environment's observation layout.
var ErrUnsupportedObservation = errors.New("agent: unsupported observation layout")

// ObservationChecker is implemented by agents that only understand some
// observation layouts.
type ObservationChecker interface {
	CheckObservation(obs mat.Matrix) error
}

// CheckObservation reports whether a can act on obs. Agents that do not
// implement ObservationChecker accept anything.
func CheckObservation(a Agent, obs mat.Matrix) error {
	c, ok := a.(ObservationChecker)
	if !ok {
		return nil
	}
	return c.CheckObservation(obs)
}

// DefaultFlapProb matches sampling uniformly from the two actions.
const DefaultFlapProb = 0.5

// Random flaps with a fixed probability. Not safe for concurrent use.
type Random struct {
	FlapProb float64
	rng      *rand.Rand
}

// NewRandom returns a seeded random agent.
func NewRandom(seed int64, flapProb float64) *Random {
	return &Random{
		FlapProb: flapProb,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Name implements Agent.
func (r *Random) Name() string { return "random" }

// Act implements Agent.
func (r *Random) Act(mat.Matrix) core.Action {
	if r.rng.Float64() < r.FlapProb {
		return core.ActionFlap
	}
	return core.ActionNoop
}

// Heuristic flaps whenever the gap centre is above the player's centre.
// It reads the simple [h_dist, v_dist] layout and the kinematic
// [y, vy, dx, gap_y] layout; the latter needs the gap and player sizes.
type Heuristic struct {
	GapSize      float64
	PlayerHeight float64
}

// NewHeuristic returns a heuristic agent sized for cfg's world.
func NewHeuristic(cfg config.FlappyConfig) Heuristic {
	return Heuristic{
		GapSize:      cfg.World.PipeGap,
		PlayerHeight: cfg.Dimensions.PlayerHeight,
	}
}

// Name implements Agent.
func (Heuristic) Name() string { return "heuristic" }

// Act implements Agent. Unsupported layouts never flap.
func (h Heuristic) Act(obs mat.Matrix) core.Action {
	if obs == nil {
		return core.ActionNoop
	}
	var above bool
	switch rows, cols := obs.Dims(); {
	case cols == 1 && rows == 2:
		above = obs.At(1, 0) < 0
	case cols == 1 && rows == 4:
		above = obs.At(3, 0)+h.GapSize/2 < obs.At(0, 0)+h.PlayerHeight/2
	}
	if above {
		return core.ActionFlap
	}
	return core.ActionNoop
}

// CheckObservation implements ObservationChecker.
func (Heuristic) CheckObservation(obs mat.Matrix) error {
	if obs == nil {
		return fmt.Errorf("%w: no observation", ErrUnsupportedObservation)
	}
	rows, cols := obs.Dims()
	if cols != 1 || (rows != 2 && rows != 4) {
		return fmt.Errorf("%w: heuristic reads 2x1 or 4x1 vectors, got %dx%d",
			ErrUnsupportedObservation, rows, cols)
	}
	return nil
}

var factories = map[string]func(cfg config.FlappyConfig) Factory{
	"random": func(config.FlappyConfig) Factory {
		return func(seed int64) Agent {
			return NewRandom(seed, DefaultFlapProb)
		}
	},
	"heuristic": func(cfg config.FlappyConfig) Factory {
		h := NewHeuristic(cfg)
		return func(int64) Agent {
			return h
		}
	},
}

// Lookup returns the factory for a named agent playing in cfg's world.
func Lookup(name string, cfg config.FlappyConfig) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("agent: unknown agent %q", name)
	}
	return f(cfg), nil
}

// Names returns the available agent names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
