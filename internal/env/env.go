// Package env wraps the simulator in a reset/step/observe/reward loop so
// automated agents can drive it one tick at a time.
package env

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

// ErrEpisodeDone is returned when Step is called on a finished episode.
var ErrEpisodeDone = errors.New("env: episode is done, call Reset")

// TimeStep is the result of one Reset or Step call.
type TimeStep struct {
	Observation mat.Matrix
	Reward      float64
	Done        bool
	Score       int
	Event       flappy.Event
}

// Env is the agent-facing view of one simulator instance.
type Env interface {
	// ID returns the registered environment id, e.g. "FlappyBird-v0".
	ID() string

	// Reset starts a new episode and returns the initial observation.
	Reset() (TimeStep, error)

	// Step applies one action and advances the world by one tick.
	Step(a core.Action) (TimeStep, error)

	// Snapshot returns the current world state for rendering.
	Snapshot() flappy.Snapshot
}

// GameEnv is the Env implementation shared by every registered id; only
// the observation encoder differs between them.
type GameEnv struct {
	id   string
	sim  *flappy.Simulator
	geom flappy.Geometry
	enc  Encoder

	last    flappy.Snapshot
	started bool
	done    bool
}

// New creates an environment around sim. Reset must be called before Step.
func New(id string, sim *flappy.Simulator, geom flappy.Geometry, enc Encoder) *GameEnv {
	return &GameEnv{
		id:   id,
		sim:  sim,
		geom: geom,
		enc:  enc,
	}
}

// ID returns the environment id.
func (e *GameEnv) ID() string {
	return e.id
}

// Encoder returns the observation encoder in use.
func (e *GameEnv) Encoder() Encoder {
	return e.enc
}

// Reset starts a new episode.
func (e *GameEnv) Reset() (TimeStep, error) {
	sn, err := e.sim.Reset(e.geom)
	if err != nil {
		return TimeStep{}, fmt.Errorf("env: reset %s: %w", e.id, err)
	}
	e.last = sn
	e.started = true
	e.done = false

	return TimeStep{
		Observation: e.enc.Encode(sn),
		Score:       sn.Score,
		Event:       sn.LastEvent,
	}, nil
}

// Step applies a and returns the next observation and reward.
func (e *GameEnv) Step(a core.Action) (TimeStep, error) {
	if e.started && e.done {
		return TimeStep{}, ErrEpisodeDone
	}

	alive, err := e.sim.Step(a)
	if err != nil {
		return TimeStep{}, fmt.Errorf("env: step %s: %w", e.id, err)
	}

	sn := e.sim.Snapshot()
	reward := e.enc.Reward(e.last, sn)
	e.last = sn
	e.done = !alive

	return TimeStep{
		Observation: e.enc.Encode(sn),
		Reward:      reward,
		Done:        e.done,
		Score:       sn.Score,
		Event:       sn.LastEvent,
	}, nil
}

// Snapshot returns the state after the last Reset or Step.
func (e *GameEnv) Snapshot() flappy.Snapshot {
	return e.last
}
