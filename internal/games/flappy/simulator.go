// Package flappy implements a Flappy Bird-style simulator.
// The player controls a bird that must navigate through gaps between pairs
// of obstacles while the world scrolls left at a constant speed. The
// simulator is deterministic given its random source and advances exactly
// one tick per Step call.
package flappy

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Layout constants of the world, relative to its dimensions.
const (
	PlayerXRatio      = 0.2  // Player x as a fraction of world width
	GapMinRatio       = 0.2  // Lowest gap top as a fraction of ground height
	GapRangeRatio     = 0.6  // Gap placement span as a fraction of ground height
	FirstPairOffset   = 200  // Initial pair distance past the right edge
	SpawnOffset       = 10   // Later pairs spawn this far past the right edge
	SpawnWindow       = 5    // Spawn when the leftmost pair enters (0, SpawnWindow)
	ScoreBand         = 4    // Width of the horizontal scoring band
	CeilingFactor     = 2    // Flaps are ignored above -CeilingFactor*player height
	FlapRotation      = 45   // Rotation right after a flap, in degrees
	MinRotation       = -90  // Rotation never decreases below this
	MinPlacementRange = 1.0  // Smallest allowed random range for gap placement
	TickPeriod        = 30   // Tick counter wraps at this value
	AnimEvery         = 3    // Animation index advances every AnimEvery ticks
	CrashMargin       = 1.0  // Ground strike fires this far above the ground line
)

// animCycle is the repeating wing animation sequence.
var animCycle = [...]int{0, 1, 2, 1}

// Event is the most recent tick's notable event, used for audio cues.
type Event int

const (
	EventNone Event = iota
	EventFlap
	EventScore
	EventCrash
)

// String returns a human-readable name for the event.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventFlap:
		return "flap"
	case EventScore:
		return "score"
	case EventCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// Geometry is the world size and the vertical gap between pair halves.
type Geometry struct {
	Width   float64
	Height  float64
	GapSize float64
}

// DefaultGeometry returns the world geometry named by the config.
func DefaultGeometry(cfg config.FlappyConfig) Geometry {
	return Geometry{
		Width:   cfg.World.Width,
		Height:  cfg.World.Height,
		GapSize: cfg.World.PipeGap,
	}
}

// Player is the controlled entity.
type Player struct {
	X         float64 // Fixed horizontal position (left edge)
	Y         float64 // Top of the hitbox
	VelY      float64 // Vertical velocity (negative = up)
	Rotation  float64 // Degrees, +45 after a flap down to -90
	AnimIndex int     // Wing frame, consumed by the presenter only
}

// Ground is the horizontally scrolling floor.
type Ground struct {
	X float64 // Scroll offset, visual only
	Y float64 // Ground line
}

// Simulator owns all mutable state of one episode.
// It is not safe for concurrent use.
type Simulator struct {
	cfg  config.FlappyConfig
	rng  *rand.Rand
	geom Geometry

	player    Player
	flapped   bool
	pairs     pairQueue
	ground    Ground
	score     int
	tick      int
	animStep  int
	lastEvent Event

	ready bool // Reset has been called at least once
	alive bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand injects the random source used for obstacle placement.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		s.rng = r
	}
}

// WithSeed seeds a private random source for obstacle placement.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// New creates a simulator. Reset must be called before Step.
func New(cfg config.FlappyConfig, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:   cfg,
		pairs: pairQueue{items: make([]Pair, 0, 4)},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() config.FlappyConfig {
	return s.cfg
}

// Reset starts a new episode with the given geometry and returns the
// initial state.
func (s *Simulator) Reset(geom Geometry) (Snapshot, error) {
	if err := s.validate(geom); err != nil {
		return Snapshot{}, err
	}

	dims := s.cfg.Dimensions
	s.geom = geom
	s.player = Player{
		X:        math.Trunc(geom.Width * PlayerXRatio),
		Y:        math.Trunc((geom.Height - dims.PlayerHeight) / 2),
		VelY:     s.cfg.Physics.PlayerFlapAcc,
		Rotation: FlapRotation,
	}
	s.flapped = false
	s.ground = Ground{X: 0, Y: geom.Height * s.cfg.World.GroundRatio}
	s.score = 0
	s.tick = 0
	s.animStep = 0
	s.lastEvent = EventNone

	s.pairs.reset()
	s.pairs.push(s.generatePair(geom.Width + FirstPairOffset))
	s.pairs.push(s.generatePair(geom.Width + FirstPairOffset + geom.Width/2))

	s.ready = true
	s.alive = true
	return s.Snapshot(), nil
}

// validate rejects a config the simulator cannot run with, and geometry for
// which obstacle placement would be degenerate.
func (s *Simulator) validate(geom Geometry) error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	if geom.Width <= 0 || geom.Height <= 0 {
		return fmt.Errorf("%w: world %vx%v must be positive", ErrInvalidGeometry, geom.Width, geom.Height)
	}
	if geom.GapSize <= 0 {
		return fmt.Errorf("%w: gap size %v must be positive", ErrInvalidGeometry, geom.GapSize)
	}
	groundY := geom.Height * s.cfg.World.GroundRatio
	if span := GapRangeRatio*groundY - geom.GapSize; span < MinPlacementRange {
		return fmt.Errorf("%w: gap size %v leaves placement range %v, need at least %v",
			ErrInvalidGeometry, geom.GapSize, span, MinPlacementRange)
	}
	return nil
}

// Step advances the simulation by one tick. It returns false once the
// player has crashed; no state changes on that tick beyond the crash event.
func (s *Simulator) Step(a core.Action) (bool, error) {
	if !s.ready {
		return false, ErrNotReset
	}
	if !s.alive {
		return false, ErrEpisodeOver
	}
	if !a.Valid() {
		return false, fmt.Errorf("flappy: %w: %d", core.ErrInvalidAction, int(a))
	}

	phys := s.cfg.Physics
	dims := s.cfg.Dimensions

	s.lastEvent = EventNone

	if a == core.ActionFlap && s.player.Y > -CeilingFactor*dims.PlayerHeight {
		s.player.VelY = phys.PlayerFlapAcc
		s.flapped = true
		s.lastEvent = EventFlap
	}

	// Collision is tested against the pre-movement position
	if s.CheckCrash() {
		s.lastEvent = EventCrash
		s.alive = false
		return false, nil
	}

	s.updateScore()
	s.advanceCounters()

	if s.player.Rotation > MinRotation {
		s.player.Rotation -= phys.PlayerVelRot
	}

	if s.player.VelY < phys.PlayerMaxVelY && !s.flapped {
		s.player.VelY = math.Min(s.player.VelY+phys.PlayerAccY, phys.PlayerMaxVelY)
	}

	if s.flapped {
		s.flapped = false
		s.player.Rotation = FlapRotation
	}

	// Never descend past the ground; the next tick's crash test catches it
	s.player.Y += math.Min(s.player.VelY, s.ground.Y-s.player.Y-dims.PlayerHeight)

	s.pairs.scroll(phys.PipeVelX)
	s.spawnAndEvict()

	return true, nil
}

// updateScore awards a point for every pair whose center the player's
// center has just entered the score band of.
func (s *Simulator) updateScore() {
	s.mustHavePairs("scoring")

	dims := s.cfg.Dimensions
	playerMid := s.player.X + dims.PlayerWidth/2
	for i := range s.pairs.items {
		p := &s.pairs.items[i]
		if p.Scored {
			continue
		}
		pipeMid := p.Center(dims.PipeWidth)
		if pipeMid <= playerMid && playerMid < pipeMid+ScoreBand {
			p.Scored = true
			s.score++
			s.lastEvent = EventScore
		}
	}
}

// advanceCounters steps the animation cadence and the ground scroll.
func (s *Simulator) advanceCounters() {
	if (s.tick+1)%AnimEvery == 0 {
		s.player.AnimIndex = animCycle[s.animStep]
		s.animStep = (s.animStep + 1) % len(animCycle)
	}
	s.tick = (s.tick + 1) % TickPeriod

	shift := s.cfg.Dimensions.BaseShift()
	s.ground.X = -math.Mod(-s.ground.X+s.cfg.Physics.GroundScroll, shift)
}

// spawnAndEvict appends one pair when the leftmost enters the spawn window
// and drops the leftmost once it is fully off-screen.
func (s *Simulator) spawnAndEvict() {
	front := s.pairs.front()
	if front == nil {
		return
	}
	if !front.spawned && front.X > 0 && front.X < SpawnWindow {
		front.spawned = true
		s.pairs.push(s.generatePair(s.geom.Width + SpawnOffset))
	}
	if front := s.pairs.front(); front.X < -s.cfg.Dimensions.PipeWidth {
		s.pairs.popFront()
	}
}

// generatePair draws a new pair at x with a uniformly placed gap.
func (s *Simulator) generatePair(x float64) Pair {
	groundY := s.geom.Height * s.cfg.World.GroundRatio
	span := GapRangeRatio*groundY - s.geom.GapSize
	return Pair{
		X:    x,
		GapY: GapMinRatio*groundY + s.rng.Float64()*span,
	}
}

// CheckCrash reports whether the player strikes the ground or overlaps
// either half of any live pair at its current position.
func (s *Simulator) CheckCrash() bool {
	dims := s.cfg.Dimensions
	if s.player.Y+dims.PlayerHeight >= s.ground.Y-CrashMargin {
		return true
	}

	s.mustHavePairs("collision")

	pr := s.playerRect()
	for _, p := range s.pairs.items {
		upper := p.UpperRect(dims.PipeWidth, dims.PipeHeight)
		lower := p.LowerRect(dims.PipeWidth, dims.PipeHeight, s.geom.GapSize)
		if Collides(pr, upper) || Collides(pr, lower) {
			return true
		}
	}
	return false
}

// Collides is the axis-aligned overlap test used for all obstacle checks.
func Collides(a, b core.Rect) bool {
	return a.Intersects(b)
}

// playerRect returns the player's collision rectangle.
func (s *Simulator) playerRect() core.Rect {
	dims := s.cfg.Dimensions
	return core.NewRect(s.player.X, s.player.Y, dims.PlayerWidth, dims.PlayerHeight)
}

// mustHavePairs guards the spawn/evict invariant.
func (s *Simulator) mustHavePairs(stage string) {
	if s.pairs.len() == 0 {
		panic(fmt.Sprintf("flappy: no live obstacle pairs during %s", stage))
	}
}

// Alive reports whether the current episode is still running.
func (s *Simulator) Alive() bool {
	return s.ready && s.alive
}

// Score returns the current episode score.
func (s *Simulator) Score() int {
	return s.score
}

// LastEvent returns the most recent tick's event.
func (s *Simulator) LastEvent() Event {
	return s.lastEvent
}
