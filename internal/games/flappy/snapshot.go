package flappy

import (
	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Snapshot is a read-only copy of the simulator state handed to observation
// encoders and the presenter. Mutating it never affects the simulator.
type Snapshot struct {
	World     Geometry
	Dims      config.DimensionsConfig
	Player    Player
	Pairs     []Pair // Ordered left to right
	Ground    Ground
	Score     int
	Tick      int
	LastEvent Event
	Alive     bool
}

// Snapshot returns a copy of the current state.
func (s *Simulator) Snapshot() Snapshot {
	return Snapshot{
		World:     s.geom,
		Dims:      s.cfg.Dimensions,
		Player:    s.player,
		Pairs:     s.pairs.clone(),
		Ground:    s.ground,
		Score:     s.score,
		Tick:      s.tick,
		LastEvent: s.lastEvent,
		Alive:     s.Alive(),
	}
}

// PlayerRect returns the player's collision rectangle.
func (sn Snapshot) PlayerRect() core.Rect {
	return core.NewRect(sn.Player.X, sn.Player.Y, sn.Dims.PlayerWidth, sn.Dims.PlayerHeight)
}

// UpperRect returns the upper half rectangle of p.
func (sn Snapshot) UpperRect(p Pair) core.Rect {
	return p.UpperRect(sn.Dims.PipeWidth, sn.Dims.PipeHeight)
}

// LowerRect returns the lower half rectangle of p.
func (sn Snapshot) LowerRect(p Pair) core.Rect {
	return p.LowerRect(sn.Dims.PipeWidth, sn.Dims.PipeHeight, sn.World.GapSize)
}
