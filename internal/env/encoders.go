package env

import (
	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

// HitboxFudge is added to the simple encoder's horizontal distance to
// compensate for the player's oversized hitbox.
const HitboxFudge = 3

// Encoder turns snapshots into observations and scores transitions.
type Encoder interface {
	// Encode builds the observation for sn.
	Encode(sn flappy.Snapshot) mat.Matrix

	// Reward scores the transition from prev to cur.
	Reward(prev, cur flappy.Snapshot) float64

	// Shape returns the observation dimensions (rows, cols).
	Shape() (rows, cols int)
}

// Kinematic observes [player y, player vy, dx to the next pair's centre,
// next pair gap y]. The reward is the score gained on the transition.
type Kinematic struct{}

// Encode implements Encoder.
func (Kinematic) Encode(sn flappy.Snapshot) mat.Matrix {
	obs := mat.NewVecDense(4, nil)
	obs.SetVec(0, sn.Player.Y)
	obs.SetVec(1, sn.Player.VelY)

	if p, ok := nextPairAhead(sn); ok {
		obs.SetVec(2, p.Center(sn.Dims.PipeWidth)-sn.Player.X)
		obs.SetVec(3, p.GapY)
	}
	return obs
}

// Reward implements Encoder.
func (Kinematic) Reward(prev, cur flappy.Snapshot) float64 {
	return float64(cur.Score - prev.Score)
}

// Shape implements Encoder.
func (Kinematic) Shape() (int, int) { return 4, 1 }

// nextPairAhead returns the first pair whose centre is still right of the
// player's left edge.
func nextPairAhead(sn flappy.Snapshot) (flappy.Pair, bool) {
	for _, p := range sn.Pairs {
		if p.Center(sn.Dims.PipeWidth) > sn.Player.X {
			return p, true
		}
	}
	return flappy.Pair{}, false
}

// Simple observes [h_dist, v_dist]: horizontal distance to the next pair
// and vertical offset from the player's centre to the gap's centre.
// Every surviving tick is worth 1.
type Simple struct {
	Normalize bool // Divide by world width and height
}

// Encode implements Encoder.
func (s Simple) Encode(sn flappy.Snapshot) mat.Matrix {
	var (
		pair  flappy.Pair
		hDist float64
	)
	for _, p := range sn.Pairs {
		pair = p
		hDist = p.Center(sn.Dims.PipeWidth) - (sn.Player.X - sn.Dims.PlayerWidth/2) + HitboxFudge
		if hDist >= 0 {
			break
		}
	}

	gapTop := pair.GapY
	gapBottom := pair.GapY + sn.World.GapSize
	vDist := (gapTop+gapBottom)/2 - (sn.Player.Y + sn.Dims.PlayerHeight/2)

	if s.Normalize && sn.World.Width > 0 && sn.World.Height > 0 {
		hDist /= sn.World.Width
		vDist /= sn.World.Height
	}
	return mat.NewVecDense(2, []float64{hDist, vDist})
}

// Reward implements Encoder.
func (Simple) Reward(_, _ flappy.Snapshot) float64 { return 1 }

// Shape implements Encoder.
func (Simple) Shape() (int, int) { return 2, 1 }

// Intensities of each layer in a Screen observation.
var layerIntensity = map[flappy.Layer]float64{
	flappy.LayerEmpty:  0,
	flappy.LayerGround: 0.25,
	flappy.LayerPipe:   0.5,
	flappy.LayerPlayer: 1,
}

// Screen observes a Rows×Cols intensity image of the world, rasterised the
// same way the terminal presenter draws it. Every surviving tick is worth 1.
type Screen struct {
	Cols, Rows int
}

// Encode implements Encoder.
func (s Screen) Encode(sn flappy.Snapshot) mat.Matrix {
	r := flappy.Rasterize(sn, s.Cols, s.Rows)
	data := make([]float64, len(r.Cells))
	for i, l := range r.Cells {
		data[i] = layerIntensity[l]
	}
	return mat.NewDense(s.Rows, s.Cols, data)
}

// Reward implements Encoder.
func (Screen) Reward(_, _ flappy.Snapshot) float64 { return 1 }

// Shape implements Encoder.
func (s Screen) Shape() (int, int) { return s.Rows, s.Cols }
