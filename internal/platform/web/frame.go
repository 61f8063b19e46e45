// Package web streams live agent play to browsers over a websocket.
package web

import (
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

// Frame is the JSON view of one simulator tick sent to browser clients.
// Coordinates are world units; the page scales them to its canvas.
type Frame struct {
	Episode int         `json:"episode"`
	Agent   string      `json:"agent"`
	Tick    int         `json:"tick"`
	Score   int         `json:"score"`
	Best    int         `json:"best"`
	Alive   bool        `json:"alive"`
	Event   string      `json:"event"`
	World   WorldFrame  `json:"world"`
	Player  PlayerFrame `json:"player"`
	Pairs   []PairFrame `json:"pairs"`
	GroundX float64     `json:"groundX"`
}

// WorldFrame carries the sizes needed to draw a frame.
type WorldFrame struct {
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	GroundY    float64    `json:"groundY"`
	Gap        float64    `json:"gap"`
	PipeWidth  float64    `json:"pipeWidth"`
	PlayerSize [2]float64 `json:"playerSize"`
}

// PlayerFrame is the drawable player state.
type PlayerFrame struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VelY     float64 `json:"velY"`
	Rotation float64 `json:"rotation"`
	Anim     int     `json:"anim"`
}

// PairFrame is one obstacle pair.
type PairFrame struct {
	X    float64 `json:"x"`
	GapY float64 `json:"gapY"`
}

// NewFrame converts a snapshot into a frame.
func NewFrame(sn flappy.Snapshot) Frame {
	pairs := make([]PairFrame, len(sn.Pairs))
	for i, p := range sn.Pairs {
		pairs[i] = PairFrame{X: p.X, GapY: p.GapY}
	}

	return Frame{
		Tick:  sn.Tick,
		Score: sn.Score,
		Alive: sn.Alive,
		Event: sn.LastEvent.String(),
		World: WorldFrame{
			Width:      sn.World.Width,
			Height:     sn.World.Height,
			GroundY:    sn.Ground.Y,
			Gap:        sn.World.GapSize,
			PipeWidth:  sn.Dims.PipeWidth,
			PlayerSize: [2]float64{sn.Dims.PlayerWidth, sn.Dims.PlayerHeight},
		},
		Player: PlayerFrame{
			X:        sn.Player.X,
			Y:        sn.Player.Y,
			VelY:     sn.Player.VelY,
			Rotation: sn.Player.Rotation,
			Anim:     sn.Player.AnimIndex,
		},
		Pairs:   pairs,
		GroundX: sn.Ground.X,
	}
}
