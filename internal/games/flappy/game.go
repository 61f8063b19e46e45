package flappy

import (
	"fmt"
	"time"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Game wraps a Simulator for interactive play: pause handling, game-over
// latching and message overlays on top of the presenter.
type Game struct {
	cfg      config.FlappyConfig
	geom     Geometry
	sim      *Simulator
	paused   bool
	gameOver bool
}

// NewGame creates a playable game using the world geometry from cfg.
func NewGame(cfg config.FlappyConfig) *Game {
	return &Game{
		cfg:  cfg,
		geom: DefaultGeometry(cfg),
	}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return "flappy"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Flappy Bird"
}

// Reset initializes or restarts the game. A zero seed picks a time-based one.
func (g *Game) Reset(rt core.RuntimeConfig) error {
	seed := rt.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g.sim = New(g.cfg, WithSeed(seed))
	if _, err := g.sim.Reset(g.geom); err != nil {
		return err
	}
	g.paused = false
	g.gameOver = false
	return nil
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.GameState {
	if g.sim == nil || g.gameOver {
		return g.State()
	}

	if in.Has(core.CommandPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return g.State()
	}

	alive, err := g.sim.Step(in.Action())
	if err != nil || !alive {
		g.gameOver = true
	}
	return g.State()
}

// Snapshot returns the current simulator state.
func (g *Game) Snapshot() Snapshot {
	if g.sim == nil {
		return Snapshot{}
	}
	return g.sim.Snapshot()
}

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	if g.sim == nil {
		dst.Clear()
		return
	}
	Render(dst, g.sim.Snapshot())

	if g.paused {
		drawCenteredMessage(dst, "PAUSED", "Press P to resume")
	}
	if g.gameOver {
		drawCenteredMessage(dst, "GAME OVER", fmt.Sprintf("Score: %d  |  Press R to restart", g.sim.Score()))
	}
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := core.Max(len(title), len(subtitle)) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	dst.FillRect(boxX, boxY, boxX+boxW, boxY+boxH, ' ', core.ColorDefault)
	dst.DrawBox(boxX, boxY, boxW, boxH)

	dst.DrawText(boxX+(boxW-len(title))/2, boxY+1, title)
	dst.DrawText(boxX+(boxW-len(subtitle))/2, boxY+3, subtitle)
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	score := 0
	if g.sim != nil {
		score = g.sim.Score()
	}
	return core.GameState{
		Score:    score,
		GameOver: g.gameOver,
		Paused:   g.paused,
	}
}
