package env

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

var testGeom = flappy.Geometry{Width: 288, Height: 512, GapSize: 100}

func newTestEnv(enc Encoder) *GameEnv {
	sim := flappy.New(config.DefaultFlappyConfig(), flappy.WithSeed(11))
	return New("test-v0", sim, testGeom, enc)
}

// runUntilDone steps with noop until the episode ends, returning the
// number of steps and the summed reward.
func runUntilDone(e *GameEnv) (int, float64) {
	steps, total := 0, 0.0
	for {
		ts, err := e.Step(core.ActionNoop)
		So(err, ShouldBeNil)
		steps++
		total += ts.Reward
		if ts.Done {
			return steps, total
		}
	}
}

func TestGameEnv(t *testing.T) {
	Convey("Given a kinematic environment", t, func() {
		e := newTestEnv(Kinematic{})

		Convey("Step before Reset fails", func() {
			_, err := e.Step(core.ActionNoop)
			So(errors.Is(err, flappy.ErrNotReset), ShouldBeTrue)
		})

		Convey("When it is reset", func() {
			ts, err := e.Reset()
			So(err, ShouldBeNil)
			sn := e.Snapshot()

			Convey("The observation describes the player and the first pair", func() {
				rows, cols := ts.Observation.Dims()
				So(rows, ShouldEqual, 4)
				So(cols, ShouldEqual, 1)
				So(ts.Observation.At(0, 0), ShouldEqual, 244.0)
				So(ts.Observation.At(1, 0), ShouldEqual, -9.0)
				So(ts.Observation.At(2, 0), ShouldEqual, float64(488+26-57))
				So(ts.Observation.At(3, 0), ShouldEqual, sn.Pairs[0].GapY)
				So(ts.Done, ShouldBeFalse)
				So(ts.Score, ShouldEqual, 0)
			})

			Convey("Falling without flapping ends the episode on step 32 with no reward", func() {
				steps, total := runUntilDone(e)
				So(steps, ShouldEqual, 32)
				So(total, ShouldEqual, 0.0)
				So(e.Snapshot().LastEvent, ShouldEqual, flappy.EventCrash)

				Convey("Further steps are rejected until the next Reset", func() {
					_, err := e.Step(core.ActionFlap)
					So(err, ShouldEqual, ErrEpisodeDone)

					_, err = e.Reset()
					So(err, ShouldBeNil)
					_, err = e.Step(core.ActionFlap)
					So(err, ShouldBeNil)
				})
			})

			Convey("Invalid actions are rejected", func() {
				_, err := e.Step(core.Action(3))
				So(errors.Is(err, core.ErrInvalidAction), ShouldBeTrue)
			})
		})
	})

	Convey("Given an environment with impossible geometry", t, func() {
		sim := flappy.New(config.DefaultFlappyConfig(), flappy.WithSeed(1))
		e := New("bad-v0", sim, flappy.Geometry{Width: 288, Height: 512, GapSize: 300}, Simple{})

		Convey("Reset reports the geometry error", func() {
			_, err := e.Reset()
			So(errors.Is(err, flappy.ErrInvalidGeometry), ShouldBeTrue)
		})
	})
}

func TestSimpleEncoder(t *testing.T) {
	Convey("Given a simple environment", t, func() {
		Convey("Raw distances follow the player and the first pair", func() {
			e := newTestEnv(Simple{})
			ts, err := e.Reset()
			So(err, ShouldBeNil)
			gapY := e.Snapshot().Pairs[0].GapY

			So(ts.Observation.At(0, 0), ShouldEqual, float64(488+26-(57-17)+HitboxFudge))
			So(ts.Observation.At(1, 0), ShouldAlmostEqual, gapY+50-(244+12), 1e-9)
		})

		Convey("Normalized distances are scaled by the world size", func() {
			e := newTestEnv(Simple{Normalize: true})
			ts, err := e.Reset()
			So(err, ShouldBeNil)
			gapY := e.Snapshot().Pairs[0].GapY

			So(ts.Observation.At(0, 0), ShouldAlmostEqual, float64(488+26-(57-17)+HitboxFudge)/288, 1e-9)
			So(ts.Observation.At(1, 0), ShouldAlmostEqual, (gapY+50-256)/512, 1e-9)
		})

		Convey("Every step including the crash is worth 1", func() {
			e := newTestEnv(Simple{})
			_, err := e.Reset()
			So(err, ShouldBeNil)
			steps, total := runUntilDone(e)
			So(total, ShouldEqual, float64(steps))
		})
	})
}

func TestKinematicReward(t *testing.T) {
	Convey("The kinematic reward is the score delta", t, func() {
		prev := flappy.Snapshot{Score: 3}
		So(Kinematic{}.Reward(prev, flappy.Snapshot{Score: 4}), ShouldEqual, 1.0)
		So(Kinematic{}.Reward(prev, flappy.Snapshot{Score: 3}), ShouldEqual, 0.0)
	})

	Convey("With no pair ahead the distance terms are zero", t, func() {
		obs := Kinematic{}.Encode(flappy.Snapshot{Player: flappy.Player{X: 57, Y: 10}})
		So(obs.At(0, 0), ShouldEqual, 10.0)
		So(obs.At(2, 0), ShouldEqual, 0.0)
		So(obs.At(3, 0), ShouldEqual, 0.0)
	})
}

func TestScreenEncoder(t *testing.T) {
	Convey("Given a screen environment", t, func() {
		enc := Screen{Cols: 72, Rows: 128}
		e := newTestEnv(enc)
		ts, err := e.Reset()
		So(err, ShouldBeNil)

		Convey("The observation is a Rows x Cols intensity image", func() {
			rows, cols := ts.Observation.Dims()
			So(rows, ShouldEqual, 128)
			So(cols, ShouldEqual, 72)
			So(mat.Max(ts.Observation), ShouldEqual, 1.0)
			So(mat.Min(ts.Observation), ShouldEqual, 0.0)
		})

		Convey("The bottom row is ground", func() {
			So(ts.Observation.At(127, 0), ShouldEqual, layerIntensity[flappy.LayerGround])
		})

		Convey("Shape matches the configured size", func() {
			r, c := enc.Shape()
			So(r, ShouldEqual, 128)
			So(c, ShouldEqual, 72)
		})
	})
}
