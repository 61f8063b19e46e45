package registry

import (
	"strings"
	"testing"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/env"
)

func TestBuiltinsRegistered(t *testing.T) {
	list := List()
	if len(list) < 3 {
		t.Fatalf("List() returned %d envs, expected at least 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List() not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}

	for _, id := range []string{SimpleID, KinematicID, ScreenID} {
		if !Exists(id) {
			t.Errorf("Exists(%q) = false, expected true", id)
		}
	}
	if Exists("nope") {
		t.Error("Exists(nope) = true, expected false")
	}
}

func TestMake(t *testing.T) {
	tests := []struct {
		id         string
		rows, cols int
	}{
		{SimpleID, 2, 1},
		{KinematicID, 4, 1},
		{ScreenID, 128, 72},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			opts := DefaultOptions(config.DefaultFlappyConfig())
			opts.Seed = 5
			e, err := Make(tc.id, opts)
			if err != nil {
				t.Fatalf("Make(%q) failed: %v", tc.id, err)
			}
			if e.ID() != tc.id {
				t.Errorf("ID() = %q, expected %q", e.ID(), tc.id)
			}

			ts, err := e.Reset()
			if err != nil {
				t.Fatalf("Reset() failed: %v", err)
			}
			r, c := ts.Observation.Dims()
			if r != tc.rows || c != tc.cols {
				t.Errorf("observation dims = %dx%d, expected %dx%d", r, c, tc.rows, tc.cols)
			}
			if _, err := e.Step(core.ActionFlap); err != nil {
				t.Errorf("Step() failed: %v", err)
			}
		})
	}
}

func TestMakeFillsGeometry(t *testing.T) {
	e, err := Make(KinematicID, Options{Config: config.DefaultFlappyConfig(), Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Reset(); err != nil {
		t.Fatalf("Reset() with config geometry failed: %v", err)
	}
	if w := e.Snapshot().World.Width; w != 288 {
		t.Errorf("world width = %v, expected 288", w)
	}
}

func TestMakeUnknown(t *testing.T) {
	_, err := Make("FlappyBird-v9", Options{})
	if err == nil || !strings.Contains(err.Error(), "unknown env") {
		t.Errorf("Make(unknown) error = %v, expected unknown env", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(SimpleID, "dup", func(Options) env.Env { return nil })
}
