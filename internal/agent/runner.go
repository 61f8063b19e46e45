package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/flappy-gym/internal/env"
	"github.com/vovakirdan/flappy-gym/internal/registry"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

// EpisodeResult summarizes one finished episode.
type EpisodeResult struct {
	Env       string
	Agent     string
	Seed      int64
	Score     int
	Steps     int
	Truncated bool // Stopped by the step cap rather than a crash
}

// Record converts the result into a storage row.
func (r EpisodeResult) Record() storage.Episode {
	return storage.Episode{
		EnvID: r.Env,
		Agent: r.Agent,
		Seed:  r.Seed,
		Score: r.Score,
		Steps: r.Steps,
	}
}

// EpisodeSaver persists finished episodes.
type EpisodeSaver interface {
	SaveEpisode(ep storage.Episode) (int64, error)
}

// StepFunc observes every step of an episode. Returning an error stops it.
type StepFunc func(ts env.TimeStep) error

// PlayEpisode resets e and lets a act until the episode ends, maxSteps is
// reached (0 = unbounded) or ctx is cancelled.
func PlayEpisode(ctx context.Context, e env.Env, a Agent, maxSteps int, onStep StepFunc) (EpisodeResult, error) {
	res := EpisodeResult{Env: e.ID(), Agent: a.Name()}

	ts, err := e.Reset()
	if err != nil {
		return res, err
	}
	if err := CheckObservation(a, ts.Observation); err != nil {
		return res, fmt.Errorf("%s on %s: %w", res.Agent, res.Env, err)
	}

	for !ts.Done {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if maxSteps > 0 && res.Steps >= maxSteps {
			res.Truncated = true
			break
		}

		ts, err = e.Step(a.Act(ts.Observation))
		if err != nil {
			return res, err
		}
		res.Steps++
		res.Score = ts.Score

		if onStep != nil {
			if err := onStep(ts); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// Compatible builds one envID environment and reports whether the agents
// made by f can read its observations.
func Compatible(f Factory, envID string, opts registry.Options) error {
	e, err := registry.Make(envID, opts)
	if err != nil {
		return err
	}
	ts, err := e.Reset()
	if err != nil {
		return err
	}
	a := f(opts.Seed)
	if err := CheckObservation(a, ts.Observation); err != nil {
		return fmt.Errorf("%s on %s: %w", a.Name(), envID, err)
	}
	return nil
}

// Runner plays batches of episodes across a pool of workers.
type Runner struct {
	EnvID    string
	Options  registry.Options
	Agent    Factory
	Workers  int          // Defaults to 1
	MaxSteps int          // 0 = until crash
	BaseSeed int64        // Episode i uses BaseSeed+i; 0 = time based
	Store    EpisodeSaver // Optional
	Logger   *log.Logger  // Optional
}

// Run plays n episodes and returns their results in episode order. The
// first error cancels the remaining episodes.
func (r *Runner) Run(ctx context.Context, n int) ([]EpisodeResult, error) {
	if !registry.Exists(r.EnvID) {
		return nil, fmt.Errorf("agent: unknown env %q", r.EnvID)
	}
	if r.Agent == nil {
		return nil, fmt.Errorf("agent: runner has no agent")
	}
	if n < 0 {
		return nil, fmt.Errorf("agent: episode count %d is negative", n)
	}
	if err := Compatible(r.Agent, r.EnvID, r.Options); err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	baseSeed := r.BaseSeed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	results := make([]EpisodeResult, n)
	jobs := make(chan int)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for i := range jobs {
				res, err := r.runOne(groupCtx, baseSeed+int64(i))
				if err != nil {
					return fmt.Errorf("agent: episode %d: %w", i, err)
				}
				results[i] = res
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, seed int64) (EpisodeResult, error) {
	opts := r.Options
	opts.Seed = seed
	e, err := registry.Make(r.EnvID, opts)
	if err != nil {
		return EpisodeResult{}, err
	}

	res, err := PlayEpisode(ctx, e, r.Agent(seed), r.MaxSteps, nil)
	if err != nil {
		return res, err
	}
	res.Seed = seed

	if r.Logger != nil {
		r.Logger.Debug("episode finished",
			"env", res.Env, "agent", res.Agent, "seed", seed,
			"score", res.Score, "steps", res.Steps, "truncated", res.Truncated)
	}

	if r.Store != nil {
		if _, err := r.Store.SaveEpisode(res.Record()); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Summary aggregates a batch of results.
type Summary struct {
	Episodes  int
	Best      int
	Mean      float64
	MeanSteps float64
}

// Summarize aggregates results.
func Summarize(results []EpisodeResult) Summary {
	s := Summary{Episodes: len(results)}
	if len(results) == 0 {
		return s
	}
	var scores, steps int
	for _, r := range results {
		scores += r.Score
		steps += r.Steps
		if r.Score > s.Best {
			s.Best = r.Score
		}
	}
	s.Mean = float64(scores) / float64(len(results))
	s.MeanSteps = float64(steps) / float64(len(results))
	return s
}
