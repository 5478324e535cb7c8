package scenario

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/drag"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/impulse"
	"github.com/san-kum/rigidsim/internal/world"
)

// RunConfig controls a headless run. A zero Seed falls back to the config
// seed.
type RunConfig struct {
	FrameDt  float64
	Duration float64
	Seed     int64
}

type Result struct {
	Scenario string
	Times    []float64
	Tracked  []dynamo.Handle

	// Frames holds the tracked body states per recorded time, in the order
	// of Tracked.
	Frames  [][]dynamo.BodyState
	Metrics map[string]float64
	Stats   world.Stats
}

// Final returns the last recorded state of h.
func (r *Result) Final(h dynamo.Handle) (dynamo.BodyState, bool) {
	if len(r.Frames) == 0 {
		return dynamo.BodyState{}, false
	}
	for i, id := range r.Tracked {
		if id == h {
			return r.Frames[len(r.Frames)-1][i], true
		}
	}
	return dynamo.BodyState{}, false
}

type Runner struct {
	cfg     *config.Config
	logger  dynamo.Logger
	metrics []dynamo.Metric
}

func NewRunner(cfg *config.Config, logger dynamo.Logger) *Runner {
	if logger == nil {
		logger = dynamo.NopLogger()
	}
	return &Runner{cfg: cfg, logger: logger}
}

func (r *Runner) AddMetric(m dynamo.Metric) { r.metrics = append(r.metrics, m) }

// Build creates a world from the runner config and sets scene up in it.
func (r *Runner) Build(scene Scene, seed int64) (*Env, error) {
	opts, err := r.cfg.WorldOptions()
	if err != nil {
		return nil, err
	}
	w, err := world.New(opts, r.logger)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = r.cfg.Seed
	}

	policy := impulse.NewRandom(seed, r.cfg.Throw.Speed)
	env := &Env{
		World:  w,
		Policy: policy,
		Drag: drag.New(w, r.cfg.DragSoftness(), r.cfg.Drag.MaxForce,
			drag.WithReleasePolicy(policy),
			drag.WithLogger(r.logger)),
	}
	if err := scene.Setup(env); err != nil {
		return nil, fmt.Errorf("setup %s: %w", scene.Name(), err)
	}
	return env, nil
}

// Run steps scene for the configured duration. A cancelled context stops the
// run and returns what was recorded so far.
func (r *Runner) Run(ctx context.Context, scene Scene, rc RunConfig) (*Result, error) {
	if err := r.validateConfig(rc); err != nil {
		return nil, err
	}

	env, err := r.Build(scene, rc.Seed)
	if err != nil {
		return nil, err
	}

	for _, m := range r.metrics {
		m.Reset()
		env.World.AddObserver(dynamo.ObserverFunc(m.Observe))
	}

	frames := int(math.Floor(rc.Duration/rc.FrameDt + 1e-9))
	result := &Result{
		Scenario: scene.Name(),
		Tracked:  append([]dynamo.Handle(nil), env.Tracked...),
		Times:    make([]float64, 0, frames+1),
		Frames:   make([][]dynamo.BodyState, 0, frames+1),
		Metrics:  make(map[string]float64),
	}
	r.record(env, result)

	r.logger.Debugf("running %s for %d frames", scene.Name(), frames)

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			r.finish(env, result)
			return result, ctx.Err()
		default:
		}

		scene.Frame(env, env.World.Time())
		env.World.Step(rc.FrameDt)
		r.record(env, result)
	}

	r.finish(env, result)
	if result.Stats.Frozen > 0 {
		r.logger.Warnf("%s: %d bodies frozen after failed recovery", scene.Name(), result.Stats.Frozen)
	}
	return result, nil
}

func (r *Runner) record(env *Env, result *Result) {
	states := make([]dynamo.BodyState, len(result.Tracked))
	for i, h := range result.Tracked {
		if b, ok := env.World.Body(h); ok {
			states[i] = b.State()
		}
	}
	result.Times = append(result.Times, env.World.Time())
	result.Frames = append(result.Frames, states)
}

func (r *Runner) finish(env *Env, result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Stats = env.World.Stats()
}

func (r *Runner) validateConfig(rc RunConfig) error {
	if !(rc.FrameDt > 0) || math.IsInf(rc.FrameDt, 0) {
		return dynamo.NewConfigError("frame_dt", rc.FrameDt, dynamo.ErrInvalidConfig)
	}
	if !(rc.Duration > 0) || math.IsInf(rc.Duration, 0) {
		return dynamo.NewConfigError("duration", rc.Duration, dynamo.ErrInvalidConfig)
	}
	return nil
}
