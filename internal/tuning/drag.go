package tuning

import (
	"context"
	"fmt"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/scenario"
)

const (
	ParamStiffness  = "stiffness"
	ParamRelaxation = "relaxation"

	// instabilityPenalty is added to the lag score per recovered substep.
	instabilityPenalty = 10.0
)

// DragLag returns an objective that plays the scripted drag scene with the
// drag spring set from params and scores the mean distance between pointer
// and grabbed point while the drag is active.
func DragLag(cfg *config.Config, logger dynamo.Logger, frameDt, duration float64) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		trial := *cfg
		if v, ok := params[ParamStiffness]; ok {
			trial.Drag.Stiffness = v
		}
		if v, ok := params[ParamRelaxation]; ok {
			trial.Drag.Relaxation = v
		}
		if err := trial.Validate(); err != nil {
			return 0, err
		}

		scene, err := scenario.NewRegistry().Get("drag")
		if err != nil {
			return 0, err
		}
		env, err := scenario.NewRunner(&trial, logger).Build(scene, 0)
		if err != nil {
			return 0, err
		}

		var lag float64
		var samples int
		frames := int(duration/frameDt + 1e-9)
		for i := 0; i < frames; i++ {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			scene.Frame(env, env.World.Time())
			env.World.Step(frameDt)
			if env.Drag.Active() {
				lag += env.Drag.Joint().Separation()
				samples++
			}
		}
		if samples == 0 {
			return 0, fmt.Errorf("drag never engaged in %.2fs", duration)
		}

		stats := env.World.Stats()
		return lag/float64(samples) + instabilityPenalty*float64(stats.Instabilities), nil
	}
}
