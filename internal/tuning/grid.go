// Package tuning searches drag spring parameters for the best pointer feel.
package tuning

import (
	"context"
	"math"
	"sort"
)

type Axis struct {
	Name   string
	Values []float64
}

type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Objective scores one parameter set; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// GridSearch evaluates every combination of its axes.
type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Search returns the best trial and every trial sorted by score. Failed
// trials score +Inf. A cancelled context stops the search with ctx.Err().
func (g *GridSearch) Search(ctx context.Context, eval Objective) (Trial, []Trial, error) {
	var trials []Trial
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, eval, &trials); err != nil {
		return Trial{}, trials, err
	}

	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Score < trials[j].Score })
	if len(trials) == 0 {
		return Trial{Score: math.Inf(1)}, trials, nil
	}
	return trials[0], trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval Objective, trials *[]Trial) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.axes) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		score, err := eval(ctx, params)
		if err != nil {
			score = math.Inf(1)
		}
		*trials = append(*trials, Trial{Params: params, Score: score, Err: err})
		return nil
	}

	axis := g.axes[depth]
	for _, v := range axis.Values {
		current[axis.Name] = v
		if err := g.searchRecursive(ctx, depth+1, current, eval, trials); err != nil {
			return err
		}
	}
	delete(current, axis.Name)
	return nil
}
