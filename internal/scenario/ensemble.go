package scenario

import (
	"context"
	"math"
	"sync"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Ensemble runs one scene over consecutive seeds, one world per goroutine.
// Worlds share nothing, so runs are independent and repeatable per seed.
type Ensemble struct {
	cfg       *config.Config
	logger    dynamo.Logger
	metrics   func() []dynamo.Metric
	numRuns   int
	seedStart int64
}

// NewEnsemble builds an ensemble; metrics is called once per run since
// metrics keep per-run state.
func NewEnsemble(cfg *config.Config, logger dynamo.Logger, numRuns int, seedStart int64, metrics func() []dynamo.Metric) *Ensemble {
	return &Ensemble{cfg: cfg, logger: logger, metrics: metrics, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, scene func() Scene, rc RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			rcCopy := rc
			rcCopy.Seed = e.seedStart + int64(idx)

			r := NewRunner(e.cfg, e.logger)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}
			results[idx], errs[idx] = r.Run(ctx, scene(), rcCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Spread summarises one metric across results.
type Spread struct {
	Mean, Min, Max float64
}

func MetricSpread(results []*Result, name string) Spread {
	if len(results) == 0 {
		return Spread{}
	}
	s := Spread{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, r := range results {
		v := r.Metrics[name]
		s.Mean += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean /= float64(len(results))
	return s
}
