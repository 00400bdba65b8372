package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Engine fans the seven scorers out over one immutable snapshot. The
// scorers are pure functions with no shared mutable state, so the only
// coordination needed is the fan-in barrier before verification.
type Engine struct {
	// Parallelism bounds concurrent scorers; zero means unbounded.
	Parallelism int
}

// Run executes all seven scorers and assembles the metric set. Each
// goroutine writes a distinct field, and the errgroup wait is the fan-in
// barrier. Output is deterministic regardless of scheduling: re-running on
// the same snapshot yields byte-identical bundles.
func (e Engine) Run(ctx context.Context, s *model.ChannelSnapshot) (model.MetricSet, error) {
	g, ctx := errgroup.WithContext(ctx)
	if e.Parallelism > 0 {
		g.SetLimit(e.Parallelism)
	}

	var set model.MetricSet
	scorers := []func() error{
		func() error { set.Engagement = ScoreEngagement(s); return nil },
		func() error { set.Landscape = ScoreLandscape(s); return nil },
		func() error { set.Demand = ScoreDemand(s); return nil },
		func() error { set.Satisfaction = ScoreSatisfaction(s); return nil },
		func() error { set.SEO = ScoreSEO(s); return nil },
		func() error { set.Growth = ScoreGrowth(s); return nil },
		func() error { set.Titles = ScoreTitles(s); return nil },
	}
	for _, scorer := range scorers {
		scorer := scorer
		g.Go(func() error {
			// Cancellation is cooperative: an already-running scorer
			// finishes, but nothing new starts.
			if err := ctx.Err(); err != nil {
				return err
			}
			return scorer()
		})
	}

	if err := g.Wait(); err != nil {
		return model.MetricSet{}, err
	}
	return set, nil
}
