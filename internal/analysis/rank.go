package analysis

import (
	"context"
	"sort"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Ranking weights. Gap severity dominates; trend and competitor signals
// come from external collaborators and may be missing, in which case the
// remaining weights are renormalized rather than letting a silent zero
// drag the score.
const (
	wGapSeverity       = 0.4
	wTrendScore        = 0.3
	wCommentEngagement = 0.2
	wCompetitorGap     = 0.1
)

// Fixed gap-severity mapping. Saturated gaps are never ranked.
const (
	severityTrueGap        = 100.0
	severityUnderExplained = 60.0
)

// TrendSource supplies external trend and competitor-gap signals for a
// topic. Either metric may be missing when the collaborator has no data.
type TrendSource interface {
	TopicSignals(ctx context.Context, topic string) (trend, competitorGap model.Metric, err error)
}

// StaticTrendSource is a fixed in-memory trend source, used in tests and
// when no external collaborator is configured.
type StaticTrendSource struct {
	Trends      map[string]model.Metric
	Competitors map[string]model.Metric
}

func (s StaticTrendSource) TopicSignals(_ context.Context, topic string) (model.Metric, model.Metric, error) {
	return s.Trends[topic], s.Competitors[topic], nil
}

// Ranker turns verified gaps into an ordered opportunity list.
type Ranker struct {
	Trends TrendSource
}

// Rank scores and orders the rankable gaps and splits off the saturated
// ones, which are reported as "already covered" and never ranked. The
// top-ranked opportunity is flagged hero only if it is a TRUE_GAP; an
// under-explained item is never promoted to hero, even on score.
func (r Ranker) Rank(ctx context.Context, gaps []model.Gap) (opportunities []model.Opportunity, alreadyCovered []model.Gap, err error) {
	for _, g := range gaps {
		if g.Status == model.GapSaturated {
			alreadyCovered = append(alreadyCovered, g)
			continue
		}

		var trend, competitor model.Metric
		if r.Trends != nil {
			trend, competitor, err = r.Trends.TopicSignals(ctx, g.Topic)
			if err != nil {
				return nil, nil, err
			}
		}

		opportunities = append(opportunities, model.Opportunity{
			Gap:          g,
			Influence:    influence(g, trend, competitor),
			OverallScore: overallScore(g, trend, competitor),
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].OverallScore != opportunities[j].OverallScore {
			return opportunities[i].OverallScore > opportunities[j].OverallScore
		}
		if opportunities[i].Frequency != opportunities[j].Frequency {
			return opportunities[i].Frequency > opportunities[j].Frequency
		}
		if opportunities[i].Recency != opportunities[j].Recency {
			return opportunities[i].Recency > opportunities[j].Recency
		}
		return opportunities[i].Topic < opportunities[j].Topic
	})

	for i := range opportunities {
		if opportunities[i].Status == model.GapTrue {
			opportunities[i].Hero = true
			break
		}
	}

	SortGaps(alreadyCovered)
	return opportunities, alreadyCovered, nil
}

func gapSeverityScore(status model.GapStatus) float64 {
	if status == model.GapTrue {
		return severityTrueGap
	}
	return severityUnderExplained
}

// commentEngagementScore proxies per-topic engagement from how many
// high-signal comments raised it.
func commentEngagementScore(g model.Gap) model.Metric {
	score := float64(g.Frequency) * 10
	if score > 100 {
		score = 100
	}
	return model.MetricOf(score)
}

func influence(g model.Gap, trend, competitor model.Metric) model.InfluenceScores {
	return model.InfluenceScores{
		GapSeverity:       gapSeverityScore(g.Status),
		TrendScore:        trend,
		CommentEngagement: commentEngagementScore(g),
		CompetitorGap:     competitor,
	}
}

// overallScore is the weighted blend of the present components, with the
// weights renormalized over what is actually available.
func overallScore(g model.Gap, trend, competitor model.Metric) float64 {
	terms := []model.WeightedTerm{
		model.Term(wGapSeverity, model.MetricOf(gapSeverityScore(g.Status))),
		model.Term(wCommentEngagement, commentEngagementScore(g)),
	}
	if trend.Valid {
		terms = append(terms, model.Term(wTrendScore, trend))
	}
	if competitor.Valid {
		terms = append(terms, model.Term(wCompetitorGap, competitor))
	}

	var sum, weight float64
	for _, t := range terms {
		sum += t.Weight * t.Metric.Value
		weight += t.Weight
	}
	return sum / weight
}
