package analysis

import (
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Upload consistency classes over the coefficient of variation of
// inter-upload gaps. Lower is better.
const (
	ConsistencyHigh      = "highly_consistent"
	ConsistencyGood      = "consistent"
	ConsistencyVariable  = "variable"
	ConsistencyIrregular = "irregular"
	ConsistencyUnknown   = "unknown"
)

// ConsistencyClass buckets an upload-gap coefficient of variation.
func ConsistencyClass(cv float64) string {
	switch {
	case cv < 0.2:
		return ConsistencyHigh
	case cv < 0.5:
		return ConsistencyGood
	case cv < 1.0:
		return ConsistencyVariable
	default:
		return ConsistencyIrregular
	}
}

// seriesMarkerRe matches explicit series numbering in titles.
var seriesMarkerRe = regexp.MustCompile(`(?i)\b(?:part|ep(?:isode)?)\s*#?\d+\b|#\d+\b`)

// ScoreGrowth computes upload cadence and format metrics.
func ScoreGrowth(s *model.ChannelSnapshot) model.GrowthBundle {
	consistency := model.MissingMetric()
	class := ConsistencyUnknown

	// Inter-upload gaps need at least three uploads to mean anything.
	if len(s.Videos) >= 3 {
		dates := make([]float64, 0, len(s.Videos))
		for _, v := range s.Videos {
			dates = append(dates, float64(v.PublishedAt.Unix())/86400)
		}
		sort.Float64s(dates)

		gaps := make([]float64, 0, len(dates)-1)
		for i := 1; i < len(dates); i++ {
			gaps = append(gaps, dates[i]-dates[i-1])
		}
		mean := stat.Mean(gaps, nil)
		if mean > 0 {
			cv := stat.StdDev(gaps, nil) / mean
			consistency = model.MetricOf(cv)
			class = ConsistencyClass(cv)
		}
	}

	seriesEffectiveness := scoreSeriesEffectiveness(s)

	var shorts, longs bool
	for _, v := range s.Videos {
		if v.IsShort {
			shorts = true
		} else {
			longs = true
		}
	}

	return model.GrowthBundle{
		UploadConsistency:   consistency,
		ConsistencyClass:    class,
		SeriesEffectiveness: seriesEffectiveness,
		MultiFormat:         shorts && longs,
	}
}

// scoreSeriesEffectiveness detects series by stripping explicit numbering
// markers and grouping the remaining base titles. The score is
// (series video count × their average engagement) / total videos, where
// engagement is the known comment count per series video.
func scoreSeriesEffectiveness(s *model.ChannelSnapshot) model.Metric {
	if len(s.Videos) == 0 {
		return model.MissingMetric()
	}

	groups := map[string][]*model.Video{}
	for i := range s.Videos {
		v := &s.Videos[i]
		if !seriesMarkerRe.MatchString(v.Title) {
			continue
		}
		base := strings.TrimSpace(seriesMarkerRe.ReplaceAllString(strings.ToLower(v.Title), ""))
		base = strings.Trim(base, " -:|—")
		if base == "" {
			continue
		}
		groups[base] = append(groups[base], v)
	}

	var seriesVideos int
	var engagementSum float64
	var engagementKnown int
	for _, vids := range groups {
		if len(vids) < 2 {
			continue
		}
		seriesVideos += len(vids)
		for _, v := range vids {
			if v.CommentCount.Valid {
				engagementSum += float64(v.CommentCount.Value)
				engagementKnown++
			}
		}
	}

	if seriesVideos == 0 {
		// No detected series is a real zero, not a missing value.
		return model.MetricOf(0)
	}
	if engagementKnown == 0 {
		// Series exist but their engagement counts are unknown.
		return model.MissingMetric()
	}

	avgEngagement := engagementSum / float64(engagementKnown)
	return model.MetricOf(float64(seriesVideos) * avgEngagement / float64(len(s.Videos)))
}
