package analysis

import (
	"sort"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Demand-level boundaries for a topic's question frequency, in percent of
// all comments. The high boundary is exclusive: exactly 5% is moderate.
const (
	demandHighPct     = 5.0
	demandModeratePct = 2.0
)

// minPainPointMentions is the floor below which a term is noise, not demand.
const minPainPointMentions = 2

// DemandLevel buckets a question-frequency percentage.
func DemandLevel(pct float64) string {
	switch {
	case pct > demandHighPct:
		return model.DemandHigh
	case pct >= demandModeratePct:
		return model.DemandModerate
	default:
		return model.DemandLow
	}
}

// PainSeverity is the (frequency × intensity × recency) / 1000 formula over
// 1-10 sub-scales. Frequency above 10 mentions saturates its sub-scale.
func PainSeverity(frequency int, intensity, recency float64) model.Metric {
	f := float64(frequency)
	if f > 10 {
		f = 10
	}
	if f < 1 || intensity <= 0 || recency <= 0 {
		return model.MissingMetric()
	}
	return model.MetricOf(f * intensity * recency / 1000)
}

var strongPainPhrases = []string{
	"nothing works", "gave up", "impossible", "desperate", "so frustrating",
	"wasted", "hours trying",
}

// commentIntensity scores one comment's pain intensity on 1-10.
func commentIntensity(text string) float64 {
	score := 3.0
	if containsAny(text, painPhrases) {
		score += 2
	}
	if containsAny(text, strongPainPhrases) {
		score += 2
	}
	if containsAny(text, []string{"?"}) {
		score += 1
	}
	if containsAny(text, []string{"!"}) {
		score += 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

// commentRecency scores a comment's age on 1-10, relative to the snapshot's
// FetchedAt so the result never depends on when the pipeline runs.
func commentRecency(c *model.Comment, s *model.ChannelSnapshot) float64 {
	age := s.FetchedAt.Sub(c.PublishedAt)
	days := age.Hours() / 24
	switch {
	case days <= 30:
		return 10
	case days <= 90:
		return 8
	case days <= 180:
		return 6
	case days <= 365:
		return 4
	default:
		return 2
	}
}

// ScoreDemand mines high-signal comments for recurring demand topics and
// emits ranked pain points. Grouping is deterministic: each signal comment
// is assigned to its most frequent content word (ties broken alphabetically).
func ScoreDemand(s *model.ChannelSnapshot) model.DemandBundle {
	signals := ExtractSignals(s)
	totalComments := float64(s.CommentTotal())

	// Global term frequency across all signal comments.
	termFreq := map[string]int{}
	signalWords := make([][]string, len(signals))
	for i, rec := range signals {
		words := contentWords(rec.Comment.Text)
		signalWords[i] = words
		seen := map[string]struct{}{}
		for _, w := range words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			termFreq[w]++
		}
	}

	// Assign each signal comment to its dominant term.
	groups := map[string][]int{}
	for i := range signals {
		best := ""
		for _, w := range signalWords[i] {
			if best == "" ||
				termFreq[w] > termFreq[best] ||
				(termFreq[w] == termFreq[best] && w < best) {
				best = w
			}
		}
		if best == "" {
			continue
		}
		groups[best] = append(groups[best], i)
	}

	questionFrequency := map[string]model.Metric{}
	var points []model.PainPoint
	for topic, idxs := range groups {
		if len(idxs) < minPainPointMentions {
			continue
		}

		freqPct := model.Percent(float64(len(idxs)), totalComments)
		questionFrequency[topic] = freqPct

		var intensity, recency float64
		groupTerms := map[string]int{}
		var commentIDs []string
		representative := ""
		for _, i := range idxs {
			c := signals[i].Comment
			intensity += commentIntensity(c.Text)
			recency += commentRecency(c, s)
			commentIDs = append(commentIDs, c.CommentID)
			for _, w := range signalWords[i] {
				groupTerms[w]++
			}
			if len(c.Text) > len(representative) {
				representative = c.Text
			}
		}
		n := float64(len(idxs))
		intensity /= n
		recency /= n
		sort.Strings(commentIDs)

		level := model.DemandLow
		if freqPct.Valid {
			level = DemandLevel(freqPct.Value)
		}

		points = append(points, model.PainPoint{
			Text:        truncate(representative, 200),
			Topic:       topic,
			Keywords:    topTerms(groupTerms, 5),
			Frequency:   len(idxs),
			Intensity:   intensity,
			Recency:     recency,
			Severity:    PainSeverity(len(idxs), intensity, recency),
			DemandLevel: level,
			CommentIDs:  commentIDs,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		si, sj := points[i].Severity, points[j].Severity
		if si.Valid != sj.Valid {
			return si.Valid
		}
		if si.Valid && si.Value != sj.Value {
			return si.Value > sj.Value
		}
		if points[i].Frequency != points[j].Frequency {
			return points[i].Frequency > points[j].Frequency
		}
		return points[i].Topic < points[j].Topic
	})

	return model.DemandBundle{
		PainPoints:        points,
		QuestionFrequency: questionFrequency,
		RawComments:       s.CommentTotal(),
		HighSignal:        len(signals),
	}
}
