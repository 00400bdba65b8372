package analysis

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// CoverageJudge is the LLM-backed "is this adequately explained" call.
// Implementations must honor the context deadline.
type CoverageJudge interface {
	JudgeCoverage(ctx context.Context, topic, evidence string) (detailed bool, err error)
}

// Verifier cross-checks demand topics against actual transcript evidence.
// Classification is conservative: TRUE_GAP is only assigned when transcript
// evidence is genuinely absent, never inferred from metadata.
type Verifier struct {
	// Judge is optional; without it the depth heuristic decides alone.
	Judge CoverageJudge
	// Parallelism bounds concurrent per-pain-point searches.
	Parallelism int

	// Depth heuristic bounds. A topic mentioned in fewer segments than
	// MinSegments, or with less surrounding context than MinContextChars,
	// is under-explained without consulting the judge.
	MinSegments     int
	MinContextChars int
	// DeepSegments/DeepContextChars is the fallback "clearly detailed"
	// bar used when the judge is unavailable or fails.
	DeepSegments     int
	DeepContextChars int
}

// NewVerifier returns a verifier with the default depth heuristic.
func NewVerifier(judge CoverageJudge, parallelism int) Verifier {
	return Verifier{
		Judge:            judge,
		Parallelism:      parallelism,
		MinSegments:      2,
		MinContextChars:  160,
		DeepSegments:     4,
		DeepContextChars: 600,
	}
}

// transcriptMatch is the evidence found for one pain point in one video.
type transcriptMatch struct {
	videoID      string
	segments     int
	contextChars int
	excerpt      string
}

// Verify classifies every pain point. The per-point searches run in
// parallel but results land by index, so output order is deterministic
// regardless of scheduling.
func (v Verifier) Verify(ctx context.Context, s *model.ChannelSnapshot, points []model.PainPoint) ([]model.Gap, error) {
	gaps := make([]model.Gap, len(points))

	g, ctx := errgroup.WithContext(ctx)
	if v.Parallelism > 0 {
		g.SetLimit(v.Parallelism)
	}
	for i := range points {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gap, err := v.verifyOne(ctx, s, points[i])
			if err != nil {
				return err
			}
			gaps[i] = gap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gaps, nil
}

func (v Verifier) verifyOne(ctx context.Context, s *model.ChannelSnapshot, p model.PainPoint) (model.Gap, error) {
	match := v.bestMatch(s, p)

	gap := model.Gap{PainPoint: p}
	if match == nil {
		gap.Status = model.GapTrue
		gap.Evidence = model.EvidenceNone
		return gap, nil
	}

	gap.Evidence = match.excerpt
	gap.EvidenceVideoID = match.videoID

	if match.segments < v.MinSegments || match.contextChars < v.MinContextChars {
		gap.Status = model.GapUnderExplained
		return gap, nil
	}

	if v.Judge != nil {
		detailed, err := v.Judge.JudgeCoverage(ctx, p.Topic, match.excerpt)
		if err == nil {
			if detailed {
				gap.Status = model.GapSaturated
			} else {
				gap.Status = model.GapUnderExplained
			}
			return gap, nil
		}
		// Judge unavailable: fall through to the deterministic depth bar.
	}

	if match.segments >= v.DeepSegments || match.contextChars >= v.DeepContextChars {
		gap.Status = model.GapSaturated
	} else {
		gap.Status = model.GapUnderExplained
	}
	return gap, nil
}

// bestMatch searches every transcript for the pain point's topic and
// keywords and returns the strongest match, or nil when nothing matched
// anywhere. Videos are visited in sorted-ID order so ties resolve the same
// way on every run.
func (v Verifier) bestMatch(s *model.ChannelSnapshot, p model.PainPoint) *transcriptMatch {
	keywords := make([]string, 0, len(p.Keywords)+1)
	keywords = append(keywords, p.Topic)
	for _, k := range p.Keywords {
		if k != p.Topic {
			keywords = append(keywords, k)
		}
	}

	var best *transcriptMatch
	for _, videoID := range s.SortedVideoIDs() {
		t, ok := s.Transcript(videoID)
		if !ok {
			continue
		}
		m := matchTranscript(&t, keywords)
		if m == nil {
			continue
		}
		if best == nil || m.segments > best.segments ||
			(m.segments == best.segments && m.contextChars > best.contextChars) {
			best = m
		}
	}
	return best
}

// matchTranscript scans one transcript for keyword hits. Context includes
// the neighboring segments of each hit, which is what the depth heuristic
// measures elaboration by.
func matchTranscript(t *model.Transcript, keywords []string) *transcriptMatch {
	hit := make([]bool, len(t.Segments))
	matched := 0
	for i, seg := range t.Segments {
		for _, kw := range keywords {
			if containsWord(seg.Text, kw) {
				hit[i] = true
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return nil
	}

	contextChars := 0
	var excerptParts []string
	for i := range t.Segments {
		neighbor := hit[i] || (i > 0 && hit[i-1]) || (i+1 < len(hit) && hit[i+1])
		if !neighbor {
			continue
		}
		contextChars += len(t.Segments[i].Text)
		if hit[i] && len(excerptParts) < 3 {
			excerptParts = append(excerptParts, strings.TrimSpace(t.Segments[i].Text))
		}
	}

	return &transcriptMatch{
		videoID:      t.VideoID,
		segments:     matched,
		contextChars: contextChars,
		excerpt:      truncate(strings.Join(excerptParts, " … "), 300),
	}
}

// CountByStatus tallies gaps per classification, in a fixed key order
// useful for pipeline stats.
func CountByStatus(gaps []model.Gap) (trueGaps, underExplained, saturated int) {
	for _, g := range gaps {
		switch g.Status {
		case model.GapTrue:
			trueGaps++
		case model.GapUnderExplained:
			underExplained++
		case model.GapSaturated:
			saturated++
		}
	}
	return
}

// SortGaps orders gaps for reporting: severity descending, then frequency,
// then topic.
func SortGaps(gaps []model.Gap) {
	sort.Slice(gaps, func(i, j int) bool {
		si, sj := gaps[i].Severity, gaps[j].Severity
		if si.Valid != sj.Valid {
			return si.Valid
		}
		if si.Valid && si.Value != sj.Value {
			return si.Value > sj.Value
		}
		if gaps[i].Frequency != gaps[j].Frequency {
			return gaps[i].Frequency > gaps[j].Frequency
		}
		return gaps[i].Topic < gaps[j].Topic
	})
}
