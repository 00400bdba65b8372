package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/pkg/hash"
)

// TitleGenerator is the LLM-backed title candidate call. Implementations
// must honor the context deadline.
type TitleGenerator interface {
	GenerateTitles(ctx context.Context, topic string, keywords []string, n int) ([]string, error)
}

// titlesPerOpportunity is how many viral title candidates each ranked
// opportunity carries.
const titlesPerOpportunity = 3

// generatedTitleLimit caps how many opportunities get LLM-generated titles;
// the rest use the deterministic templates.
const generatedTitleLimit = 5

// Synthesizer assembles the final report from the ranked opportunities and
// the metric bundles.
type Synthesizer struct {
	// Titles is optional; without it every opportunity gets template titles.
	Titles TitleGenerator
}

// Build produces the report for one completed pipeline run. The pipeline
// stats invariant holds by construction: every pain point was classified
// into exactly one of the three gap states.
func (sy Synthesizer) Build(
	ctx context.Context,
	jobID string,
	s *model.ChannelSnapshot,
	gate GateResult,
	set model.MetricSet,
	opportunities []model.Opportunity,
	alreadyCovered []model.Gap,
) (*model.Report, error) {
	trueGaps, underExplained := 0, 0
	for _, o := range opportunities {
		switch o.Status {
		case model.GapTrue:
			trueGaps++
		case model.GapUnderExplained:
			underExplained++
		}
	}
	saturated := len(alreadyCovered)
	found := trueGaps + underExplained + saturated
	if found != len(set.Demand.PainPoints) {
		return nil, fmt.Errorf("gap accounting mismatch: %d classified vs %d pain points found",
			found, len(set.Demand.PainPoints))
	}

	for i := range opportunities {
		opportunities[i].ViralTitles = sy.titlesFor(ctx, &opportunities[i], i)
	}

	var top *model.Opportunity
	for i := range opportunities {
		if opportunities[i].Hero {
			top = &opportunities[i]
			break
		}
	}

	commentIDs := make([]string, 0, len(s.Comments))
	for i := range s.Comments {
		commentIDs = append(commentIDs, s.Comments[i].CommentID)
	}

	return &model.Report{
		JobID:               jobID,
		ChannelID:           s.ChannelID,
		GeneratedAt:         time.Now().UTC(),
		SnapshotFingerprint: hash.SnapshotFingerprint(s.ChannelID, s.SortedVideoIDs(), commentIDs),
		ConfidenceCeiling:   gate.ConfidenceCeiling,
		PipelineStats: model.PipelineStats{
			RawComments:        set.Demand.RawComments,
			HighSignalComments: set.Demand.HighSignal,
			PainPointsFound:    len(set.Demand.PainPoints),
			TrueGaps:           trueGaps,
			UnderExplained:     underExplained,
			Saturated:          saturated,
		},
		TopOpportunity: top,
		Opportunities:  opportunities,
		AlreadyCovered: alreadyCovered,
		Metrics:        set,
	}, nil
}

// titlesFor asks the LLM for candidates on the highest-ranked
// opportunities and falls back to hook templates when the service is
// unavailable or the rank is past the generation limit.
func (sy Synthesizer) titlesFor(ctx context.Context, o *model.Opportunity, rank int) []string {
	if sy.Titles != nil && rank < generatedTitleLimit {
		titles, err := sy.Titles.GenerateTitles(ctx, o.Topic, o.Keywords, titlesPerOpportunity)
		if err == nil && len(titles) > 0 {
			if len(titles) > titlesPerOpportunity {
				titles = titles[:titlesPerOpportunity]
			}
			return titles
		}
	}
	return TemplateTitles(o.Topic, titlesPerOpportunity)
}

// TemplateTitles builds deterministic title candidates from the strongest
// hook patterns: number, how-to, question.
func TemplateTitles(topic string, n int) []string {
	display := titleCase(topic)
	candidates := []string{
		fmt.Sprintf("7 %s Mistakes You Didn't Know You Were Making", display),
		fmt.Sprintf("How to Master %s (Step by Step)", display),
		fmt.Sprintf("Why Is %s So Hard? The Truth", display),
	}
	if n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
