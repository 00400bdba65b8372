package analysis

import (
	"regexp"
	"strings"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Hook types, in classification precedence order.
const (
	HookNumber     = "number"
	HookHowTo      = "how_to"
	HookQuestion   = "question"
	HookComparison = "comparison"
	HookAuthority  = "authority"
	HookStandard   = "standard"
)

// Hook bands on the 10-point hook sub-scale. The excellent boundary is
// exclusive: exactly 8.5 is strong.
const (
	BandExcellent = "excellent"
	BandStrong    = "strong"
	BandDecent    = "decent"
	BandWeak      = "weak"
)

// hookRule is one (predicate, hook type) pair with its base score on the
// 10-point sub-scale and the historical CTR boost observed for the pattern.
type hookRule struct {
	Hook     string
	Base     float64
	CTRBoost float64
	Match    func(title string) bool
}

var (
	leadingNumberRe = regexp.MustCompile(`^\d+\b`)
	innerNumberRe   = regexp.MustCompile(`\b\d+\s+(?:things|tips|ways|mistakes|reasons|secrets|tools|steps|rules|lessons|ideas)\b`)
	yearRe          = regexp.MustCompile(`\b20\d{2}\b`)
)

var questionWords = []string{"how", "what", "why", "when", "which", "who", "can", "should", "is", "are", "do", "does"}

var authorityWords = []string{"ultimate", "complete", "definitive", "expert", "masterclass", "official", "everything you need"}

var curiosityPhrases = []string{
	"you didn't know", "you didnt know", "secret", "nobody", "no one talks",
	"the truth", "hidden", "surprising", "won't believe", "wont believe",
	"they don't want", "what i learned",
}

// hookRules is the ordered rule list; the first match decides the primary
// hook type.
var hookRules = []hookRule{
	{HookNumber, 10, 1.35, func(t string) bool {
		lower := strings.ToLower(t)
		return leadingNumberRe.MatchString(lower) || innerNumberRe.MatchString(lower)
	}},
	{HookHowTo, 9, 1.25, func(t string) bool {
		lower := strings.ToLower(t)
		return strings.HasPrefix(lower, "how to") || strings.HasPrefix(lower, "how i")
	}},
	{HookQuestion, 8.5, 1.20, func(t string) bool {
		trimmed := strings.TrimSpace(t)
		if strings.HasSuffix(trimmed, "?") {
			return true
		}
		lower := strings.ToLower(trimmed)
		for _, w := range questionWords {
			if strings.HasPrefix(lower, w+" ") {
				return true
			}
		}
		return false
	}},
	{HookComparison, 8, 1.15, func(t string) bool {
		return containsAny(t, []string{" vs ", " vs. ", " versus ", "compared"})
	}},
	{HookAuthority, 7.5, 1.10, func(t string) bool {
		return containsAny(t, authorityWords)
	}},
	{HookStandard, 5, 1.00, func(t string) bool { return true }},
}

// Non-exclusive bonuses on the hook sub-scale.
const (
	yearBonus      = 0.5
	curiosityBonus = 0.75
)

// Overall title score weights: hook sub-scale (scaled to 100) vs length fit.
const (
	wHook      = 0.7
	wLengthFit = 0.3
)

// TitleLengthFit grades a title's character length. 50-60 characters is the
// optimum; the bands degrade down to 30 and up to 80.
func TitleLengthFit(n int) float64 {
	switch {
	case n >= 50 && n <= 60:
		return 100
	case (n >= 40 && n <= 49) || (n >= 61 && n <= 70):
		return 75
	case (n >= 30 && n <= 39) || (n >= 71 && n <= 80):
		return 50
	default:
		return 25
	}
}

// HookBand buckets a 10-point hook score.
func HookBand(score float64) string {
	switch {
	case score > 8.5:
		return BandExcellent
	case score > 7:
		return BandStrong
	case score > 5:
		return BandDecent
	default:
		return BandWeak
	}
}

// ScoreTitle classifies one title into its primary hook type, applies the
// non-exclusive bonuses, and combines with length fit into a 0-100 score.
func ScoreTitle(title string) model.TitleScore {
	var rule hookRule
	for _, r := range hookRules {
		if r.Match(title) {
			rule = r
			break
		}
	}

	hookScore := rule.Base
	if yearRe.MatchString(title) {
		hookScore += yearBonus
	}
	if containsAny(title, curiosityPhrases) {
		hookScore += curiosityBonus
	}
	if hookScore > 10 {
		hookScore = 10
	}

	lengthFit := TitleLengthFit(len(title))
	overall := model.MetricOf(wHook*hookScore*10 + wLengthFit*lengthFit)

	return model.TitleScore{
		HookType:  rule.Hook,
		HookScore: hookScore,
		CTRBoost:  rule.CTRBoost,
		LengthFit: lengthFit,
		Overall:   overall,
	}
}

// ScoreTitles runs the hook scorer over every video title.
func ScoreTitles(s *model.ChannelSnapshot) model.TitleBundle {
	scores := make([]model.TitleScore, 0, len(s.Videos))
	var hookSum, overallSum float64
	for _, v := range s.Videos {
		ts := ScoreTitle(v.Title)
		ts.VideoID = v.VideoID
		scores = append(scores, ts)
		hookSum += ts.HookScore
		if ts.Overall.Valid {
			overallSum += ts.Overall.Value
		}
	}

	avg := model.Ratio(overallSum, float64(len(scores)))
	band := ""
	if len(scores) > 0 {
		band = HookBand(hookSum / float64(len(scores)))
	}

	return model.TitleBundle{
		Titles:       scores,
		AverageScore: avg,
		HookBand:     band,
	}
}
