package analysis

import (
	"regexp"
	"strings"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Title effectiveness weights.
const (
	wKeywordPlacement = 0.4
	wTitleLength      = 0.3
	wHookStrength     = 0.3
)

// Description quality weights.
const (
	wFrontLoad     = 0.4
	wKeywordSpread = 0.3
	wStructure     = 0.3
)

// frontLoadWindow is how much of a description search surfaces actually
// show before truncation.
const frontLoadWindow = 150

var (
	timestampRe = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	linkRe      = regexp.MustCompile(`https?://`)
	hashtagRe   = regexp.MustCompile(`#\w+`)
)

// primaryKeyword picks the video's search keyword: the first tag when one
// exists, otherwise the first content word of the title.
func primaryKeyword(v *model.Video) string {
	if len(v.Tags) > 0 {
		if words := contentWords(v.Tags[0]); len(words) > 0 {
			return words[0]
		}
	}
	if words := contentWords(v.Title); len(words) > 0 {
		return words[0]
	}
	return ""
}

// keywordPlacement grades where the keyword sits in the title: inside the
// first 30 characters scores full, anywhere later is partial.
func keywordPlacement(title, keyword string) float64 {
	if keyword == "" {
		return 20
	}
	idx := strings.Index(strings.ToLower(title), keyword)
	switch {
	case idx >= 0 && idx < 30:
		return 100
	case idx >= 0:
		return 60
	default:
		return 20
	}
}

// descriptionFrontLoad grades whether the keyword appears inside the part
// of the description viewers see without expanding it.
func descriptionFrontLoad(desc, keyword string) float64 {
	if desc == "" || keyword == "" {
		return 0
	}
	window := strings.ToLower(desc)
	if len(window) > frontLoadWindow {
		window = window[:frontLoadWindow]
	}
	if strings.Contains(window, keyword) {
		return 100
	}
	if strings.Contains(strings.ToLower(desc), keyword) {
		return 50
	}
	return 0
}

// keywordSpread grades keyword repetition through the description body.
func keywordSpread(desc, keyword string) float64 {
	if desc == "" || keyword == "" {
		return 0
	}
	switch strings.Count(strings.ToLower(desc), keyword) {
	case 0:
		return 0
	case 1:
		return 50
	default:
		return 100
	}
}

// descriptionStructure grades the presence of timestamps, links and
// hashtags, a third each.
func descriptionStructure(desc string) float64 {
	var score float64
	if timestampRe.MatchString(desc) {
		score += 100.0 / 3
	}
	if linkRe.MatchString(desc) {
		score += 100.0 / 3
	}
	if hashtagRe.MatchString(desc) {
		score += 100.0 / 3
	}
	return score
}

// ScoreSEO grades titles and descriptions as search surfaces, averaged over
// the snapshot's videos.
func ScoreSEO(s *model.ChannelSnapshot) model.SEOBundle {
	if len(s.Videos) == 0 {
		return model.SEOBundle{
			TitleEffectiveness: model.MissingMetric(),
			DescriptionQuality: model.MissingMetric(),
		}
	}

	var titleSum, descSum float64
	for i := range s.Videos {
		v := &s.Videos[i]
		kw := primaryKeyword(v)

		hook := ScoreTitle(v.Title)
		titleSum += wKeywordPlacement*keywordPlacement(v.Title, kw) +
			wTitleLength*TitleLengthFit(len(v.Title)) +
			wHookStrength*hook.HookScore*10

		descSum += wFrontLoad*descriptionFrontLoad(v.Description, kw) +
			wKeywordSpread*keywordSpread(v.Description, kw) +
			wStructure*descriptionStructure(v.Description)
	}

	n := float64(len(s.Videos))
	return model.SEOBundle{
		TitleEffectiveness: model.MetricOf(titleSum / n),
		DescriptionQuality: model.MetricOf(descSum / n),
	}
}
