package analysis

import (
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Satisfaction index weights.
const (
	wEngagementQuality     = 0.6
	wRetentionProxy        = 0.3
	wImplementationSuccess = 0.1
)

// ScoreSatisfaction estimates whether the channel's content actually answers
// its viewers. Every sub-term is 0-100; a missing sub-term makes the index
// missing rather than quietly shrinking the formula.
func ScoreSatisfaction(s *model.ChannelSnapshot) model.SatisfactionBundle {
	total := float64(s.CommentTotal())

	var positive, success, question, confusion, frustrated, implementation float64
	for i := range s.Comments {
		text := s.Comments[i].Text
		switch ClassifySentiment(text) {
		case SentimentPositive:
			positive++
		case SentimentSuccess:
			success++
		case SentimentQuestion:
			question++
		case SentimentConfusion:
			confusion++
		case SentimentFrustrated:
			frustrated++
		}
		if containsAny(text, implementationPhrases) {
			implementation++
		}
	}

	engagementQuality := model.Percent(positive+success, total)

	// Retention proxy: like-to-view ratio scaled onto 0-100. Videos with
	// unknown likes or views are skipped; if none are known the proxy is
	// missing.
	var likePctSum float64
	var known int
	for _, v := range s.Videos {
		if !v.Likes.Valid || !v.Views.Valid || v.Views.Value == 0 {
			continue
		}
		likePctSum += float64(v.Likes.Value) / float64(v.Views.Value) * 100
		known++
	}
	retentionProxy := model.MissingMetric()
	if known > 0 {
		retentionProxy = model.MetricOf(likePctSum / float64(known) * 20).Clamp(0, 100)
	}

	implementationSuccess := model.Percent(success, total)

	index := model.WeightedSum(
		model.Term(wEngagementQuality, engagementQuality),
		model.Term(wRetentionProxy, retentionProxy),
		model.Term(wImplementationSuccess, implementationSuccess),
	)

	// Clarity: question density minus confusion ratio plus implementation
	// story ratio, all in percent of comments.
	questionDensity := model.Percent(question, total)
	confusionRatio := model.Percent(confusion+frustrated, total)
	implementationRatio := model.Percent(implementation, total)
	clarity := model.MissingMetric()
	if questionDensity.Valid && confusionRatio.Valid && implementationRatio.Valid {
		clarity = model.MetricOf(questionDensity.Value - confusionRatio.Value + implementationRatio.Value)
	}

	return model.SatisfactionBundle{
		Index:                 index,
		EngagementQuality:     engagementQuality,
		RetentionProxy:        retentionProxy,
		ImplementationSuccess: implementationSuccess,
		Clarity:               clarity,
	}
}
