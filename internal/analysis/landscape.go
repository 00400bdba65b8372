package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// DefaultNicheTopics is the reference set the coverage index is measured
// against when the caller supplies none.
var DefaultNicheTopics = []string{
	"tutorial", "review", "beginner", "advanced", "tips", "mistakes",
	"setup", "tools", "comparison", "strategy",
}

// freshnessWindow is the recency window for the freshness metric.
const freshnessWindow = 90 * 24 * time.Hour

// maxTopics caps the topic list so one busy channel cannot blow up the
// report size.
const maxTopics = 25

// SaturationClass buckets a topic's saturation ratio. Above 2.0 a topic is
// over-covered; below 0.3 it is a gap candidate.
func SaturationClass(ratio float64) string {
	switch {
	case ratio > 2.0:
		return model.SaturationOverCovered
	case ratio >= 0.8:
		return model.SaturationBalanced
	case ratio >= 0.3:
		return model.SaturationUnderCovered
	default:
		return model.SaturationGapCandidate
	}
}

// ScoreLandscape builds the channel's topic map and coverage metrics.
// Freshness is measured against the snapshot's FetchedAt, never the wall
// clock, so re-runs on the same snapshot stay byte-identical.
func ScoreLandscape(s *model.ChannelSnapshot) model.LandscapeBundle {
	return scoreLandscapeAgainst(s, DefaultNicheTopics)
}

func scoreLandscapeAgainst(s *model.ChannelSnapshot, niche []string) model.LandscapeBundle {
	topics := extractTopics(s)

	// Saturation: topic video count vs mean video count across topics.
	if len(topics) > 0 {
		counts := make([]float64, len(topics))
		for i := range topics {
			counts[i] = float64(len(topics[i].VideoIDs))
		}
		mean := stat.Mean(counts, nil)
		for i := range topics {
			sat := model.Ratio(float64(len(topics[i].VideoIDs)), mean)
			topics[i].Saturation = sat
			if sat.Valid {
				topics[i].SaturationClass = SaturationClass(sat.Value)
			}
		}
	}

	// Coverage index: how much of the niche reference set the channel touches.
	var matched float64
	for _, ref := range niche {
		for i := range topics {
			if topics[i].Name == ref {
				matched++
				break
			}
		}
	}
	coverage := model.Percent(matched, float64(len(niche)))

	// Format diversity: distinct format classes observed.
	formats := map[string]struct{}{}
	for _, v := range s.Videos {
		formats[formatClass(v)] = struct{}{}
	}

	// Freshness: share of videos published inside the window.
	var fresh float64
	cutoff := s.FetchedAt.Add(-freshnessWindow)
	for _, v := range s.Videos {
		if v.PublishedAt.After(cutoff) {
			fresh++
		}
	}
	freshness := model.Percent(fresh, float64(len(s.Videos)))

	return model.LandscapeBundle{
		Topics:          topics,
		CoverageIndex:   coverage,
		FormatDiversity: len(formats),
		Freshness:       freshness,
	}
}

func formatClass(v model.Video) string {
	if v.IsShort {
		return "short"
	}
	return "long"
}

// extractTopics clusters videos by the content words of their titles and
// tags. A term covering at least two videos becomes a topic; comments
// mentioning the term are attached as supporting evidence.
func extractTopics(s *model.ChannelSnapshot) []model.Topic {
	termVideos := map[string]map[string]struct{}{}
	for _, v := range s.Videos {
		terms := map[string]struct{}{}
		for _, w := range contentWords(v.Title) {
			terms[w] = struct{}{}
		}
		for _, tag := range v.Tags {
			for _, w := range contentWords(tag) {
				terms[w] = struct{}{}
			}
		}
		for t := range terms {
			if termVideos[t] == nil {
				termVideos[t] = map[string]struct{}{}
			}
			termVideos[t][v.VideoID] = struct{}{}
		}
	}

	names := make([]string, 0, len(termVideos))
	for t, vids := range termVideos {
		if len(vids) >= 2 {
			names = append(names, t)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := len(termVideos[names[i]]), len(termVideos[names[j]])
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) > maxTopics {
		names = names[:maxTopics]
	}

	videosByID := make(map[string]*model.Video, len(s.Videos))
	for i := range s.Videos {
		videosByID[s.Videos[i].VideoID] = &s.Videos[i]
	}

	topics := make([]model.Topic, 0, len(names))
	for _, name := range names {
		topic := model.Topic{Name: name}

		vids := make([]string, 0, len(termVideos[name]))
		for id := range termVideos[name] {
			vids = append(vids, id)
		}
		sort.Strings(vids)
		topic.VideoIDs = vids

		formats := map[string]struct{}{}
		for _, id := range vids {
			v := videosByID[id]
			formats[formatClass(*v)] = struct{}{}
			if v.PublishedAt.After(topic.LastCovered) {
				topic.LastCovered = v.PublishedAt
			}
		}
		for f := range formats {
			topic.Formats = append(topic.Formats, f)
		}
		sort.Strings(topic.Formats)

		for i := range s.Comments {
			if containsWord(s.Comments[i].Text, name) {
				topic.CommentIDs = append(topic.CommentIDs, s.Comments[i].CommentID)
			}
		}

		topics = append(topics, topic)
	}
	return topics
}
