package analysis

import (
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Sentiment labels emitted by the keyword-bucket classifier.
const (
	SentimentPositive   = "positive"
	SentimentQuestion   = "question"
	SentimentConfusion  = "confusion"
	SentimentNegative   = "negative"
	SentimentFrustrated = "frustrated"
	SentimentSuccess    = "success"
	SentimentNeutral    = "neutral"
)

// sentimentBucket is one (label, phrase list) pair of the classifier.
type sentimentBucket struct {
	Label   string
	Phrases []string
}

// sentimentBuckets is the ordered bucket list. Order is the precedence:
// after the two compound rules, the first matching bucket wins.
var sentimentBuckets = []sentimentBucket{
	{SentimentPositive, []string{
		"love", "great", "awesome", "amazing", "excellent", "perfect",
		"best", "helpful", "helped", "fantastic", "brilliant", "thank",
	}},
	{SentimentQuestion, []string{
		"how do", "how can", "what is", "what are", "why does", "why is",
		"can you", "could you", "?",
	}},
	{SentimentConfusion, []string{
		"confused", "confusing", "don't understand", "dont understand",
		"lost me", "unclear", "makes no sense", "what does that mean",
	}},
	{SentimentNegative, []string{
		"bad", "terrible", "awful", "hate", "worst", "useless",
		"waste", "disappointed", "doesn't work", "doesnt work", "not working",
	}},
}

// implementationPhrases mark comments describing that the viewer actually
// tried the content.
var implementationPhrases = []string{
	"i tried", "i followed", "i built", "i implemented", "i applied",
	"it worked", "worked for me", "i finally", "i managed", "i did this",
}

// ClassifySentiment assigns exactly one label to a comment. The two
// compound rules run first: confusion together with negative language is
// frustration, an implementation story with positive language is success.
// Otherwise the first matching bucket in order wins; no match is neutral.
func ClassifySentiment(text string) string {
	hits := make(map[string]bool, len(sentimentBuckets))
	for _, b := range sentimentBuckets {
		hits[b.Label] = containsAny(text, b.Phrases)
	}
	implementation := containsAny(text, implementationPhrases)

	if hits[SentimentConfusion] && hits[SentimentNegative] {
		return SentimentFrustrated
	}
	if implementation && hits[SentimentPositive] {
		return SentimentSuccess
	}
	for _, b := range sentimentBuckets {
		if hits[b.Label] {
			return b.Label
		}
	}
	return SentimentNeutral
}

// ScoreEngagement computes the engagement-quality bundle. Every ratio with
// a zero denominator comes back missing, never zero.
func ScoreEngagement(s *model.ChannelSnapshot) model.EngagementBundle {
	totalComments := float64(s.CommentTotal())

	// Comment-to-view ratio: both sides restricted to videos whose view
	// count is known, so comments on view-unknown videos cannot inflate a
	// numerator their views never enter.
	var views float64
	viewKnown := make(map[string]bool, len(s.Videos))
	for _, v := range s.Videos {
		if v.Views.Valid {
			views += float64(v.Views.Value)
			viewKnown[v.VideoID] = true
		}
	}
	var knownComments float64
	for i := range s.Comments {
		if viewKnown[s.Comments[i].VideoID] {
			knownComments++
		}
	}
	commentToView := model.MissingMetric()
	if len(viewKnown) > 0 {
		commentToView = model.Percent(knownComments, views)
	}

	// Question density over high-signal question comments.
	var questions int
	for i := range s.Comments {
		if kind, ok := ClassifySignal(&s.Comments[i]); ok && kind == SignalQuestion {
			questions++
		}
	}
	questionDensity := model.Percent(float64(questions), totalComments)

	// Reply depth: replies per top-level comment.
	var replies, topLevel float64
	for i := range s.Comments {
		if s.Comments[i].IsReply {
			replies++
		} else {
			topLevel++
		}
	}
	replyRatio := model.Ratio(replies, topLevel)

	// Sentiment distribution.
	sentiment := map[string]int{}
	for i := range s.Comments {
		sentiment[ClassifySentiment(s.Comments[i].Text)]++
	}

	// Repeat authors: commenters seen on two or more distinct videos.
	authorVideos := map[string]map[string]struct{}{}
	for i := range s.Comments {
		c := &s.Comments[i]
		if c.Author == "" {
			continue
		}
		if authorVideos[c.Author] == nil {
			authorVideos[c.Author] = map[string]struct{}{}
		}
		authorVideos[c.Author][c.VideoID] = struct{}{}
	}
	var repeat float64
	for _, vids := range authorVideos {
		if len(vids) >= 2 {
			repeat++
		}
	}
	repeatRatio := model.Ratio(repeat, float64(len(authorVideos)))

	return model.EngagementBundle{
		CommentToViewRatio: commentToView,
		QuestionDensity:    questionDensity,
		ReplyDepthRatio:    replyRatio,
		Sentiment:          sentiment,
		RepeatAuthorRatio:  repeatRatio,
	}
}
