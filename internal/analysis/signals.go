package analysis

import (
	"strings"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// SignalKind says why a comment was judged high-signal.
type SignalKind string

const (
	SignalQuestion SignalKind = "question"
	SignalPain     SignalKind = "pain"
	SignalLength   SignalKind = "length"
)

// SignalRecord is a comment that passed the high-signal filter. It is
// derived from its source comment and never persisted on its own.
type SignalRecord struct {
	Comment *model.Comment
	Kind    SignalKind
}

// minSignalLength is the length floor for the catch-all rule: long
// comments tend to carry substance even without an explicit marker.
const minSignalLength = 140

var questionStarters = []string{
	"how ", "what ", "why ", "when ", "where ", "which ", "who ",
	"can i", "can you", "could you", "should i", "is there", "does anyone",
	"do you", "anyone know", "any chance",
}

var painPhrases = []string{
	"doesn't work", "doesnt work", "not working", "didn't work", "didnt work",
	"confused", "confusing", "struggling", "struggle", "stuck",
	"can't figure", "cant figure", "can't get", "cant get",
	"please help", "help me", "i wish", "frustrated", "frustrating",
	"problem", "issue", "no idea", "gave up", "lost me",
}

// SignalRule is one (predicate, label) pair of the high-signal filter.
// Rules are evaluated in order; the first match labels the record.
type SignalRule struct {
	Kind  SignalKind
	Match func(c *model.Comment) bool
}

// SignalRules is the ordered rule list. Precedence is part of the contract:
// a question mark wins over a pain phrase, which wins over raw length.
var SignalRules = []SignalRule{
	{
		Kind: SignalQuestion,
		Match: func(c *model.Comment) bool {
			if strings.Contains(c.Text, "?") {
				return true
			}
			lower := strings.ToLower(strings.TrimSpace(c.Text))
			for _, starter := range questionStarters {
				if strings.HasPrefix(lower, starter) {
					return true
				}
			}
			return false
		},
	},
	{
		Kind: SignalPain,
		Match: func(c *model.Comment) bool {
			return containsAny(c.Text, painPhrases)
		},
	},
	{
		Kind: SignalLength,
		Match: func(c *model.Comment) bool {
			return len(strings.TrimSpace(c.Text)) >= minSignalLength
		},
	},
}

// ClassifySignal runs the rule list over one comment. ok is false for
// low-signal comments, which are discarded from demand analysis.
func ClassifySignal(c *model.Comment) (SignalKind, bool) {
	for _, rule := range SignalRules {
		if rule.Match(c) {
			return rule.Kind, true
		}
	}
	return "", false
}

// ExtractSignals filters the snapshot's comments down to high-signal
// records, preserving snapshot order.
func ExtractSignals(s *model.ChannelSnapshot) []SignalRecord {
	records := make([]SignalRecord, 0, len(s.Comments)/4)
	for i := range s.Comments {
		c := &s.Comments[i]
		if kind, ok := ClassifySignal(c); ok {
			records = append(records, SignalRecord{Comment: c, Kind: kind})
		}
	}
	return records
}
