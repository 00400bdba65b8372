package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// stopwords excluded from topic/keyword extraction.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {},
	"from": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "you": {}, "your": {}, "my": {}, "me": {}, "we": {}, "our": {},
	"he": {}, "she": {}, "they": {}, "them": {}, "his": {}, "her": {},
	"do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "should": {}, "not": {},
	"no": {}, "so": {}, "if": {}, "as": {}, "about": {}, "into": {}, "out": {},
	"up": {}, "down": {}, "just": {}, "more": {}, "very": {}, "really": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {}, "who": {},
	"which": {}, "there": {}, "here": {}, "all": {}, "any": {}, "some": {},
	"get": {}, "got": {}, "like": {}, "also": {}, "than": {}, "then": {},
	"video": {}, "videos": {}, "please": {}, "thanks": {}, "thank": {},
}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases the text and splits it into alphanumeric tokens.
func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// contentWords returns the tokens of s with stopwords and very short
// tokens removed.
func contentWords(s string) []string {
	tokens := tokenize(s)
	words := tokens[:0]
	for _, t := range tokens {
		if len(t) < 3 {
			continue
		}
		if _, skip := stopwords[t]; skip {
			continue
		}
		words = append(words, t)
	}
	return words
}

// containsWord reports whether text contains w as a whole token.
func containsWord(text, w string) bool {
	for _, t := range tokenize(text) {
		if t == w {
			return true
		}
	}
	return false
}

// containsAny reports whether the lowercased text contains any of the
// given phrases as substrings.
func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// topTerms returns the n most frequent keys of counts, ordered by count
// descending then alphabetically, so the result is stable across runs.
func topTerms(counts map[string]int, n int) []string {
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// truncate shortens s to at most n bytes on a word boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndexByte(cut, ' '); idx > n/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
