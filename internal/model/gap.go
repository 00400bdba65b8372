package model

import "time"

// Topic is a named cluster of videos and comments sharing a subject,
// produced by the content-landscape scorer and read-only downstream.
type Topic struct {
	Name            string    `json:"name"`
	VideoIDs        []string  `json:"videoIds"`
	CommentIDs      []string  `json:"commentIds,omitempty"`
	Formats         []string  `json:"formats,omitempty"`
	Saturation      Metric    `json:"saturation"`
	SaturationClass string    `json:"saturationClass"`
	LastCovered     time.Time `json:"lastCovered,omitempty"`
}

// Saturation classes, from most to least covered.
const (
	SaturationOverCovered  = "over_covered"
	SaturationBalanced     = "balanced"
	SaturationUnderCovered = "under_covered"
	SaturationGapCandidate = "gap_candidate"
)

// PainPoint is a candidate demand topic mined from high-signal comments.
// Frequency, intensity and recency are 1-10 sub-scales.
type PainPoint struct {
	Text        string   `json:"text"`
	Topic       string   `json:"topic"`
	Keywords    []string `json:"keywords"`
	Frequency   int      `json:"frequency"`
	Intensity   float64  `json:"intensity"`
	Recency     float64  `json:"recency"`
	Severity    Metric   `json:"severity"`
	DemandLevel string   `json:"demandLevel"`
	CommentIDs  []string `json:"commentIds,omitempty"`
}

// Demand levels for a pain point's question frequency. The high boundary
// is exclusive: exactly 5% is moderate.
const (
	DemandHigh     = "high"
	DemandModerate = "moderate"
	DemandLow      = "low"
)

// GapStatus is the three-way outcome of verifying a pain point against
// actual content evidence.
type GapStatus string

const (
	// GapTrue means no transcript evidence exists for the topic.
	GapTrue GapStatus = "TRUE_GAP"
	// GapUnderExplained means the topic is mentioned but only briefly.
	GapUnderExplained GapStatus = "UNDER_EXPLAINED"
	// GapSaturated means the topic is already covered in detail.
	GapSaturated GapStatus = "SATURATED"
)

// EvidenceNone is the explicit evidence value for a TRUE_GAP: the verifier
// found nothing, and says so rather than leaving the field empty.
const EvidenceNone = "none found"

// Gap is a pain point after verification. Immutable once classified for a
// given job; re-computed only on re-run.
type Gap struct {
	PainPoint
	Status          GapStatus `json:"gapStatus"`
	Evidence        string    `json:"evidence"`
	EvidenceVideoID string    `json:"evidenceVideoId,omitempty"`
}

// InfluenceScores records the provenance of each ranking component.
// Trend and competitor signals come from external collaborators and may
// be missing; gap severity is always computable.
type InfluenceScores struct {
	GapSeverity       float64 `json:"gapSeverity"`
	TrendScore        Metric  `json:"trendScore"`
	CommentEngagement Metric  `json:"commentEngagement"`
	CompetitorGap     Metric  `json:"competitorGap"`
}

// Opportunity is a ranked gap. Its lifecycle ends at report assembly.
type Opportunity struct {
	Gap
	OverallScore float64         `json:"overallScore"`
	Influence    InfluenceScores `json:"influenceScores"`
	ViralTitles  []string        `json:"viralTitles"`
	Hero         bool            `json:"hero"`
}
