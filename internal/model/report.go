package model

import "time"

// PipelineStats are the aggregate counters of one completed run.
// Invariant: TrueGaps + UnderExplained + Saturated == PainPointsFound.
type PipelineStats struct {
	RawComments        int `json:"raw_comments"`
	HighSignalComments int `json:"high_signal_comments"`
	PainPointsFound    int `json:"pain_points_found"`
	TrueGaps           int `json:"true_gaps"`
	UnderExplained     int `json:"under_explained"`
	Saturated          int `json:"saturated"`
}

// Report is the final persisted output, bound 1:1 to a completed job and
// immutable once written. ConfidenceCeiling caps any confidence shown to the
// user when the snapshot volume was only marginally sufficient.
type Report struct {
	JobID               string        `json:"-"`
	ChannelID           string        `json:"channelId"`
	GeneratedAt         time.Time     `json:"generatedAt"`
	SnapshotFingerprint string        `json:"snapshotFingerprint"`
	ConfidenceCeiling   float64       `json:"confidenceCeiling"`
	PipelineStats       PipelineStats `json:"pipeline_stats"`
	TopOpportunity      *Opportunity  `json:"top_opportunity"`
	Opportunities       []Opportunity `json:"opportunities"`
	AlreadyCovered      []Gap         `json:"alreadyCovered"`
	Metrics             MetricSet     `json:"metrics"`
}
