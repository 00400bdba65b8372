package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// fakeJudge is a scripted coverage judge keyed by topic.
type fakeJudge struct {
	detailed map[string]bool
	err      error
	calls    int
}

func (f *fakeJudge) JudgeCoverage(_ context.Context, topic, _ string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.detailed[topic], nil
}

func transcriptSnapshot() *model.ChannelSnapshot {
	return &model.ChannelSnapshot{
		ChannelID: "UCtest123",
		FetchedAt: testFetchedAt,
		Videos: []model.Video{
			testVideo("v1", "Docker Deep Dive", 10, 5000, 20),
			testVideo("v2", "Quick Update", 5, 2000, 5),
		},
		Transcripts: map[string]model.Transcript{
			"v1": {VideoID: "v1", Segments: []model.TranscriptSegment{
				{Start: 0, Text: "welcome back, today we are going all in on docker networking"},
				{Start: 12, Text: "docker gives every container its own network namespace by default"},
				{Start: 25, Text: "bridge networks are what you get out of the box with docker"},
				{Start: 40, Text: "overlay networks span hosts, and docker swarm manages the routing mesh"},
				{Start: 55, Text: "that covers the practical side, see the description for the lab files"},
			}},
			"v2": {VideoID: "v2", Segments: []model.TranscriptSegment{
				{Start: 0, Text: "quick update on the channel schedule, nothing technical today"},
			}},
		},
	}
}

func painPoint(topic string, keywords ...string) model.PainPoint {
	return model.PainPoint{
		Topic:       topic,
		Keywords:    keywords,
		Frequency:   3,
		Intensity:   5,
		Recency:     8,
		Severity:    PainSeverity(3, 5, 8),
		DemandLevel: model.DemandModerate,
	}
}

func TestVerify_TrueGapWhenNoEvidence(t *testing.T) {
	v := NewVerifier(nil, 2)
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(),
		[]model.PainPoint{painPoint("terraform")})
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Status != model.GapTrue {
		t.Errorf("status = %q, want TRUE_GAP", gaps[0].Status)
	}
	if gaps[0].Evidence != model.EvidenceNone {
		t.Errorf("evidence = %q, want the explicit none marker", gaps[0].Evidence)
	}
	if gaps[0].EvidenceVideoID != "" {
		t.Errorf("evidence video = %q, want empty", gaps[0].EvidenceVideoID)
	}
}

func TestVerify_ShallowMentionIsUnderExplained(t *testing.T) {
	v := NewVerifier(nil, 2)
	// "swarm" appears in exactly one segment of v1.
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(),
		[]model.PainPoint{painPoint("swarm")})
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Status != model.GapUnderExplained {
		t.Errorf("status = %q, want UNDER_EXPLAINED", gaps[0].Status)
	}
	if gaps[0].EvidenceVideoID != "v1" {
		t.Errorf("evidence video = %q, want v1", gaps[0].EvidenceVideoID)
	}
	if !strings.Contains(gaps[0].Evidence, "swarm") {
		t.Errorf("evidence %q should quote the matched segment", gaps[0].Evidence)
	}
}

func TestVerify_JudgeDecidesDeepCoverage(t *testing.T) {
	judge := &fakeJudge{detailed: map[string]bool{"docker": true}}
	v := NewVerifier(judge, 2)
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(),
		[]model.PainPoint{painPoint("docker", "networking")})
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Status != model.GapSaturated {
		t.Errorf("status = %q, want SATURATED", gaps[0].Status)
	}
	if judge.calls != 1 {
		t.Errorf("judge calls = %d, want 1", judge.calls)
	}
}

func TestVerify_JudgeSaysShallow(t *testing.T) {
	judge := &fakeJudge{detailed: map[string]bool{}}
	v := NewVerifier(judge, 2)
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(),
		[]model.PainPoint{painPoint("docker")})
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Status != model.GapUnderExplained {
		t.Errorf("status = %q, want UNDER_EXPLAINED when the judge says shallow", gaps[0].Status)
	}
}

func TestVerify_JudgeFailureFallsBackToDepthBar(t *testing.T) {
	judge := &fakeJudge{err: errors.New("model overloaded")}
	v := NewVerifier(judge, 2)
	// "docker" hits four segments of v1, which clears the deep bar without
	// the judge.
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(),
		[]model.PainPoint{painPoint("docker")})
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Status != model.GapSaturated {
		t.Errorf("status = %q, want SATURATED from the depth fallback", gaps[0].Status)
	}
}

func TestVerify_ResultsKeepInputOrder(t *testing.T) {
	v := NewVerifier(nil, 4)
	points := []model.PainPoint{
		painPoint("terraform"),
		painPoint("docker"),
		painPoint("swarm"),
	}
	gaps, err := v.Verify(context.Background(), transcriptSnapshot(), points)
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != 3 {
		t.Fatalf("got %d gaps, want 3", len(gaps))
	}
	for i := range points {
		if gaps[i].Topic != points[i].Topic {
			t.Errorf("gaps[%d].Topic = %q, want %q", i, gaps[i].Topic, points[i].Topic)
		}
	}
}

func TestVerify_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := NewVerifier(nil, 2)
	_, err := v.Verify(ctx, transcriptSnapshot(), []model.PainPoint{painPoint("docker")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCountByStatus(t *testing.T) {
	gaps := []model.Gap{
		{Status: model.GapTrue},
		{Status: model.GapTrue},
		{Status: model.GapUnderExplained},
		{Status: model.GapSaturated},
	}
	trueGaps, under, saturated := CountByStatus(gaps)
	if trueGaps != 2 || under != 1 || saturated != 1 {
		t.Errorf("counts = (%d, %d, %d), want (2, 1, 1)", trueGaps, under, saturated)
	}
}
