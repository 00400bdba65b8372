package analysis

import (
	"strings"
	"testing"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

func snapshotWithVolumes(videos, comments int) *model.ChannelSnapshot {
	s := &model.ChannelSnapshot{ChannelID: "UCtest123", FetchedAt: testFetchedAt}
	for i := 0; i < videos; i++ {
		s.Videos = append(s.Videos, testVideo("v", "t", 1, 100, 1))
	}
	s.Comments = fillerComments(comments, "v")
	return s
}

var defaultGate = Gate{MinVideos: 20, MinComments: 50}

func TestGate_Pass(t *testing.T) {
	res := defaultGate.Evaluate(snapshotWithVolumes(45, 120))
	if !res.Pass {
		t.Fatalf("expected pass, got reject: %s", res.Reason)
	}
	if res.ConfidenceCeiling != 100 {
		t.Errorf("ceiling = %.0f, want 100", res.ConfidenceCeiling)
	}
}

func TestGate_MarginalVolumesCapConfidence(t *testing.T) {
	// Passes both minimums but videos are under 2x the floor.
	res := defaultGate.Evaluate(snapshotWithVolumes(25, 120))
	if !res.Pass {
		t.Fatalf("expected pass, got reject: %s", res.Reason)
	}
	if res.ConfidenceCeiling != 65 {
		t.Errorf("ceiling = %.0f, want 65 for marginal volume", res.ConfidenceCeiling)
	}
}

func TestGate_RejectTooFewVideos(t *testing.T) {
	res := defaultGate.Evaluate(snapshotWithVolumes(19, 200))
	if res.Pass {
		t.Fatal("expected reject")
	}
	if !strings.Contains(res.Reason, "videos") {
		t.Errorf("reason %q should mention videos", res.Reason)
	}
}

func TestGate_RejectTooFewComments(t *testing.T) {
	res := defaultGate.Evaluate(snapshotWithVolumes(30, 49))
	if res.Pass {
		t.Fatal("expected reject")
	}
	if !strings.Contains(res.Reason, "comments") {
		t.Errorf("reason %q should mention comments", res.Reason)
	}
}

func TestGate_HardFloorShortCircuits(t *testing.T) {
	// Both volumes below one fifth of their minimums.
	res := defaultGate.Evaluate(snapshotWithVolumes(3, 9))
	if res.Pass {
		t.Fatal("expected reject")
	}
	if !strings.Contains(res.Reason, "far below") {
		t.Errorf("reason %q should be the hard-floor reason", res.Reason)
	}
}

func TestGate_HardFloorNeedsBothBelow(t *testing.T) {
	// Comments are fine; only videos are tiny. Normal reject, not hard floor.
	res := defaultGate.Evaluate(snapshotWithVolumes(3, 200))
	if res.Pass {
		t.Fatal("expected reject")
	}
	if strings.Contains(res.Reason, "far below") {
		t.Errorf("reason %q should not be the hard-floor reason", res.Reason)
	}
}

func TestGate_BoundaryExactMinimums(t *testing.T) {
	res := defaultGate.Evaluate(snapshotWithVolumes(20, 50))
	if !res.Pass {
		t.Fatalf("exact minimums should pass, got: %s", res.Reason)
	}
	if res.ConfidenceCeiling != 65 {
		t.Errorf("ceiling = %.0f, want 65 at the floor", res.ConfidenceCeiling)
	}
}
