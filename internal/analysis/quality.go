package analysis

import (
	"fmt"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// Confidence ceilings applied to every displayed metric confidence.
// Volumes near the floor cannot justify more than marginalCeiling.
const (
	marginalCeiling = 65.0
	fullCeiling     = 100.0
)

// Gate is the quality gate run before any expensive analysis work.
type Gate struct {
	MinVideos   int
	MinComments int
}

// GateResult is the outcome of evaluating a snapshot.
type GateResult struct {
	Pass              bool
	Reason            string
	ConfidenceCeiling float64
	VideoCount        int
	CommentCount      int
}

// Evaluate checks the snapshot's volumes against the configured minimums.
// When both counts sit below one fifth of their minimums the snapshot is so
// thin that the gate short-circuits with a single hard-floor reason. On a
// pass, ConfidenceCeiling caps displayed confidence: volumes under twice the
// minimum are marginal and cap at 65.
func (g Gate) Evaluate(s *model.ChannelSnapshot) GateResult {
	res := GateResult{
		VideoCount:   s.VideoCount(),
		CommentCount: s.CommentTotal(),
	}

	if res.VideoCount < g.MinVideos/5 && res.CommentCount < g.MinComments/5 {
		res.Reason = fmt.Sprintf(
			"channel volume far below minimum: %d videos and %d comments (need %d and %d)",
			res.VideoCount, res.CommentCount, g.MinVideos, g.MinComments)
		return res
	}
	if res.VideoCount < g.MinVideos {
		res.Reason = fmt.Sprintf("not enough videos: %d (need %d)", res.VideoCount, g.MinVideos)
		return res
	}
	if res.CommentCount < g.MinComments {
		res.Reason = fmt.Sprintf("not enough comments: %d (need %d)", res.CommentCount, g.MinComments)
		return res
	}

	res.Pass = true
	if res.VideoCount < 2*g.MinVideos || res.CommentCount < 2*g.MinComments {
		res.ConfidenceCeiling = marginalCeiling
	} else {
		res.ConfidenceCeiling = fullCeiling
	}
	return res
}
