package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

var testFetchedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testVideo(id, title string, publishedDaysAgo int, views, comments int64) model.Video {
	return model.Video{
		VideoID:      id,
		Title:        title,
		PublishedAt:  testFetchedAt.AddDate(0, 0, -publishedDaysAgo),
		Views:        model.CountOf(views),
		Likes:        model.CountOf(views / 25),
		CommentCount: model.CountOf(comments),
	}
}

func testComment(id, videoID, author, text string) model.Comment {
	return model.Comment{
		CommentID:   id,
		VideoID:     videoID,
		Author:      author,
		Text:        text,
		PublishedAt: testFetchedAt.AddDate(0, 0, -10),
		Likes:       model.CountOf(1),
	}
}

// fillerComments returns n low-signal comments spread over the given videos.
func fillerComments(n int, videoIDs ...string) []model.Comment {
	comments := make([]model.Comment, 0, n)
	for i := 0; i < n; i++ {
		vid := videoIDs[i%len(videoIDs)]
		comments = append(comments, testComment(
			fmt.Sprintf("filler-%04d", i), vid,
			fmt.Sprintf("viewer-%d", i), "nice one"))
	}
	return comments
}

// gatePassingSnapshot builds a snapshot comfortably above the default
// quality thresholds.
func gatePassingSnapshot() *model.ChannelSnapshot {
	videos := make([]model.Video, 0, 45)
	for i := 0; i < 45; i++ {
		videos = append(videos, testVideo(
			fmt.Sprintf("vid-%03d", i),
			fmt.Sprintf("Go Tutorial Part %d", i+1),
			i*7+1, 10000, 40))
	}
	s := &model.ChannelSnapshot{
		ChannelID: "UCtest123",
		FetchedAt: testFetchedAt,
		Videos:    videos,
		Comments:  fillerComments(120, "vid-000", "vid-001", "vid-002"),
	}
	return s
}
