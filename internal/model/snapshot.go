package model

import (
	"sort"
	"time"
)

// Video is one uploaded video inside a channel snapshot.
type Video struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
	Views        Count     `json:"views"`
	Likes        Count     `json:"likes"`
	CommentCount Count     `json:"commentCount"`
	Duration     float64   `json:"durationSeconds"`
	IsShort      bool      `json:"isShort"`
}

// Comment is one viewer comment. Only one nesting level is modeled:
// top-level vs reply.
type Comment struct {
	CommentID   string    `json:"commentId"`
	VideoID     string    `json:"videoId"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	Likes       Count     `json:"likes"`
	IsReply     bool      `json:"isReply"`
	ParentID    string    `json:"parentId,omitempty"`
}

// TranscriptSegment is one timed span of transcript text.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// Transcript is the spoken text of a single video, when available.
type Transcript struct {
	VideoID  string              `json:"videoId"`
	Segments []TranscriptSegment `json:"segments"`
}

// ChannelSnapshot is the immutable signal store for one analysis run:
// everything collected for a channel at ingestion time. It is owned
// exclusively by the job that created it and never mutated after the
// quality gate passes. FetchedAt is the reference clock for every
// recency computation so that re-running the pipeline on the same
// snapshot is deterministic.
type ChannelSnapshot struct {
	ChannelID   string                `json:"channelId"`
	FetchedAt   time.Time             `json:"fetchedAt"`
	Videos      []Video               `json:"videos"`
	Comments    []Comment             `json:"comments"`
	Transcripts map[string]Transcript `json:"transcripts,omitempty"`
}

// VideoCount returns the number of videos in the snapshot.
func (s *ChannelSnapshot) VideoCount() int {
	return len(s.Videos)
}

// CommentTotal returns the number of collected comments.
func (s *ChannelSnapshot) CommentTotal() int {
	return len(s.Comments)
}

// Transcript returns the transcript for a video, if one was collected.
func (s *ChannelSnapshot) Transcript(videoID string) (Transcript, bool) {
	t, ok := s.Transcripts[videoID]
	return t, ok
}

// SortedVideoIDs returns the snapshot's video IDs in ascending order.
// Used for fingerprinting and any iteration that must be order-stable.
func (s *ChannelSnapshot) SortedVideoIDs() []string {
	ids := make([]string, 0, len(s.Videos))
	for _, v := range s.Videos {
		ids = append(ids, v.VideoID)
	}
	sort.Strings(ids)
	return ids
}
