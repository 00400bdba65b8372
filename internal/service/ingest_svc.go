package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/internal/platform"
)

// IngestService collects a channel's videos, comments and transcripts into
// one immutable snapshot. Everything downstream reads the snapshot and only
// the snapshot; nothing re-fetches mid-pipeline.
type IngestService struct {
	source platform.Source
}

func NewIngestService(source platform.Source) *IngestService {
	return &IngestService{source: source}
}

// Snapshot fetches the channel's signals and freezes them. FetchedAt is
// stamped once here and becomes the reference clock for every recency
// computation downstream. Videos and comments are sorted by ID so two
// snapshots of identical content are byte-identical.
func (s *IngestService) Snapshot(ctx context.Context, channelID string) (*model.ChannelSnapshot, error) {
	videos, err := s.source.FetchVideos(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", channelID, err)
	}

	comments, err := s.source.FetchComments(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", channelID, err)
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].VideoID < videos[j].VideoID
	})
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CommentID < comments[j].CommentID
	})

	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.VideoID)
	}
	transcripts, err := s.source.FetchTranscripts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", channelID, err)
	}

	snapshot := &model.ChannelSnapshot{
		ChannelID:   channelID,
		FetchedAt:   time.Now().UTC(),
		Videos:      videos,
		Comments:    comments,
		Transcripts: transcripts,
	}

	log.Info().Str("component", "ingest").Str("channel_id", channelID).
		Int("videos", len(videos)).Int("comments", len(comments)).
		Int("transcripts", len(transcripts)).Msg("snapshot built")
	return snapshot, nil
}
