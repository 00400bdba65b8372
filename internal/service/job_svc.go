package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
	"github.com/YvesMatteo/GapIntel-sub002/pkg/hash"
)

// JobStore is what the job service and the workers need from the job
// repository. Narrow on purpose so tests can run on in-memory fakes.
type JobStore interface {
	Create(ctx context.Context, job *model.AnalysisJob) error
	FindByAccessKey(ctx context.Context, accessKey string) (*model.AnalysisJob, error)
	PickupNext(ctx context.Context) (*model.AnalysisJob, error)
	TouchProgress(ctx context.Context, jobID, phase string, progress int) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorCode, message string) error
	Reset(ctx context.Context, accessKey string, stuckAfter time.Duration) (*model.AnalysisJob, error)
	SweepStuck(ctx context.Context, stuckAfter, alertAfter time.Duration, maxRetries int) (*repository.SweepResult, error)
	Stats(ctx context.Context, stuckAfter time.Duration) (*model.JobStats, error)
}

// ReportStore is the report persistence surface the pipeline writes to.
type ReportStore interface {
	Save(ctx context.Context, report *model.Report) error
	FindByJobID(ctx context.Context, jobID string) ([]byte, error)
	Delete(ctx context.Context, jobID string) error
}

// JobService owns the job lifecycle on the API side: submission, status,
// report retrieval and the operator reset. The pipeline side lives in
// PipelineService.
type JobService struct {
	jobs           JobStore
	reports        ReportStore
	cache          *CacheService
	stuckThreshold time.Duration
}

func NewJobService(jobs JobStore, reports ReportStore, cache *CacheService, stuckThreshold time.Duration) *JobService {
	return &JobService{
		jobs:           jobs,
		reports:        reports,
		cache:          cache,
		stuckThreshold: stuckThreshold,
	}
}

// Submit creates a pending job for the channel and returns it. The access
// key is the caller's only handle on the job; owners are stored hashed.
// repository.ErrJobConflict comes back when the owner already has an active
// job for this channel.
func (s *JobService) Submit(ctx context.Context, channelID, owner string) (*model.AnalysisJob, error) {
	now := time.Now().UTC()
	job := &model.AnalysisJob{
		ID:        uuid.NewString(),
		AccessKey: newAccessKey(),
		ChannelID: channelID,
		Owner:     hash.SHA256Hex(owner),
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	metrics.JobSubmitted()
	log.Info().Str("component", "jobs").Str("channel_id", channelID).
		Str("owner", hash.OwnerHash(owner)).Msg("job submitted")
	return job, nil
}

// Status returns the job for an access key.
func (s *JobService) Status(ctx context.Context, accessKey string) (*model.AnalysisJob, error) {
	return s.jobs.FindByAccessKey(ctx, accessKey)
}

// Report returns the finished report payload for an access key, via the
// cache when possible. repository.ErrReportNotFound is returned while the
// job has not completed.
func (s *JobService) Report(ctx context.Context, accessKey string) ([]byte, error) {
	if s.cache != nil {
		if data, err := s.cache.GetReport(ctx, accessKey); err == nil && data != nil {
			return data, nil
		}
	}

	job, err := s.jobs.FindByAccessKey(ctx, accessKey)
	if err != nil {
		return nil, err
	}
	payload, err := s.reports.FindByJobID(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetReport(ctx, accessKey, payload); err != nil {
			log.Warn().Err(err).Str("component", "jobs").Msg("report cache write failed")
		}
	}
	return payload, nil
}

// Reset re-queues a failed or stale-processing job and drops its stale
// report and cache entries so the re-run starts clean.
func (s *JobService) Reset(ctx context.Context, accessKey string) (*model.AnalysisJob, error) {
	job, err := s.jobs.Reset(ctx, accessKey, s.stuckThreshold)
	if err != nil {
		return nil, err
	}

	if err := s.reports.Delete(ctx, job.ID); err != nil {
		log.Warn().Err(err).Str("component", "jobs").Str("job_id", job.ID).
			Msg("stale report delete failed")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateReport(ctx, accessKey); err != nil {
			log.Warn().Err(err).Str("component", "jobs").Msg("report cache invalidate failed")
		}
		if err := s.cache.InvalidateJobStatus(ctx, accessKey); err != nil {
			log.Warn().Err(err).Str("component", "jobs").Msg("status cache invalidate failed")
		}
	}

	log.Info().Str("component", "jobs").Str("job_id", job.ID).Msg("job reset to pending")
	return job, nil
}

// Stats aggregates job counts for the stats endpoint.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.jobs.Stats(ctx, s.stuckThreshold)
}

// newAccessKey returns a 32-character hex key, a UUID with the dashes
// dropped.
func newAccessKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
