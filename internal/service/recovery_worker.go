package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/config"
	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// RecoveryWorker is the periodic sweep that rescues jobs whose run died
// without reaching a terminal state. A processing job whose updated_at goes
// stale past the stuck threshold is re-queued while it has retries left and
// failed permanently after that; anything stale past the alert threshold is
// logged loudly for the operator.
type RecoveryWorker struct {
	jobs     JobStore
	interval time.Duration
	stuck    time.Duration
	alert    time.Duration
	retries  int
	stopCh   chan struct{}
}

// NewRecoveryWorker creates the sweep worker from the pipeline config.
func NewRecoveryWorker(jobs JobStore, cfg config.PipelineConfig) *RecoveryWorker {
	return &RecoveryWorker{
		jobs:     jobs,
		interval: cfg.SweepInterval,
		stuck:    cfg.StuckThreshold,
		alert:    cfg.AlertThreshold,
		retries:  cfg.MaxJobRetries,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. It runs one sweep immediately, so a
// restart after a crash rescues stuck jobs without waiting a full interval.
func (w *RecoveryWorker) Start(ctx context.Context) {
	log.Info().Str("component", "recovery-worker").
		Dur("interval", w.interval).Dur("stuck_threshold", w.stuck).
		Dur("alert_threshold", w.alert).Int("max_retries", w.retries).
		Msg("starting")

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			log.Info().Str("component", "recovery-worker").Msg("stopping")
			return
		case <-w.stopCh:
			log.Info().Str("component", "recovery-worker").Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *RecoveryWorker) Stop() {
	close(w.stopCh)
}

// sweep runs one recovery pass.
func (w *RecoveryWorker) sweep(ctx context.Context) {
	start := time.Now()

	res, err := w.jobs.SweepStuck(ctx, w.stuck, w.alert, w.retries)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Str("component", "recovery-worker").Msg("sweep failed")
		}
		return
	}

	for _, job := range res.Requeued {
		log.Warn().Str("component", "recovery-worker").
			Str("job_id", job.ID).Str("channel_id", job.ChannelID).
			Int("retry_count", job.RetryCount).
			Msg("stuck job re-queued")
	}
	for _, job := range res.Failed {
		log.Error().Str("component", "recovery-worker").
			Str("job_id", job.ID).Str("channel_id", job.ChannelID).
			Int("retry_count", job.RetryCount).
			Msg("stuck job failed permanently, retries exhausted")
	}
	for _, job := range res.Alerts {
		log.Error().Str("component", "recovery-worker").
			Str("job_id", job.ID).Str("channel_id", job.ChannelID).
			Time("last_update", job.UpdatedAt).
			Msg("ALERT: job stale past alert threshold")
	}

	metrics.JobsRequeued(len(res.Requeued))
	metrics.StuckJobAlerted(len(res.Alerts))
	for range res.Failed {
		metrics.JobFailed(model.ErrCodeStuckJob)
	}

	if n := len(res.Requeued) + len(res.Failed); n > 0 {
		log.Info().Str("component", "recovery-worker").
			Int("requeued", len(res.Requeued)).Int("failed", len(res.Failed)).
			Int("alerts", len(res.Alerts)).
			Dur("elapsed", time.Since(start).Round(time.Millisecond)).
			Msg("sweep complete")
	}
}
