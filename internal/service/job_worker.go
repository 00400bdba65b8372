package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
)

// JobWorker drives the pipeline. It learns about new jobs two ways: a
// LISTEN on the analysis_jobs channel for low latency, and a poll ticker as
// the safety net for missed notifications and requeued jobs. Concurrency is
// bounded; claims go through FOR UPDATE SKIP LOCKED so multiple instances
// never run the same job.
type JobWorker struct {
	pool         *pgxpool.Pool
	jobs         JobStore
	pipeline     *PipelineService
	pollInterval time.Duration
	concurrency  int

	wake chan struct{}
}

// NewJobWorker creates the pipeline worker. pool may be nil in tests, which
// disables LISTEN and leaves polling.
func NewJobWorker(pool *pgxpool.Pool, jobs JobStore, pipeline *PipelineService, pollInterval time.Duration, concurrency int) *JobWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &JobWorker{
		pool:         pool,
		jobs:         jobs,
		pipeline:     pipeline,
		pollInterval: pollInterval,
		concurrency:  concurrency,
		wake:         make(chan struct{}, 1),
	}
}

// Start runs until the context is cancelled. In-flight pipeline runs finish
// their current stage write and then stop on the cancelled context; the
// recovery sweep requeues whatever was cut off.
func (w *JobWorker) Start(ctx context.Context) {
	log.Info().Str("component", "job-worker").
		Dur("poll_interval", w.pollInterval).Int("concurrency", w.concurrency).
		Msg("starting")

	if w.pool != nil {
		go w.listen(ctx)
	}

	sem := make(chan struct{}, w.concurrency)

	// Drain anything already pending before the first tick.
	w.drain(ctx, sem)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.drain(ctx, sem)
		case <-w.wake:
			w.drain(ctx, sem)
		case <-ctx.Done():
			log.Info().Str("component", "job-worker").Msg("stopping")
			return
		}
	}
}

// drain claims pending jobs until the queue is empty or all slots are busy.
func (w *JobWorker) drain(ctx context.Context, sem chan struct{}) {
	for {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		default:
			// All slots busy; the next tick or wake tries again.
			return
		}

		job, err := w.jobs.PickupNext(ctx)
		if err != nil {
			<-sem
			if ctx.Err() == nil {
				log.Error().Err(err).Str("component", "job-worker").Msg("pickup failed")
			}
			return
		}
		if job == nil {
			<-sem
			return
		}

		go func() {
			defer func() { <-sem }()
			if err := w.pipeline.Run(ctx, job); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("component", "job-worker").
					Str("job_id", job.ID).Msg("pipeline run failed")
			}
		}()
	}
}

// listen holds a dedicated connection on LISTEN and converts notifications
// into wake signals. Connection loss backs off and reconnects; polling
// covers the gap.
func (w *JobWorker) listen(ctx context.Context) {
	for {
		if err := w.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("component", "job-worker").
				Msg("listen connection lost, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *JobWorker) listenOnce(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+repository.NotifyChannel); err != nil {
		return err
	}
	log.Info().Str("component", "job-worker").
		Str("channel", repository.NotifyChannel).Msg("listening")

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}
		select {
		case w.wake <- struct{}{}:
		default:
			// A wake is already queued; one drain covers any number of
			// notifications.
		}
	}
}
