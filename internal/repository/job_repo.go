package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// NotifyChannel is the LISTEN/NOTIFY channel the job worker subscribes to.
const NotifyChannel = "analysis_jobs"

var (
	// ErrJobConflict means the owner already has a non-terminal job for the
	// channel.
	ErrJobConflict = errors.New("an active job already exists for this channel")
	// ErrJobNotFound means no job matches the given access key.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotActive means a progress write hit a job that is no longer
	// processing, which happens after the sweep re-queues it.
	ErrJobNotActive = errors.New("job is not processing")
)

const jobColumns = `id, access_key, channel_id, owner_hash, status, current_phase,
	       progress, retry_count, error_code, error_message, created_at, updated_at`

// JobRepo is the durable store for analysis jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create inserts a pending job and notifies the worker. The partial unique
// index on (owner_hash, channel_id) enforces one non-terminal job per pair;
// a violation surfaces as ErrJobConflict.
func (r *JobRepo) Create(ctx context.Context, job *model.AnalysisJob) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO analysis_jobs (id, access_key, channel_id, owner_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())`,
		job.ID, job.AccessKey, job.ChannelID, job.Owner)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrJobConflict
		}
		return err
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, job.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindByAccessKey returns one job by its access key.
func (r *JobRepo) FindByAccessKey(ctx context.Context, accessKey string) (*model.AnalysisJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE access_key = $1`, accessKey)
	return scanJob(row)
}

// PickupNext claims the oldest pending job and moves it to processing.
// FOR UPDATE SKIP LOCKED lets concurrent workers claim different jobs
// without blocking each other. Returns nil when the queue is empty.
func (r *JobRepo) PickupNext(ctx context.Context) (*model.AnalysisJob, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE analysis_jobs
		SET status = 'processing', current_phase = 'ingest', updated_at = NOW()
		WHERE id = (
			SELECT id FROM analysis_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns)

	job, err := scanJob(row)
	if errors.Is(err, ErrJobNotFound) {
		return nil, nil
	}
	return job, err
}

// TouchProgress advances a processing job's phase and progress and refreshes
// updated_at, which is what keeps the recovery sweep away. The status guard
// makes a re-queued job's old run fail its next write instead of corrupting
// the new attempt.
func (r *JobRepo) TouchProgress(ctx context.Context, jobID, phase string, progress int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET current_phase = $2, progress = GREATEST(progress, $3), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		jobID, phase, progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotActive
	}
	return nil
}

// MarkCompleted finishes a processing job.
func (r *JobRepo) MarkCompleted(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = 'completed', current_phase = 'done', progress = 100,
		    error_code = '', error_message = '', updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotActive
	}
	return nil
}

// MarkFailed moves a processing job to failed with a structured error.
func (r *JobRepo) MarkFailed(ctx context.Context, jobID, errorCode, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = 'failed', error_code = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		jobID, errorCode, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotActive
	}
	return nil
}

// Reset is the operator edge: a failed job, or a processing job that has
// been stale past the stuck threshold, goes back to pending for a fresh
// attempt. The stale guard stops a reset from yanking a healthy run.
func (r *JobRepo) Reset(ctx context.Context, accessKey string, stuckAfter time.Duration) (*model.AnalysisJob, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE analysis_jobs
		SET status = 'pending', current_phase = '', progress = 0,
		    error_code = '', error_message = '', updated_at = NOW()
		WHERE access_key = $1
		  AND (status = 'failed' OR (status = 'processing' AND updated_at < NOW() - make_interval(secs => $2)))
		RETURNING `+jobColumns,
		accessKey, stuckAfter.Seconds())

	job, err := scanJob(row)
	if errors.Is(err, ErrJobNotFound) {
		// Distinguish a missing job from one in the wrong state.
		if _, findErr := r.FindByAccessKey(ctx, accessKey); findErr == nil {
			return nil, ErrJobNotActive
		}
		return nil, ErrJobNotFound
	}
	if err == nil {
		_, err = r.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, job.ID)
	}
	return job, err
}

// SweepResult is one recovery pass over stale processing jobs.
type SweepResult struct {
	Requeued []model.AnalysisJob
	Failed   []model.AnalysisJob
	Alerts   []model.AnalysisJob
}

// SweepStuck handles processing jobs whose updated_at is older than
// stuckAfter: those with retries left go back to pending with the count
// bumped, the rest fail permanently with the stuck_job code. Alerts are the
// stale jobs whose updated_at had also crossed alertAfter. The stale set and
// its staleness are captured before the updates touch updated_at, so a job
// handled this pass still alerts, and a job failed by an earlier pass never
// alerts again.
func (r *JobRepo) SweepStuck(ctx context.Context, stuckAfter, alertAfter time.Duration, maxRetries int) (*SweepResult, error) {
	res := &SweepResult{}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE status = 'processing'
		  AND updated_at < NOW() - make_interval(secs => $1)
		ORDER BY updated_at
		FOR UPDATE SKIP LOCKED`,
		stuckAfter.Seconds())
	if err != nil {
		return nil, err
	}
	stale, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return res, tx.Commit(ctx)
	}

	// The alert cutoff comes from the database clock so the comparison uses
	// the same clock that wrote updated_at.
	var alertCutoff time.Time
	if err := tx.QueryRow(ctx, `SELECT NOW() - make_interval(secs => $1)`,
		alertAfter.Seconds()).Scan(&alertCutoff); err != nil {
		return nil, err
	}

	var requeueIDs, failIDs []string
	for _, j := range stale {
		if j.UpdatedAt.Before(alertCutoff) {
			res.Alerts = append(res.Alerts, j)
		}
		if j.RetryCount < maxRetries {
			requeueIDs = append(requeueIDs, j.ID)
		} else {
			failIDs = append(failIDs, j.ID)
		}
	}

	if len(requeueIDs) > 0 {
		rows, err = tx.Query(ctx, `
			UPDATE analysis_jobs
			SET status = 'pending', current_phase = '', progress = 0,
			    retry_count = retry_count + 1, updated_at = NOW()
			WHERE id = ANY($1::uuid[])
			RETURNING `+jobColumns, requeueIDs)
		if err != nil {
			return nil, err
		}
		res.Requeued, err = collectJobs(rows)
		if err != nil {
			return nil, err
		}
	}

	if len(failIDs) > 0 {
		rows, err = tx.Query(ctx, `
			UPDATE analysis_jobs
			SET status = 'failed', error_code = $2, error_message = 'job exceeded the stuck threshold with no retries left',
			    updated_at = NOW()
			WHERE id = ANY($1::uuid[])
			RETURNING `+jobColumns, failIDs, model.ErrCodeStuckJob)
		if err != nil {
			return nil, err
		}
		res.Failed, err = collectJobs(rows)
		if err != nil {
			return nil, err
		}
	}

	// Re-notify so a worker picks the requeued jobs up without waiting for
	// the poll interval.
	for _, job := range res.Requeued {
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, job.ID); err != nil {
			return nil, err
		}
	}
	return res, tx.Commit(ctx)
}

// Stats aggregates job counts for the stats endpoint. Stuck counts
// processing jobs stale past the given threshold.
func (r *JobRepo) Stats(ctx context.Context, stuckAfter time.Duration) (*model.JobStats, error) {
	var s model.JobStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending')    AS pending,
			COUNT(*) FILTER (WHERE status = 'processing') AS processing,
			COUNT(*) FILTER (WHERE status = 'completed')  AS completed,
			COUNT(*) FILTER (WHERE status = 'failed')     AS failed,
			COUNT(*) FILTER (WHERE status = 'processing'
			                   AND updated_at < NOW() - make_interval(secs => $1)) AS stuck
		FROM analysis_jobs`, stuckAfter.Seconds()).
		Scan(&s.Pending, &s.Processing, &s.Completed, &s.Failed, &s.Stuck)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanJob(row pgx.Row) (*model.AnalysisJob, error) {
	var j model.AnalysisJob
	err := row.Scan(
		&j.ID, &j.AccessKey, &j.ChannelID, &j.Owner, &j.Status, &j.CurrentPhase,
		&j.Progress, &j.RetryCount, &j.ErrorCode, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]model.AnalysisJob, error) {
	defer rows.Close()
	var jobs []model.AnalysisJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
