package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// ErrReportNotFound means no report exists for the job yet.
var ErrReportNotFound = errors.New("report not found")

// ReportRepo persists finished reports as jsonb, one per job.
type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Save writes a report. A re-run after reset overwrites the previous one;
// the report is immutable between runs, not across them.
func (r *ReportRepo) Save(ctx context.Context, report *model.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO reports (job_id, channel_id, payload, generated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id) DO UPDATE
		SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`,
		report.JobID, report.ChannelID, payload, report.GeneratedAt)
	return err
}

// FindByJobID returns the raw report payload for one job. Callers serve the
// bytes straight through; there is no reason to round-trip the JSON.
func (r *ReportRepo) FindByJobID(ctx context.Context, jobID string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT payload FROM reports WHERE job_id = $1`, jobID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Delete removes a job's report, used when an operator resets the job.
func (r *ReportRepo) Delete(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE job_id = $1`, jobID)
	return err
}
