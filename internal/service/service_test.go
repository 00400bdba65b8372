package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/YvesMatteo/GapIntel-sub002/internal/analysis"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
)

// fakeJobStore is an in-memory JobStore with the same state-machine guards
// as the real repository.
type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]*model.AnalysisJob
	now  func() time.Time
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		jobs: make(map[string]*model.AnalysisJob),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (f *fakeJobStore) Create(_ context.Context, job *model.AnalysisJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.jobs {
		if existing.Owner == job.Owner && existing.ChannelID == job.ChannelID &&
			!existing.Status.Terminal() {
			return repository.ErrJobConflict
		}
	}
	clone := *job
	f.jobs[job.ID] = &clone
	return nil
}

func (f *fakeJobStore) FindByAccessKey(_ context.Context, accessKey string) (*model.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.AccessKey == accessKey {
			clone := *j
			return &clone, nil
		}
	}
	return nil, repository.ErrJobNotFound
}

func (f *fakeJobStore) PickupNext(_ context.Context) (*model.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *model.AnalysisJob
	for _, j := range f.jobs {
		if j.Status != model.JobPending {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Status = model.JobProcessing
	oldest.CurrentPhase = PhaseIngest
	oldest.UpdatedAt = f.now()
	clone := *oldest
	return &clone, nil
}

func (f *fakeJobStore) TouchProgress(_ context.Context, jobID, phase string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobProcessing {
		return repository.ErrJobNotActive
	}
	j.CurrentPhase = phase
	if progress > j.Progress {
		j.Progress = progress
	}
	j.UpdatedAt = f.now()
	return nil
}

func (f *fakeJobStore) MarkCompleted(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobProcessing {
		return repository.ErrJobNotActive
	}
	j.Status = model.JobCompleted
	j.CurrentPhase = "done"
	j.Progress = 100
	j.UpdatedAt = f.now()
	return nil
}

func (f *fakeJobStore) MarkFailed(_ context.Context, jobID, errorCode, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobProcessing {
		return repository.ErrJobNotActive
	}
	j.Status = model.JobFailed
	j.ErrorCode = errorCode
	j.ErrorMessage = message
	j.UpdatedAt = f.now()
	return nil
}

func (f *fakeJobStore) Reset(_ context.Context, accessKey string, stuckAfter time.Duration) (*model.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.AccessKey != accessKey {
			continue
		}
		stale := j.Status == model.JobProcessing && f.now().Sub(j.UpdatedAt) > stuckAfter
		if j.Status != model.JobFailed && !stale {
			return nil, repository.ErrJobNotActive
		}
		j.Status = model.JobPending
		j.CurrentPhase = ""
		j.Progress = 0
		j.ErrorCode = ""
		j.ErrorMessage = ""
		j.UpdatedAt = f.now()
		clone := *j
		return &clone, nil
	}
	return nil, repository.ErrJobNotFound
}

func (f *fakeJobStore) SweepStuck(_ context.Context, stuckAfter, alertAfter time.Duration, maxRetries int) (*repository.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &repository.SweepResult{}
	now := f.now()
	for _, j := range f.jobs {
		if j.Status != model.JobProcessing {
			continue
		}
		age := now.Sub(j.UpdatedAt)
		if age <= stuckAfter {
			continue
		}
		if age > alertAfter {
			res.Alerts = append(res.Alerts, *j)
		}
		if j.RetryCount < maxRetries {
			j.Status = model.JobPending
			j.CurrentPhase = ""
			j.Progress = 0
			j.RetryCount++
			j.UpdatedAt = now
			res.Requeued = append(res.Requeued, *j)
		} else {
			j.Status = model.JobFailed
			j.ErrorCode = model.ErrCodeStuckJob
			j.UpdatedAt = now
			res.Failed = append(res.Failed, *j)
		}
	}
	return res, nil
}

func (f *fakeJobStore) Stats(_ context.Context, stuckAfter time.Duration) (*model.JobStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.JobStats{}
	now := f.now()
	for _, j := range f.jobs {
		switch j.Status {
		case model.JobPending:
			s.Pending++
		case model.JobProcessing:
			s.Processing++
			if now.Sub(j.UpdatedAt) > stuckAfter {
				s.Stuck++
			}
		case model.JobCompleted:
			s.Completed++
		case model.JobFailed:
			s.Failed++
		}
	}
	return s, nil
}

func (f *fakeJobStore) get(jobID string) *model.AnalysisJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *f.jobs[jobID]
	return &clone
}

// fakeReportStore keeps report payloads in memory.
type fakeReportStore struct {
	mu      sync.Mutex
	reports map[string][]byte
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[string][]byte)}
}

func (f *fakeReportStore) Save(_ context.Context, report *model.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[report.JobID] = payload
	return nil
}

func (f *fakeReportStore) FindByJobID(_ context.Context, jobID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.reports[jobID]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return payload, nil
}

func (f *fakeReportStore) Delete(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reports, jobID)
	return nil
}

// fixtureSnapshotter serves a canned snapshot.
type fixtureSnapshotter struct {
	snapshot *model.ChannelSnapshot
	err      error
}

func (f fixtureSnapshotter) Snapshot(_ context.Context, _ string) (*model.ChannelSnapshot, error) {
	return f.snapshot, f.err
}

var fixtureFetchedAt = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

// richSnapshot passes the default gate and produces at least one pain point
// so the whole pipeline has work to do.
func richSnapshot() *model.ChannelSnapshot {
	s := &model.ChannelSnapshot{ChannelID: "UCfixture01", FetchedAt: fixtureFetchedAt}
	for i := 0; i < 30; i++ {
		s.Videos = append(s.Videos, model.Video{
			VideoID:      fmt.Sprintf("vid-%03d", i),
			Title:        fmt.Sprintf("Go Tutorial Part %d", i+1),
			PublishedAt:  fixtureFetchedAt.AddDate(0, 0, -(i*7 + 1)),
			Views:        model.CountOf(8000),
			Likes:        model.CountOf(240),
			CommentCount: model.CountOf(25),
		})
	}
	for i := 0; i < 117; i++ {
		s.Comments = append(s.Comments, model.Comment{
			CommentID:   fmt.Sprintf("c-%04d", i),
			VideoID:     fmt.Sprintf("vid-%03d", i%30),
			Author:      fmt.Sprintf("viewer-%d", i),
			Text:        "nice one",
			PublishedAt: fixtureFetchedAt.AddDate(0, 0, -5),
			Likes:       model.CountOf(1),
		})
	}
	for i, text := range []string{
		"how do I debug goroutine leaks?",
		"goroutine leaks keep biting me, help me out",
		"why are goroutine leaks so confusing to track down?",
	} {
		s.Comments = append(s.Comments, model.Comment{
			CommentID:   fmt.Sprintf("q-%02d", i),
			VideoID:     "vid-000",
			Author:      fmt.Sprintf("asker-%d", i),
			Text:        text,
			PublishedAt: fixtureFetchedAt.AddDate(0, 0, -3),
			Likes:       model.CountOf(2),
		})
	}
	return s
}

func newPipeline(jobs JobStore, reports ReportStore, snap Snapshotter) *PipelineService {
	gate := analysis.Gate{MinVideos: 20, MinComments: 50}
	return NewPipelineService(jobs, reports, snap, gate, 4, nil, nil, nil)
}

func submitAndClaim(t *testing.T, jobs *fakeJobStore) *model.AnalysisJob {
	t.Helper()
	job := &model.AnalysisJob{
		ID:        uuid.NewString(),
		AccessKey: "abcdef0123456789abcdef0123456789",
		ChannelID: "UCfixture01",
		Owner:     "owner-hash",
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := jobs.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	claimed, err := jobs.PickupNext(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil {
		t.Fatal("expected to claim the pending job")
	}
	return claimed
}

func TestPipeline_FullRun(t *testing.T) {
	jobs := newFakeJobStore()
	reports := newFakeReportStore()
	p := newPipeline(jobs, reports, fixtureSnapshotter{snapshot: richSnapshot()})

	claimed := submitAndClaim(t, jobs)
	if err := p.Run(context.Background(), claimed); err != nil {
		t.Fatal(err)
	}

	final := jobs.get(claimed.ID)
	if final.Status != model.JobCompleted {
		t.Fatalf("status = %s (%s: %s), want completed",
			final.Status, final.ErrorCode, final.ErrorMessage)
	}
	if final.Progress != 100 {
		t.Errorf("progress = %d, want 100", final.Progress)
	}

	payload, err := reports.FindByJobID(context.Background(), claimed.ID)
	if err != nil {
		t.Fatal(err)
	}
	var report model.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		t.Fatal(err)
	}

	stats := report.PipelineStats
	if got := stats.TrueGaps + stats.UnderExplained + stats.Saturated; got != stats.PainPointsFound {
		t.Errorf("gap accounting: %d classified of %d found", got, stats.PainPointsFound)
	}
	if stats.PainPointsFound == 0 {
		t.Error("fixture should produce at least one pain point")
	}
	// No transcripts in the fixture, so every gap is a true gap and the
	// top one is the hero.
	if report.TopOpportunity == nil || !report.TopOpportunity.Hero {
		t.Errorf("top opportunity = %+v, want a hero", report.TopOpportunity)
	}
	if report.SnapshotFingerprint == "" {
		t.Error("fingerprint should be set")
	}
}

func TestPipeline_GateRejectFailsWithInsufficientData(t *testing.T) {
	thin := &model.ChannelSnapshot{ChannelID: "UCfixture01", FetchedAt: fixtureFetchedAt}
	for i := 0; i < 5; i++ {
		thin.Videos = append(thin.Videos, model.Video{
			VideoID: fmt.Sprintf("vid-%03d", i), Title: "A Video",
			PublishedAt: fixtureFetchedAt.AddDate(0, 0, -i),
		})
	}

	jobs := newFakeJobStore()
	reports := newFakeReportStore()
	p := newPipeline(jobs, reports, fixtureSnapshotter{snapshot: thin})

	claimed := submitAndClaim(t, jobs)
	if err := p.Run(context.Background(), claimed); err != nil {
		t.Fatal(err)
	}

	final := jobs.get(claimed.ID)
	if final.Status != model.JobFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if final.ErrorCode != model.ErrCodeInsufficientData {
		t.Errorf("error code = %q, want insufficient_data", final.ErrorCode)
	}
	if final.ErrorMessage == "" {
		t.Error("gate rejections must say what was missing")
	}
	if _, err := reports.FindByJobID(context.Background(), claimed.ID); err == nil {
		t.Error("a rejected job must not produce a report")
	}
}

func TestPipeline_RequeuedJobAbortsOldRun(t *testing.T) {
	jobs := newFakeJobStore()
	reports := newFakeReportStore()
	p := newPipeline(jobs, reports, fixtureSnapshotter{snapshot: richSnapshot()})

	claimed := submitAndClaim(t, jobs)

	// Simulate the sweep taking the job away mid-run.
	jobs.mu.Lock()
	jobs.jobs[claimed.ID].Status = model.JobPending
	jobs.mu.Unlock()

	if err := p.Run(context.Background(), claimed); err != nil {
		t.Fatalf("a run that lost its job should abort quietly, got %v", err)
	}
	final := jobs.get(claimed.ID)
	if final.Status != model.JobPending {
		t.Errorf("status = %s, the new attempt's state must be untouched", final.Status)
	}
}

func TestJobService_SubmitConflict(t *testing.T) {
	jobs := newFakeJobStore()
	svc := NewJobService(jobs, newFakeReportStore(), nil, 30*time.Minute)

	first, err := svc.Submit(context.Background(), "UCfixture01", "owner@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.AccessKey) != 32 {
		t.Errorf("access key %q should be 32 hex chars", first.AccessKey)
	}

	if _, err := svc.Submit(context.Background(), "UCfixture01", "owner@example.com"); err != repository.ErrJobConflict {
		t.Errorf("err = %v, want ErrJobConflict for a duplicate active job", err)
	}

	// A different channel for the same owner is fine.
	if _, err := svc.Submit(context.Background(), "UCother0001", "owner@example.com"); err != nil {
		t.Errorf("different channel should not conflict: %v", err)
	}
}

func TestJobService_ResetClearsReport(t *testing.T) {
	jobs := newFakeJobStore()
	reports := newFakeReportStore()
	svc := NewJobService(jobs, reports, nil, 30*time.Minute)

	job, err := svc.Submit(context.Background(), "UCfixture01", "owner@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Drive the job to failed with a stale report lying around.
	if _, err := jobs.PickupNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := jobs.MarkFailed(context.Background(), job.ID, model.ErrCodePipelineError, "boom"); err != nil {
		t.Fatal(err)
	}
	if err := reports.Save(context.Background(), &model.Report{JobID: job.ID, ChannelID: job.ChannelID}); err != nil {
		t.Fatal(err)
	}

	reset, err := svc.Reset(context.Background(), job.AccessKey)
	if err != nil {
		t.Fatal(err)
	}
	if reset.Status != model.JobPending || reset.ErrorCode != "" {
		t.Errorf("reset job = %+v, want clean pending", reset)
	}
	if _, err := reports.FindByJobID(context.Background(), job.ID); err == nil {
		t.Error("reset must delete the stale report")
	}
}

func TestJobService_ResetRejectsActiveJob(t *testing.T) {
	jobs := newFakeJobStore()
	svc := NewJobService(jobs, newFakeReportStore(), nil, 30*time.Minute)

	job, err := svc.Submit(context.Background(), "UCfixture01", "owner@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jobs.PickupNext(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Freshly processing, well inside the stuck threshold.
	if _, err := svc.Reset(context.Background(), job.AccessKey); err != repository.ErrJobNotActive {
		t.Errorf("err = %v, want ErrJobNotActive for a healthy processing job", err)
	}
}

func TestSweep_RequeuesStuckJobWithRetriesLeft(t *testing.T) {
	jobs := newFakeJobStore()
	now := time.Now().UTC()
	jobs.now = func() time.Time { return now }

	claimed := submitAndClaim(t, jobs)

	// 35 minutes pass with no progress touch.
	now = now.Add(35 * time.Minute)

	res, err := jobs.SweepStuck(context.Background(), 30*time.Minute, 60*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Requeued) != 1 || len(res.Failed) != 0 {
		t.Fatalf("sweep = %d requeued, %d failed; want 1, 0", len(res.Requeued), len(res.Failed))
	}

	final := jobs.get(claimed.ID)
	if final.Status != model.JobPending {
		t.Errorf("status = %s, want pending", final.Status)
	}
	if final.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", final.RetryCount)
	}
	if final.Progress != 0 {
		t.Errorf("progress = %d, a requeued job starts over", final.Progress)
	}
}

func TestSweep_FailsJobPastMaxRetries(t *testing.T) {
	jobs := newFakeJobStore()
	now := time.Now().UTC()
	jobs.now = func() time.Time { return now }

	claimed := submitAndClaim(t, jobs)
	jobs.mu.Lock()
	jobs.jobs[claimed.ID].RetryCount = 2
	jobs.mu.Unlock()

	now = now.Add(90 * time.Minute)

	res, err := jobs.SweepStuck(context.Background(), 30*time.Minute, 60*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("sweep failed = %d, want 1", len(res.Failed))
	}
	if len(res.Alerts) != 1 {
		t.Errorf("alerts = %d, want 1 past the alert threshold", len(res.Alerts))
	}

	final := jobs.get(claimed.ID)
	if final.Status != model.JobFailed || final.ErrorCode != model.ErrCodeStuckJob {
		t.Errorf("job = %s/%s, want failed/stuck_job", final.Status, final.ErrorCode)
	}
}

func TestSweep_AlertsOncePerStuckJob(t *testing.T) {
	jobs := newFakeJobStore()
	now := time.Now().UTC()
	jobs.now = func() time.Time { return now }

	claimed := submitAndClaim(t, jobs)
	jobs.mu.Lock()
	jobs.jobs[claimed.ID].RetryCount = 2
	jobs.mu.Unlock()

	now = now.Add(90 * time.Minute)

	res, err := jobs.SweepStuck(context.Background(), 30*time.Minute, 60*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Alerts) != 1 || len(res.Failed) != 1 {
		t.Fatalf("first sweep = %d alerts, %d failed; want 1, 1", len(res.Alerts), len(res.Failed))
	}

	// The failed job keeps aging but is terminal; later sweeps must leave
	// it alone instead of alerting on it forever.
	now = now.Add(90 * time.Minute)

	res, err = jobs.SweepStuck(context.Background(), 30*time.Minute, 60*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Alerts) != 0 || len(res.Requeued) != 0 || len(res.Failed) != 0 {
		t.Errorf("second sweep = %d alerts, %d requeued, %d failed; want all zero",
			len(res.Alerts), len(res.Requeued), len(res.Failed))
	}
}

func TestSweep_RequeuedStaleJobStillAlerts(t *testing.T) {
	jobs := newFakeJobStore()
	now := time.Now().UTC()
	jobs.now = func() time.Time { return now }

	claimed := submitAndClaim(t, jobs)

	// Past the alert threshold with retries left: the job is requeued and
	// the same pass alerts on its pre-sweep staleness.
	now = now.Add(90 * time.Minute)

	res, err := jobs.SweepStuck(context.Background(), 30*time.Minute, 60*time.Minute, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Requeued) != 1 {
		t.Fatalf("requeued = %d, want 1", len(res.Requeued))
	}
	if len(res.Alerts) != 1 || res.Alerts[0].ID != claimed.ID {
		t.Fatalf("alerts = %+v, want the requeued job itself", res.Alerts)
	}
	if !res.Alerts[0].UpdatedAt.Before(now.Add(-60 * time.Minute)) {
		t.Error("alert must carry the pre-sweep updated_at, not the requeue touch")
	}
}
