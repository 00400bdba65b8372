package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/analysis"
	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
)

// Pipeline phases in execution order, with the progress each phase reports
// when it completes. Progress is monotonic; a re-queued job starts over
// from zero.
const (
	PhaseIngest     = "ingest"
	PhaseQuality    = "quality_gate"
	PhaseMetrics    = "metric_engine"
	PhaseVerify     = "gap_verification"
	PhaseRank       = "ranking"
	PhaseSynthesize = "synthesis"
	PhasePersist    = "persist"
)

var phaseProgress = map[string]int{
	PhaseIngest:     20,
	PhaseQuality:    25,
	PhaseMetrics:    55,
	PhaseVerify:     75,
	PhaseRank:       85,
	PhaseSynthesize: 95,
	PhasePersist:    100,
}

// Snapshotter builds the immutable channel snapshot, normally
// IngestService; tests substitute a fixture.
type Snapshotter interface {
	Snapshot(ctx context.Context, channelID string) (*model.ChannelSnapshot, error)
}

// PipelineService runs one job end to end through the analysis stages. It
// owns every job mutation between pickup and the terminal state.
type PipelineService struct {
	jobs     JobStore
	reports  ReportStore
	ingest   Snapshotter
	gate     analysis.Gate
	engine   analysis.Engine
	verifier analysis.Verifier
	ranker   analysis.Ranker
	synth    analysis.Synthesizer
}

// NewPipelineService wires the pipeline. judge, trends and titles may be
// nil; every stage has a deterministic path without its collaborator.
func NewPipelineService(
	jobs JobStore,
	reports ReportStore,
	ingest Snapshotter,
	gate analysis.Gate,
	scorerParallelism int,
	judge analysis.CoverageJudge,
	trends analysis.TrendSource,
	titles analysis.TitleGenerator,
) *PipelineService {
	return &PipelineService{
		jobs:     jobs,
		reports:  reports,
		ingest:   ingest,
		gate:     gate,
		engine:   analysis.Engine{Parallelism: scorerParallelism},
		verifier: analysis.NewVerifier(judge, scorerParallelism),
		ranker:   analysis.Ranker{Trends: trends},
		synth:    analysis.Synthesizer{Titles: titles},
	}
}

// Run executes the pipeline for one claimed job. The job is already in
// processing when Run starts. Every stage boundary touches progress, which
// both reports status and proves liveness to the recovery sweep; a
// re-queued job makes the old run's next touch fail with ErrJobNotActive,
// and the old run stops without writing anything further.
func (p *PipelineService) Run(ctx context.Context, job *model.AnalysisJob) error {
	started := time.Now()
	logger := log.With().Str("component", "pipeline").
		Str("job_id", job.ID).Str("channel_id", job.ChannelID).Logger()
	logger.Info().Msg("pipeline started")

	snapshot, err := p.runIngest(ctx, job)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	gateRes, err := p.runQualityGate(ctx, job, snapshot)
	if err != nil {
		return p.fail(ctx, job, err)
	}
	if !gateRes.Pass {
		logger.Info().Str("reason", gateRes.Reason).Msg("quality gate rejected channel")
		metrics.JobFailed(model.ErrCodeInsufficientData)
		return p.jobs.MarkFailed(ctx, job.ID, model.ErrCodeInsufficientData, gateRes.Reason)
	}

	set, err := p.runMetrics(ctx, job, snapshot)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	gaps, err := p.runVerify(ctx, job, snapshot, set.Demand.PainPoints)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	opportunities, covered, err := p.runRank(ctx, job, gaps)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	report, err := p.runSynthesize(ctx, job, snapshot, gateRes, set, opportunities, covered)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	if err := p.runPersist(ctx, job, report); err != nil {
		return p.fail(ctx, job, err)
	}

	if err := p.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return p.abortIfStale(job, err)
	}

	metrics.JobCompleted()
	metrics.ObservePipeline(time.Since(started))
	logger.Info().Dur("duration", time.Since(started)).
		Int("opportunities", len(opportunities)).Msg("pipeline completed")
	return nil
}

func (p *PipelineService) runIngest(ctx context.Context, job *model.AnalysisJob) (*model.ChannelSnapshot, error) {
	defer p.observe(PhaseIngest)()
	snapshot, err := p.ingest.Snapshot(ctx, job.ChannelID)
	if err != nil {
		return nil, err
	}
	return snapshot, p.touch(ctx, job, PhaseIngest)
}

func (p *PipelineService) runQualityGate(ctx context.Context, job *model.AnalysisJob, s *model.ChannelSnapshot) (analysis.GateResult, error) {
	defer p.observe(PhaseQuality)()
	res := p.gate.Evaluate(s)
	return res, p.touch(ctx, job, PhaseQuality)
}

func (p *PipelineService) runMetrics(ctx context.Context, job *model.AnalysisJob, s *model.ChannelSnapshot) (model.MetricSet, error) {
	defer p.observe(PhaseMetrics)()
	set, err := p.engine.Run(ctx, s)
	if err != nil {
		return model.MetricSet{}, err
	}
	return set, p.touch(ctx, job, PhaseMetrics)
}

func (p *PipelineService) runVerify(ctx context.Context, job *model.AnalysisJob, s *model.ChannelSnapshot, points []model.PainPoint) ([]model.Gap, error) {
	defer p.observe(PhaseVerify)()
	gaps, err := p.verifier.Verify(ctx, s, points)
	if err != nil {
		return nil, err
	}
	return gaps, p.touch(ctx, job, PhaseVerify)
}

func (p *PipelineService) runRank(ctx context.Context, job *model.AnalysisJob, gaps []model.Gap) ([]model.Opportunity, []model.Gap, error) {
	defer p.observe(PhaseRank)()
	opportunities, covered, err := p.ranker.Rank(ctx, gaps)
	if err != nil {
		return nil, nil, err
	}
	return opportunities, covered, p.touch(ctx, job, PhaseRank)
}

func (p *PipelineService) runSynthesize(
	ctx context.Context,
	job *model.AnalysisJob,
	s *model.ChannelSnapshot,
	gateRes analysis.GateResult,
	set model.MetricSet,
	opportunities []model.Opportunity,
	covered []model.Gap,
) (*model.Report, error) {
	defer p.observe(PhaseSynthesize)()
	report, err := p.synth.Build(ctx, job.ID, s, gateRes, set, opportunities, covered)
	if err != nil {
		return nil, err
	}
	return report, p.touch(ctx, job, PhaseSynthesize)
}

func (p *PipelineService) runPersist(ctx context.Context, job *model.AnalysisJob, report *model.Report) error {
	defer p.observe(PhasePersist)()
	if err := p.reports.Save(ctx, report); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	return nil
}

func (p *PipelineService) touch(ctx context.Context, job *model.AnalysisJob, phase string) error {
	return p.jobs.TouchProgress(ctx, job.ID, phase, phaseProgress[phase])
}

// fail records a terminal failure, unless the job was taken away from this
// run by the sweep, in which case the new attempt owns it and we only log.
func (p *PipelineService) fail(ctx context.Context, job *model.AnalysisJob, cause error) error {
	if errors.Is(cause, repository.ErrJobNotActive) {
		return p.abortIfStale(job, cause)
	}
	if ctx.Err() != nil {
		// Shutdown, not a pipeline failure. The sweep will requeue.
		log.Info().Str("component", "pipeline").Str("job_id", job.ID).
			Msg("pipeline interrupted by shutdown")
		return cause
	}

	log.Error().Err(cause).Str("component", "pipeline").Str("job_id", job.ID).
		Msg("pipeline failed")
	metrics.JobFailed(model.ErrCodePipelineError)
	if err := p.jobs.MarkFailed(ctx, job.ID, model.ErrCodePipelineError, cause.Error()); err != nil {
		return p.abortIfStale(job, err)
	}
	return cause
}

func (p *PipelineService) abortIfStale(job *model.AnalysisJob, err error) error {
	if errors.Is(err, repository.ErrJobNotActive) {
		log.Warn().Str("component", "pipeline").Str("job_id", job.ID).
			Msg("job no longer owned by this run, aborting")
		return nil
	}
	return err
}

func (p *PipelineService) observe(phase string) func() {
	start := time.Now()
	return func() {
		metrics.ObservePhase(phase, time.Since(start))
	}
}
