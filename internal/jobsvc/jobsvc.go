// Package jobsvc is the Job Model & Lifecycle service (C3): repository-backed
// state transitions over domain.Job, plus the create-time uniqueness and
// scenario-state guards from §4.3.
package jobsvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/domain/repository"
)

// Service wraps the Job repository with the lifecycle rules in §4.3.
type Service struct {
	jobs      repository.JobRepository
	scenarios repository.ScenarioRepository
	now       func() time.Time
	log       zerolog.Logger
}

func New(jobs repository.JobRepository, scenarios repository.ScenarioRepository, log zerolog.Logger) *Service {
	return &Service{jobs: jobs, scenarios: scenarios, now: time.Now, log: log}
}

// CreateInput is everything the Simulation Orchestrator (C6) has in hand
// when it wants to schedule one student's simulation.
type CreateInput struct {
	ClassroomID                domain.ClassroomID
	ScenarioID                 domain.ScenarioID
	UserID                     domain.UserID
	SubmissionID               domain.SubmissionID
	DryRun                     bool
	ExpectedCashBefore         domain.JobMoney
	ExpectedInventoryState     domain.InventoryState
	CalculationContextSnapshot map[string]any
}

// Create enforces §4.3's create guard: the scenario must be closed, and no
// other job for (scenario, user) may exist in a non-failed state.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Job, error) {
	scenario, err := s.scenarios.GetScenario(ctx, in.ScenarioID)
	if err != nil {
		return domain.Job{}, simerrors.Internal("loading scenario for job creation", err)
	}
	if !scenario.CanSimulate() {
		return domain.Job{}, simerrors.Validation("scenario must be closed before jobs can be created")
	}

	active, err := s.jobs.FindActiveJob(ctx, in.ScenarioID, in.UserID)
	if err != nil {
		return domain.Job{}, simerrors.Internal("checking for an active job", err)
	}
	if active != nil {
		return domain.Job{}, simerrors.Validation("a non-failed job already exists for this scenario and user")
	}

	job := domain.Job{
		ID:                         domain.JobID(uuid.New()),
		ClassroomID:                in.ClassroomID,
		ScenarioID:                 in.ScenarioID,
		UserID:                     in.UserID,
		SubmissionID:               in.SubmissionID,
		State:                      domain.JobPending,
		DryRun:                     in.DryRun,
		ExpectedCashBefore:         in.ExpectedCashBefore,
		ExpectedInventoryState:     in.ExpectedInventoryState,
		CalculationContextSnapshot: in.CalculationContextSnapshot,
		CreatedAt:                  s.now(),
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting new job", err)
	}

	s.log.Info().Str("job", job.ID.String()).Str("scenario", job.ScenarioID.String()).Str("user", job.UserID.String()).Msg("job created")
	return job, nil
}

// Claim performs the pending→running transition as a conditional update,
// returning ok=false if another worker already claimed it.
func (s *Service) Claim(ctx context.Context, id domain.JobID) (job domain.Job, ok bool, err error) {
	now := s.now()
	claimed, err := s.jobs.MarkRunning(ctx, id, now)
	if err != nil {
		return domain.Job{}, false, simerrors.Internal("claiming job", err)
	}
	if !claimed {
		return domain.Job{}, false, nil
	}
	job, err = s.jobs.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, false, simerrors.Internal("loading claimed job", err)
	}
	return job, true, nil
}

// Complete marks a running job completed, persisting the ledger entry id
// (nil for dry runs) it produced.
func (s *Service) Complete(ctx context.Context, job domain.Job, ledgerEntryID *domain.LedgerEntryID) (domain.Job, error) {
	if err := job.Complete(s.now(), ledgerEntryID); err != nil {
		return domain.Job{}, err
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting completed job", err)
	}
	s.log.Info().Str("job", job.ID.String()).Msg("job completed")
	return job, nil
}

// Fail marks a job failed with the given error kind, recording it for the
// job's error wire format (§7).
func (s *Service) Fail(ctx context.Context, job domain.Job, kind simerrors.Kind, message string) (domain.Job, error) {
	now := s.now()
	jobErr := domain.JobError{Kind: kind, Message: message, OccurredAt: now, Attempt: job.Attempts}
	if err := job.Fail(now, jobErr); err != nil {
		return domain.Job{}, err
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting failed job", err)
	}
	s.log.Warn().Str("job", job.ID.String()).Str("kind", string(kind)).Str("message", message).Msg("job failed")
	return job, nil
}

// Release is the transient-error running→pending transition (§4.4): the
// worker calls it itself after a retryable oracle error, keeping Attempts
// so the retry budget still bounds the job. It is distinct from the
// admin-only Requeue, which only ever applies to a failed job.
func (s *Service) Release(ctx context.Context, job domain.Job) (domain.Job, error) {
	if err := job.Release(); err != nil {
		return domain.Job{}, err
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting released job", err)
	}
	s.log.Warn().Str("job", job.ID.String()).Int("attempt", job.Attempts).Msg("job released for retry after transient error")
	return job, nil
}

// Requeue is the explicit admin-only failed→pending reset.
func (s *Service) Requeue(ctx context.Context, id domain.JobID) (domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, simerrors.Internal("loading job for requeue", err)
	}
	if err := job.Requeue(); err != nil {
		return domain.Job{}, err
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting requeued job", err)
	}
	s.log.Info().Str("job", job.ID.String()).Msg("job requeued by admin")
	return job, nil
}

// Cancel marks a pending job failed with kind cancelled (§5).
func (s *Service) Cancel(ctx context.Context, id domain.JobID) (domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, simerrors.Internal("loading job for cancellation", err)
	}
	if err := job.Cancel(s.now()); err != nil {
		return domain.Job{}, err
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("persisting cancelled job", err)
	}
	return job, nil
}

// AttachRequest persists the built oracle request and snapshot onto a job
// before it is enclosed in a batch or dispatched directly (§4.5 submit
// phase, §4.3's snapshot binding).
func (s *Service) AttachRequest(ctx context.Context, job domain.Job, openaiRequest map[string]any) (domain.Job, error) {
	job.OpenAIRequest = openaiRequest
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("attaching oracle request to job", err)
	}
	return job, nil
}

// EncloseInBatch records that a job was enclosed in a batch submission.
func (s *Service) EncloseInBatch(ctx context.Context, job domain.Job, enclosure domain.BatchEnclosure) (domain.Job, error) {
	job.Batch = &enclosure
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return domain.Job{}, simerrors.Internal("enclosing job in batch", err)
	}
	return job, nil
}
