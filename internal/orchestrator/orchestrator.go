// Package orchestrator is the Simulation Orchestrator (C6): on a
// scenario-closed event, it resolves the enrolled student set, backfills
// missing submissions per the outcome's auto-generation policy, and creates
// one Job per eligible student, dispatching to whichever execution path
// (§6's SimulationMode) the deployment is configured for.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/domain/repository"
	"github.com/coursesim/simcore/internal/jobsvc"
	"github.com/coursesim/simcore/internal/ledger"
	"github.com/coursesim/simcore/internal/queue"
)

// Config holds the orchestrator's deployment-wide option: which execution
// path newly created jobs are dispatched to.
type Config struct {
	Mode domain.SimulationMode
}

func defaultedConfig(cfg Config) Config {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeDirect
	}
	return cfg
}

// Service implements the orchestrator over the narrow repository
// capabilities it needs (§9).
type Service struct {
	cfg Config

	stores      repository.StoreRepository
	scenarios   repository.ScenarioRepository
	submissions repository.SubmissionRepository

	ledger *ledger.Engine
	jobs   *jobsvc.Service
	queue  queue.JobQueue

	eligibility *EligibilityEvaluator

	now func() time.Time
	log zerolog.Logger
}

func New(
	cfg Config,
	stores repository.StoreRepository,
	scenarios repository.ScenarioRepository,
	submissions repository.SubmissionRepository,
	ledgerEngine *ledger.Engine,
	jobs *jobsvc.Service,
	jobQueue queue.JobQueue,
	log zerolog.Logger,
) *Service {
	return &Service{
		cfg:         defaultedConfig(cfg),
		stores:      stores,
		scenarios:   scenarios,
		submissions: submissions,
		ledger:      ledgerEngine,
		jobs:        jobs,
		queue:       jobQueue,
		eligibility: NewEligibilityEvaluator(),
		now:         time.Now,
		log:         log,
	}
}

// WithClock returns a copy of s that stamps submissions using now.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Result summarizes one ScenarioClosed run, surfaced to callers for logging
// and for the "zero eligible students" edge case assertion (§8).
type Result struct {
	JobsCreated        int
	SubmissionsCreated int
}

// ScenarioClosed runs the full §4.6 data flow for one closed scenario: it
// must be called at most once per scenario (the create-time uniqueness
// guard in jobsvc.Create makes a second call a no-op per student, not an
// error, but callers should still treat this as an idempotent trigger
// handler rather than call it speculatively).
func (s *Service) ScenarioClosed(ctx context.Context, scenarioID domain.ScenarioID) (Result, error) {
	scenario, err := s.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return Result{}, simerrors.Internal("loading scenario for orchestration", err)
	}
	if !scenario.CanSimulate() {
		return Result{}, simerrors.Validation("scenario must be closed before the orchestrator can run")
	}

	outcome, err := s.scenarios.GetScenarioOutcome(ctx, scenarioID)
	if err != nil {
		return Result{}, simerrors.Internal("loading scenario outcome for orchestration", err)
	}

	roster, err := s.stores.ListStoresByClassroom(ctx, scenario.ClassroomID)
	if err != nil {
		return Result{}, simerrors.Internal("resolving enrolled student set", err)
	}
	if len(roster) == 0 {
		s.log.Info().Str("scenario", scenarioID.String()).Msg("no enrolled students, nothing to simulate")
		return Result{}, nil
	}

	var result Result
	var created []domain.Job

	for _, store := range roster {
		eligible, err := s.eligible(outcome, scenario, store)
		if err != nil {
			s.log.Warn().Str("scenario", scenarioID.String()).Str("user", store.UserID.String()).Err(err).Msg("eligibility rule failed, skipping student")
			continue
		}
		if !eligible {
			continue
		}

		submission, hasSubmission, generated, err := s.ensureSubmission(ctx, scenario, outcome, store.UserID)
		if err != nil {
			return Result{}, err
		}
		if !hasSubmission {
			continue
		}
		if generated {
			result.SubmissionsCreated++
		}

		prior, err := s.ledger.PriorState(ctx, store.ID, store.UserID)
		if err != nil {
			return Result{}, err
		}

		job, err := s.jobs.Create(ctx, jobsvc.CreateInput{
			ClassroomID:            scenario.ClassroomID,
			ScenarioID:             scenario.ID,
			UserID:                 store.UserID,
			SubmissionID:           submission.ID,
			ExpectedCashBefore:     domain.NewJobMoney(prior.CashBefore),
			ExpectedInventoryState: prior.InventoryState,
			CalculationContextSnapshot: map[string]any{
				"storeId":          store.ID.String(),
				"storeTypeId":      store.StoreTypeID.String(),
				"submissionMethod": string(submission.Method),
				"decisions":        submission.Decisions,
			},
		})
		if err != nil {
			s.log.Warn().Str("scenario", scenarioID.String()).Str("user", store.UserID.String()).Err(err).Msg("could not create job for student, skipping")
			continue
		}
		created = append(created, job)
	}

	result.JobsCreated = len(created)
	if len(created) == 0 {
		return result, nil
	}

	if err := s.dispatch(ctx, scenario, created); err != nil {
		return result, err
	}
	return result, nil
}

// eligible evaluates the outcome's EligibilityRule (if any) against a small
// variable set describing the student's store.
func (s *Service) eligible(outcome *domain.ScenarioOutcome, scenario domain.Scenario, store domain.Store) (bool, error) {
	if outcome == nil || outcome.EligibilityRule == "" {
		return true, nil
	}
	vars := map[string]any{
		"userId":      store.UserID.String(),
		"storeId":     store.ID.String(),
		"storeName":   store.Name,
		"classroomId": scenario.ClassroomID.String(),
		"scenarioId":  scenario.ID.String(),
	}
	return s.eligibility.Eligible(outcome.EligibilityRule, vars)
}

// ensureSubmission returns the student's submission for scenario, creating
// one per the outcome's AutoGenerateSubmissionsOnOutcome policy if missing.
// The second return value is false when no submission exists and none
// could be auto-generated (MANUAL policy, or FORWARD_PREVIOUS with no
// earlier submission to forward) — the student is simply absent and no job
// is created for them. The third return value reports whether a new
// submission was generated by this call.
func (s *Service) ensureSubmission(ctx context.Context, scenario domain.Scenario, outcome *domain.ScenarioOutcome, userID domain.UserID) (domain.Submission, bool, bool, error) {
	existing, err := s.submissions.GetSubmission(ctx, scenario.ID, userID)
	if err != nil {
		return domain.Submission{}, false, false, simerrors.Internal("loading submission for orchestration", err)
	}
	if existing != nil {
		return *existing, true, false, nil
	}

	policy := domain.AutoGenerateManual
	if outcome != nil && outcome.AutoGenerateSubmissionsOnOutcome != "" {
		policy = outcome.AutoGenerateSubmissionsOnOutcome
	}

	var method domain.GenerationMethod
	var decisions map[string]any

	switch policy {
	case domain.AutoGenerateForwardPrevious:
		prior, err := s.submissions.GetPriorSubmission(ctx, scenario.ClassroomID, userID, scenario.ID)
		if err != nil {
			return domain.Submission{}, false, false, simerrors.Internal("loading prior submission to forward", err)
		}
		if prior == nil {
			return domain.Submission{}, false, false, nil
		}
		method = domain.GenerationForwardPrevious
		decisions = make(map[string]any, len(prior.Decisions))
		for k, v := range prior.Decisions {
			decisions[k] = v
		}

	case domain.AutoGenerateUseAI:
		// Generating the student's own decisions via a separate oracle call
		// is out of scope here: the submission is created with an empty
		// decision set, and the simulation oracle call the job later makes
		// (C2/C4) evaluates against it exactly as it would any other
		// submission, with IsAutoGenerated driving the absence-penalty
		// directive.
		method = domain.GenerationAI
		decisions = map[string]any{}

	default:
		return domain.Submission{}, false, false, nil
	}

	submission := domain.Submission{
		ID:         domain.SubmissionID(uuid.New()),
		ScenarioID: scenario.ID,
		UserID:     userID,
		Method:     method,
		Decisions:  decisions,
		CreatedAt:  s.now(),
	}
	if err := s.submissions.SaveSubmission(ctx, submission); err != nil {
		return domain.Submission{}, false, false, simerrors.Internal("persisting auto-generated submission", err)
	}
	s.log.Info().Str("scenario", scenario.ID.String()).Str("user", userID.String()).Str("method", string(method)).Msg("auto-generated submission")
	return submission, true, true, nil
}

// dispatch enqueues the newly created jobs per the configured SimulationMode.
func (s *Service) dispatch(ctx context.Context, scenario domain.Scenario, jobs []domain.Job) error {
	switch s.cfg.Mode {
	case domain.ModeBatch:
		return s.queue.EnqueueBatch(ctx, queue.BatchMessage{
			Action:      queue.BatchActionSubmit,
			ScenarioID:  scenario.ID.String(),
			ClassroomID: scenario.ClassroomID.String(),
		})
	default:
		for _, job := range jobs {
			if err := s.queue.EnqueueDirect(ctx, queue.DirectJobMessage{JobID: job.ID.String()}); err != nil {
				return simerrors.Internal("enqueuing direct job", err)
			}
		}
		return nil
	}
}
