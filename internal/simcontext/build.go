// Package simcontext assembles an aioracle.SimulationContext from a
// persisted domain.Job. Both the Direct Execution Worker (C4) and the
// Batch Orchestrator's submit phase (C5) need the identical assembly, so it
// lives here rather than duplicated in each.
package simcontext

import (
	"context"
	"math/rand"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/domain/repository"
)

// Repositories bundles the narrow read capabilities simcontext.Build needs.
type Repositories struct {
	Classrooms  repository.ClassroomRepository
	Stores      repository.StoreRepository
	Scenarios   repository.ScenarioRepository
	Submissions repository.SubmissionRepository
	Ledgers     repository.LedgerRepository
}

// RandomSource abstracts the Bernoulli sample behind ScenarioOutcome's
// RandomEventChancePercent (§4.2 step 5), so callers can inject a
// deterministic source in tests.
type RandomSource interface {
	Float64() float64
}

type defaultRandomSource struct{}

func (defaultRandomSource) Float64() float64 { return rand.Float64() }

// DefaultRandomSource is the production Bernoulli sampler.
var DefaultRandomSource RandomSource = defaultRandomSource{}

type disabledRandomSource struct{}

func (disabledRandomSource) Float64() float64 { return 1 }

// DisabledRandomSource never triggers a random event, regardless of the
// outcome's RandomEventChancePercent. Wired in when AI_RANDOM_EVENT_SAMPLING
// is off (§6).
var DisabledRandomSource RandomSource = disabledRandomSource{}

// Build loads every entity the AI Request Builder needs to simulate job and
// assembles it into a SimulationContext. expectedCashBefore/
// expectedInventoryState come from the job's frozen snapshot, not a fresh
// Ledger read, preserving idempotency across retries (§4.3).
func Build(ctx context.Context, job domain.Job, repos Repositories, rng RandomSource) (aioracle.SimulationContext, error) {
	classroom, err := repos.Classrooms.GetClassroom(ctx, job.ClassroomID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading classroom", err)
	}

	store, err := repos.Stores.GetStoreByUser(ctx, job.ClassroomID, job.UserID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading store", err)
	}
	storeType, err := repos.Stores.GetStoreType(ctx, store.StoreTypeID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading store type", err)
	}

	scenario, err := repos.Scenarios.GetScenario(ctx, job.ScenarioID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading scenario", err)
	}
	outcome, err := repos.Scenarios.GetScenarioOutcome(ctx, job.ScenarioID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading scenario outcome", err)
	}

	submission, err := repos.Submissions.GetSubmission(ctx, job.ScenarioID, job.UserID)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading submission", err)
	}
	if submission == nil {
		return aioracle.SimulationContext{}, simerrors.Internal("job has no backing submission", nil)
	}

	history, err := repos.Ledgers.History(ctx, job.ClassroomID, job.UserID, nil)
	if err != nil {
		return aioracle.SimulationContext{}, simerrors.Internal("loading ledger history", err)
	}

	rollRandomEvent := false
	if outcome != nil && outcome.RandomEventChancePercent > 0 {
		if rng == nil {
			rng = DefaultRandomSource
		}
		rollRandomEvent = rng.Float64()*100 < float64(outcome.RandomEventChancePercent)
	}

	return aioracle.SimulationContext{
		Classroom:       classroom,
		Store:           store,
		StoreType:       storeType,
		Scenario:        scenario,
		ScenarioOutcome: outcome,
		Submission:      *submission,
		LedgerHistory:   history,
		InventoryState:  job.ExpectedInventoryState,
		CashBefore:      job.ExpectedCashBefore.Decimal(),
		IsAutoGenerated: submission.Method != domain.GenerationManual,
		RollRandomEvent: rollRandomEvent,
	}, nil
}
