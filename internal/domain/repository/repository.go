// Package repository defines the narrow, capability-scoped persistence
// interfaces the simulation core depends on (§9 "Polymorphism over
// capabilities, not inheritance"). Concrete implementations live in
// internal/infrastructure/storage.
package repository

import (
	"context"
	"time"

	"github.com/coursesim/simcore/internal/domain"
)

// ClassroomRepository reads classroom configuration (base prompts, starting
// balance default). Classroom CRUD itself is out of scope (§1) — only reads
// needed to build oracle requests live here.
type ClassroomRepository interface {
	GetClassroom(ctx context.Context, id domain.ClassroomID) (domain.Classroom, error)
}

// StoreRepository reads store and store-type configuration.
type StoreRepository interface {
	GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error)
	GetStoreByUser(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID) (domain.Store, error)
	GetStoreType(ctx context.Context, id domain.StoreTypeID) (domain.StoreType, error)
	// ListStoresByClassroom returns every store in classroomID. Since a
	// Store belongs to exactly one student (exclusive ownership, see
	// store.go), this is operationally the classroom's enrolled student
	// roster — used by the Simulation Orchestrator (§4.6) to resolve who
	// is eligible for a closed scenario.
	ListStoresByClassroom(ctx context.Context, classroomID domain.ClassroomID) ([]domain.Store, error)
}

// ScenarioRepository reads scenarios and their outcomes.
type ScenarioRepository interface {
	GetScenario(ctx context.Context, id domain.ScenarioID) (domain.Scenario, error)
	GetScenarioOutcome(ctx context.Context, scenarioID domain.ScenarioID) (*domain.ScenarioOutcome, error)
}

// SubmissionRepository reads and writes student submissions.
type SubmissionRepository interface {
	GetSubmission(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Submission, error)
	SaveSubmission(ctx context.Context, submission domain.Submission) error
	// GetPriorSubmission finds the most recent submission for the user in
	// an earlier scenario within the same classroom, used by
	// FORWARD_PREVIOUS auto-generation.
	GetPriorSubmission(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, beforeScenarioID domain.ScenarioID) (*domain.Submission, error)
}

// JobRepository persists Job records and enforces the single-in-flight
// transition guard described in §5(a) via MarkRunning being a conditional
// update rather than a blind write.
type JobRepository interface {
	CreateJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id domain.JobID) (domain.Job, error)
	// FindActiveJob returns a job for (scenarioID, userID) that is not in a
	// failed state, used by Job.create's uniqueness guard (§4.3).
	FindActiveJob(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Job, error)
	ListPendingJobs(ctx context.Context, scenarioID domain.ScenarioID) ([]domain.Job, error)
	// ListJobsByBatch returns every job enclosed in batchID, regardless of
	// state — used by the Batch Orchestrator's fan-out and batch-failure
	// paths (§4.5).
	ListJobsByBatch(ctx context.Context, batchID domain.BatchID) ([]domain.Job, error)
	// MarkRunning performs the pending→running transition as a single
	// conditional update (WHERE state = 'pending'), returning false if
	// another worker already claimed the job.
	MarkRunning(ctx context.Context, id domain.JobID, startedAt time.Time) (bool, error)
	UpdateJob(ctx context.Context, job domain.Job) error
}

// BatchRepository persists Batch records.
type BatchRepository interface {
	CreateBatch(ctx context.Context, batch domain.Batch) error
	GetBatch(ctx context.Context, id domain.BatchID) (domain.Batch, error)
	GetBatchByOracleID(ctx context.Context, oracleBatchID string) (domain.Batch, error)
	UpdateBatch(ctx context.Context, batch domain.Batch) error
}

// LedgerRepository is the storage side of the Ledger Engine: append-only
// writes plus the ordered-history and summary reads C1 exposes.
type LedgerRepository interface {
	// InsertEntry appends entry, failing with a uniqueness violation if the
	// storage-level partial indexes (§4.1) are violated.
	InsertEntry(ctx context.Context, entry domain.LedgerEntry) error
	GetEntry(ctx context.Context, id domain.LedgerEntryID) (domain.LedgerEntry, error)
	// LatestEntry returns the most recently created entry for (storeID,
	// userID), or nil if none exists yet.
	LatestEntry(ctx context.Context, storeID domain.StoreID, userID domain.UserID) (*domain.LedgerEntry, error)
	// History returns every entry for (classroomID, userID) in creation
	// order, optionally excluding one scenario (rerun previews, §4.1).
	History(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, excludeScenarioID *domain.ScenarioID) ([]domain.LedgerEntry, error)
	UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error
}
