package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain/errors"
)

// JobState is the closed state machine of a simulation Job (§4.3):
// pending → running → (completed | failed), with an explicit admin-only
// failed → pending requeue. Terminal states are absorbing.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Requeue (failed → pending) is intentionally excluded here since it
// is only ever driven by an explicit admin action, modeled as a distinct
// method (Job.Requeue) rather than a generic transition.
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case JobPending:
		return next == JobRunning
	case JobRunning:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// IsTerminal reports whether s is completed or failed.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// BatchEnclosure records how a Job was enclosed in a Batch, if at all.
type BatchEnclosure struct {
	BatchID     BatchID    `json:"batchId"`
	InputFileID string     `json:"inputFileId"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// JobError is the persisted {kind, message, occurredAt, attempt} record
// for a job's terminal failure (§7 error wire format).
type JobError struct {
	Kind       errors.Kind `json:"kind"`
	Message    string      `json:"message"`
	OccurredAt time.Time   `json:"occurredAt"`
	Attempt    int         `json:"attempt"`
}

// Job is the scheduling record for simulating one student in one scenario.
//
// Idempotency: the tuple (ScenarioID, UserID, Attempt) is bound to the
// snapshot captured at creation — ExpectedCashBefore, ExpectedInventoryState,
// and CalculationContextSnapshot are frozen then and never recomputed from
// later mutations of the submission or prior ledger entries, so retries are
// reproducible (§4.3).
type Job struct {
	ID           JobID        `json:"id"`
	ClassroomID  ClassroomID  `json:"classroomId"`
	ScenarioID   ScenarioID   `json:"scenarioId"`
	UserID       UserID       `json:"userId"`
	SubmissionID SubmissionID `json:"submissionId"`

	State    JobState `json:"state"`
	DryRun   bool     `json:"dryRun"`
	Attempts int      `json:"attempts"`

	// ExpectedCashBefore is authoritative, derived from the Ledger before
	// work begins (Ledger.priorState), and used by the AI Validator to
	// detect and correct cash-anchor drift.
	ExpectedCashBefore     JobMoney       `json:"expectedCashBefore"`
	ExpectedInventoryState InventoryState `json:"expectedInventoryState"`

	// CalculationContextSnapshot is the full frozen input set the job was
	// created with: everything the AI Request Builder needs to reconstruct
	// an identical request on retry.
	CalculationContextSnapshot map[string]any `json:"calculationContextSnapshot"`

	// OpenAIRequest is the exact request payload built for this job,
	// persisted for audit once the request builder has run.
	OpenAIRequest map[string]any `json:"openaiRequest,omitempty"`

	Batch *BatchEnclosure `json:"batch,omitempty"`

	LedgerEntryID *LedgerEntryID `json:"ledgerEntryId,omitempty"`

	Error *JobError `json:"error,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// JobMoney is a plain decimal string wrapper kept on Job so the frozen
// snapshot round-trips through JSON/JSONB without losing precision; domain
// logic converts to and from decimal.Decimal via NewJobMoney and
// JobMoney.Decimal below.
type JobMoney string

// NewJobMoney stamps a decimal.Decimal into its frozen string form.
func NewJobMoney(d decimal.Decimal) JobMoney {
	return JobMoney(d.String())
}

// Decimal parses the frozen string back into a decimal.Decimal. A blank
// JobMoney (the zero value) decodes as zero rather than an error, since
// jobs created before a cash anchor exists (the very first seed) have
// nothing to freeze.
func (m JobMoney) Decimal() decimal.Decimal {
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(m))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Start transitions a pending job to running, recording the attempt.
// Returns an internal error if called on any other state — callers (the
// direct worker and the batch submit step) are expected to have already
// filtered to pending jobs via the storage layer's conditional update.
func (j *Job) Start(now time.Time) error {
	if !j.State.CanTransitionTo(JobRunning) {
		return errors.Internal("job is not pending", nil)
	}
	j.State = JobRunning
	j.Attempts++
	j.StartedAt = &now
	return nil
}

// Complete transitions a running job to completed, recording the ledger
// entry it produced (nil for dry runs, which never write one).
func (j *Job) Complete(now time.Time, ledgerEntryID *LedgerEntryID) error {
	if !j.State.CanTransitionTo(JobCompleted) {
		return errors.Internal("job is not running", nil)
	}
	j.State = JobCompleted
	j.LedgerEntryID = ledgerEntryID
	j.EndedAt = &now
	return nil
}

// Fail transitions a running (or, for cancellation, pending) job to failed,
// recording the terminal error.
func (j *Job) Fail(now time.Time, jobErr JobError) error {
	if j.State != JobRunning && j.State != JobPending {
		return errors.Internal("job is already terminal", nil)
	}
	j.State = JobFailed
	j.Error = &jobErr
	j.EndedAt = &now
	return nil
}

// Release transitions a running job back to pending after a transient
// oracle error (§4.4), preserving Attempts since Start already incremented
// it: the retry budget is enforced across the whole pending→running→pending
// cycle, not reset by it. Distinct from Requeue, which is an explicit
// admin-only failed→pending reset.
func (j *Job) Release() error {
	if j.State != JobRunning {
		return errors.Internal("only running jobs can be released", nil)
	}
	j.State = JobPending
	j.StartedAt = nil
	j.EndedAt = nil
	return nil
}

// Requeue is the only allowed mutation of a failed job: an explicit admin
// action that resets it to pending while preserving Attempts.
func (j *Job) Requeue() error {
	if j.State != JobFailed {
		return errors.Internal("only failed jobs can be requeued", nil)
	}
	j.State = JobPending
	j.Error = nil
	j.StartedAt = nil
	j.EndedAt = nil
	return nil
}

// Cancel marks a pending job as failed with kind cancelled. Cancellation of
// a running job is not supported (§5) — the worker finishes or fails it
// naturally.
func (j *Job) Cancel(now time.Time) error {
	if j.State != JobPending {
		return errors.Internal("only pending jobs can be cancelled", nil)
	}
	return j.Fail(now, JobError{
		Kind:       errors.KindCancelled,
		Message:    "cancelled before pickup",
		OccurredAt: now,
		Attempt:    j.Attempts,
	})
}
