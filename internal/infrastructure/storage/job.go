package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
	domainerrors "github.com/coursesim/simcore/internal/domain/errors"
)

type JobModel struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID           domain.JobID        `bun:"id,pk"`
	ClassroomID  domain.ClassroomID  `bun:"classroom_id"`
	ScenarioID   domain.ScenarioID   `bun:"scenario_id"`
	UserID       domain.UserID       `bun:"user_id"`
	SubmissionID domain.SubmissionID `bun:"submission_id"`

	State    domain.JobState `bun:"state"`
	DryRun   bool            `bun:"dry_run"`
	Attempts int             `bun:"attempts"`

	ExpectedCashBefore     domain.JobMoney       `bun:"expected_cash_before"`
	ExpectedInventoryState domain.InventoryState `bun:"expected_inventory_state,type:jsonb"`

	CalculationContextSnapshot map[string]any `bun:"calculation_context_snapshot,type:jsonb"`
	OpenAIRequest              map[string]any `bun:"openai_request,type:jsonb"`

	BatchID          *domain.BatchID `bun:"batch_id"`
	BatchInputFileID string          `bun:"batch_input_file_id"`
	BatchSubmittedAt *time.Time      `bun:"batch_submitted_at"`

	LedgerEntryID *domain.LedgerEntryID `bun:"ledger_entry_id"`

	ErrorKind       domainerrors.Kind `bun:"error_kind"`
	ErrorMessage    string            `bun:"error_message"`
	ErrorOccurredAt *time.Time        `bun:"error_occurred_at"`
	ErrorAttempt    int               `bun:"error_attempt"`

	CreatedAt time.Time  `bun:"created_at"`
	StartedAt *time.Time `bun:"started_at"`
	EndedAt   *time.Time `bun:"ended_at"`
}

func (m *JobModel) ToDomain() domain.Job {
	job := domain.Job{
		ID:                         m.ID,
		ClassroomID:                m.ClassroomID,
		ScenarioID:                 m.ScenarioID,
		UserID:                     m.UserID,
		SubmissionID:               m.SubmissionID,
		State:                      m.State,
		DryRun:                     m.DryRun,
		Attempts:                   m.Attempts,
		ExpectedCashBefore:         m.ExpectedCashBefore,
		ExpectedInventoryState:     m.ExpectedInventoryState,
		CalculationContextSnapshot: m.CalculationContextSnapshot,
		OpenAIRequest:              m.OpenAIRequest,
		LedgerEntryID:              m.LedgerEntryID,
		CreatedAt:                  m.CreatedAt,
		StartedAt:                  m.StartedAt,
		EndedAt:                    m.EndedAt,
	}
	if m.BatchID != nil {
		job.Batch = &domain.BatchEnclosure{
			BatchID:     *m.BatchID,
			InputFileID: m.BatchInputFileID,
			SubmittedAt: m.BatchSubmittedAt,
		}
	}
	if m.ErrorKind != "" {
		job.Error = &domain.JobError{
			Kind:    m.ErrorKind,
			Message: m.ErrorMessage,
			Attempt: m.ErrorAttempt,
		}
		if m.ErrorOccurredAt != nil {
			job.Error.OccurredAt = *m.ErrorOccurredAt
		}
	}
	return job
}

func NewJobModel(j domain.Job) *JobModel {
	model := &JobModel{
		ID:                         j.ID,
		ClassroomID:                j.ClassroomID,
		ScenarioID:                 j.ScenarioID,
		UserID:                     j.UserID,
		SubmissionID:               j.SubmissionID,
		State:                      j.State,
		DryRun:                     j.DryRun,
		Attempts:                   j.Attempts,
		ExpectedCashBefore:         j.ExpectedCashBefore,
		ExpectedInventoryState:     j.ExpectedInventoryState,
		CalculationContextSnapshot: j.CalculationContextSnapshot,
		OpenAIRequest:              j.OpenAIRequest,
		LedgerEntryID:              j.LedgerEntryID,
		CreatedAt:                  j.CreatedAt,
		StartedAt:                  j.StartedAt,
		EndedAt:                    j.EndedAt,
	}
	if j.Batch != nil {
		model.BatchID = &j.Batch.BatchID
		model.BatchInputFileID = j.Batch.InputFileID
		model.BatchSubmittedAt = j.Batch.SubmittedAt
	}
	if j.Error != nil {
		model.ErrorKind = j.Error.Kind
		model.ErrorMessage = j.Error.Message
		model.ErrorAttempt = j.Error.Attempt
		occurredAt := j.Error.OccurredAt
		model.ErrorOccurredAt = &occurredAt
	}
	return model
}

func (s *BunStore) CreateJob(ctx context.Context, job domain.Job) error {
	model := NewJobModel(job)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	model := new(JobModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) FindActiveJob(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Job, error) {
	model := new(JobModel)
	err := s.db.NewSelect().Model(model).
		Where("scenario_id = ?", scenarioID).
		Where("user_id = ?", userID).
		Where("state != ?", domain.JobFailed).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job := model.ToDomain()
	return &job, nil
}

func (s *BunStore) ListPendingJobs(ctx context.Context, scenarioID domain.ScenarioID) ([]domain.Job, error) {
	var models []JobModel
	err := s.db.NewSelect().Model(&models).
		Where("scenario_id = ?", scenarioID).
		Where("state = ?", domain.JobPending).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Job, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

func (s *BunStore) ListJobsByBatch(ctx context.Context, batchID domain.BatchID) ([]domain.Job, error) {
	var models []JobModel
	err := s.db.NewSelect().Model(&models).Where("batch_id = ?", batchID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Job, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// MarkRunning performs the pending→running transition as a single
// conditional update, the storage-level half of the single-in-flight
// guard §5(a) requires.
func (s *BunStore) MarkRunning(ctx context.Context, id domain.JobID, startedAt time.Time) (bool, error) {
	res, err := s.db.NewUpdate().Model((*JobModel)(nil)).
		Set("state = ?", domain.JobRunning).
		Set("attempts = attempts + 1").
		Set("started_at = ?", startedAt).
		Where("id = ?", id).
		Where("state = ?", domain.JobPending).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BunStore) UpdateJob(ctx context.Context, job domain.Job) error {
	model := NewJobModel(job)
	_, err := s.db.NewUpdate().Model(model).Where("id = ?", model.ID).Exec(ctx)
	return err
}
