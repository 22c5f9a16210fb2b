package storage

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type BatchModel struct {
	bun.BaseModel `bun:"table:batches,alias:b"`

	ID          domain.BatchID     `bun:"id,pk"`
	ClassroomID domain.ClassroomID `bun:"classroom_id"`
	ScenarioID  domain.ScenarioID  `bun:"scenario_id"`

	OpenAIBatchID string `bun:"openai_batch_id"`
	InputFileID   string `bun:"input_file_id"`
	OutputFileID  string `bun:"output_file_id"`

	State    domain.BatchState `bun:"state"`
	JobCount int               `bun:"job_count"`

	SubmittedAt *time.Time `bun:"submitted_at"`
	FinalizedAt *time.Time `bun:"finalized_at"`

	PollAttempts   int `bun:"poll_attempts"`
	SubmitAttempts int `bun:"submit_attempts"`

	CreatedAt time.Time `bun:"created_at"`
}

func (m *BatchModel) ToDomain() domain.Batch {
	return domain.Batch{
		ID:             m.ID,
		ClassroomID:    m.ClassroomID,
		ScenarioID:     m.ScenarioID,
		OpenAIBatchID:  m.OpenAIBatchID,
		InputFileID:    m.InputFileID,
		OutputFileID:   m.OutputFileID,
		State:          m.State,
		JobCount:       m.JobCount,
		SubmittedAt:    m.SubmittedAt,
		FinalizedAt:    m.FinalizedAt,
		PollAttempts:   m.PollAttempts,
		SubmitAttempts: m.SubmitAttempts,
		CreatedAt:      m.CreatedAt,
	}
}

func NewBatchModel(b domain.Batch) *BatchModel {
	return &BatchModel{
		ID:             b.ID,
		ClassroomID:    b.ClassroomID,
		ScenarioID:     b.ScenarioID,
		OpenAIBatchID:  b.OpenAIBatchID,
		InputFileID:    b.InputFileID,
		OutputFileID:   b.OutputFileID,
		State:          b.State,
		JobCount:       b.JobCount,
		SubmittedAt:    b.SubmittedAt,
		FinalizedAt:    b.FinalizedAt,
		PollAttempts:   b.PollAttempts,
		SubmitAttempts: b.SubmitAttempts,
		CreatedAt:      b.CreatedAt,
	}
}

func (s *BunStore) CreateBatch(ctx context.Context, batch domain.Batch) error {
	model := NewBatchModel(batch)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) GetBatch(ctx context.Context, id domain.BatchID) (domain.Batch, error) {
	model := new(BatchModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Batch{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) GetBatchByOracleID(ctx context.Context, oracleBatchID string) (domain.Batch, error) {
	model := new(BatchModel)
	err := s.db.NewSelect().Model(model).Where("openai_batch_id = ?", oracleBatchID).Scan(ctx)
	if err != nil {
		return domain.Batch{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) UpdateBatch(ctx context.Context, batch domain.Batch) error {
	model := NewBatchModel(batch)
	_, err := s.db.NewUpdate().Model(model).Where("id = ?", model.ID).Exec(ctx)
	return err
}
