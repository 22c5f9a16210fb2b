package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type SubmissionModel struct {
	bun.BaseModel `bun:"table:submissions,alias:sub"`

	ID         domain.SubmissionID     `bun:"id,pk"`
	ScenarioID domain.ScenarioID       `bun:"scenario_id"`
	UserID     domain.UserID           `bun:"user_id"`
	Method     domain.GenerationMethod `bun:"method"`
	Decisions  map[string]any          `bun:"decisions,type:jsonb"`
	CreatedAt  time.Time               `bun:"created_at"`
}

func (m *SubmissionModel) ToDomain() domain.Submission {
	return domain.Submission{
		ID:         m.ID,
		ScenarioID: m.ScenarioID,
		UserID:     m.UserID,
		Method:     m.Method,
		Decisions:  m.Decisions,
		CreatedAt:  m.CreatedAt,
	}
}

func NewSubmissionModel(sub domain.Submission) *SubmissionModel {
	return &SubmissionModel{
		ID:         sub.ID,
		ScenarioID: sub.ScenarioID,
		UserID:     sub.UserID,
		Method:     sub.Method,
		Decisions:  sub.Decisions,
		CreatedAt:  sub.CreatedAt,
	}
}

func (s *BunStore) GetSubmission(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Submission, error) {
	model := new(SubmissionModel)
	err := s.db.NewSelect().Model(model).
		Where("scenario_id = ?", scenarioID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub := model.ToDomain()
	return &sub, nil
}

func (s *BunStore) SaveSubmission(ctx context.Context, submission domain.Submission) error {
	model := NewSubmissionModel(submission)
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (scenario_id, user_id) DO UPDATE").
		Exec(ctx)
	return err
}

// GetPriorSubmission finds the user's most recent submission in a scenario
// of the same classroom created before beforeScenarioID's own scenario, the
// ordering FORWARD_PREVIOUS auto-generation carries forward from.
func (s *BunStore) GetPriorSubmission(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, beforeScenarioID domain.ScenarioID) (*domain.Submission, error) {
	model := new(SubmissionModel)
	err := s.db.NewSelect().Model(model).
		ColumnExpr("sub.*").
		Join("JOIN scenarios AS sc ON sc.id = sub.scenario_id").
		Where("sc.classroom_id = ?", classroomID).
		Where("sub.user_id = ?", userID).
		Where("sc.created_at < (SELECT created_at FROM scenarios WHERE id = ?)", beforeScenarioID).
		Order("sc.created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub := model.ToDomain()
	return &sub, nil
}
