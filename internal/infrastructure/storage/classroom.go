package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type ClassroomModel struct {
	bun.BaseModel `bun:"table:classrooms,alias:cl"`

	ID              domain.ClassroomID         `bun:"id,pk"`
	Name            string                     `bun:"name"`
	BasePrompts     []domain.BasePromptMessage `bun:"base_prompts,type:jsonb"`
	StartingBalance decimal.Decimal            `bun:"starting_balance,type:numeric"`
	CreatedAt       time.Time                  `bun:"created_at"`
}

func (m *ClassroomModel) ToDomain() domain.Classroom {
	return domain.Classroom{
		ID:              m.ID,
		Name:            m.Name,
		BasePrompts:     m.BasePrompts,
		StartingBalance: m.StartingBalance,
		CreatedAt:       m.CreatedAt,
	}
}

func NewClassroomModel(c domain.Classroom) *ClassroomModel {
	return &ClassroomModel{
		ID:              c.ID,
		Name:            c.Name,
		BasePrompts:     c.BasePrompts,
		StartingBalance: c.StartingBalance,
		CreatedAt:       c.CreatedAt,
	}
}

func (s *BunStore) GetClassroom(ctx context.Context, id domain.ClassroomID) (domain.Classroom, error) {
	model := new(ClassroomModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Classroom{}, err
	}
	return model.ToDomain(), nil
}
