package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type ScenarioModel struct {
	bun.BaseModel `bun:"table:scenarios,alias:sc"`

	ID          domain.ScenarioID    `bun:"id,pk"`
	ClassroomID domain.ClassroomID   `bun:"classroom_id"`
	Name        string               `bun:"name"`
	State       domain.ScenarioState `bun:"state"`
	PublishedAt *time.Time           `bun:"published_at"`
	ClosedAt    *time.Time           `bun:"closed_at"`
	CreatedAt   time.Time            `bun:"created_at"`
}

func (m *ScenarioModel) ToDomain() domain.Scenario {
	return domain.Scenario{
		ID:          m.ID,
		ClassroomID: m.ClassroomID,
		Name:        m.Name,
		State:       m.State,
		PublishedAt: m.PublishedAt,
		ClosedAt:    m.ClosedAt,
		CreatedAt:   m.CreatedAt,
	}
}

func NewScenarioModel(sc domain.Scenario) *ScenarioModel {
	return &ScenarioModel{
		ID:          sc.ID,
		ClassroomID: sc.ClassroomID,
		Name:        sc.Name,
		State:       sc.State,
		PublishedAt: sc.PublishedAt,
		ClosedAt:    sc.ClosedAt,
		CreatedAt:   sc.CreatedAt,
	}
}

func (s *BunStore) GetScenario(ctx context.Context, id domain.ScenarioID) (domain.Scenario, error) {
	model := new(ScenarioModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Scenario{}, err
	}
	return model.ToDomain(), nil
}

type ScenarioOutcomeModel struct {
	bun.BaseModel `bun:"table:scenario_outcomes,alias:so"`

	ScenarioID                       domain.ScenarioID           `bun:"scenario_id,pk"`
	Notes                            string                      `bun:"notes"`
	RandomEventChancePercent         int                         `bun:"random_event_chance_percent"`
	AutoGenerateSubmissionsOnOutcome domain.AutoGenerationPolicy `bun:"auto_generate_submissions_on_outcome"`
	PunishAbsentStudents             domain.AbsencePunishment    `bun:"punish_absent_students"`
	EligibilityRule                  string                      `bun:"eligibility_rule"`
}

func (m *ScenarioOutcomeModel) ToDomain() domain.ScenarioOutcome {
	return domain.ScenarioOutcome{
		ScenarioID:                       m.ScenarioID,
		Notes:                            m.Notes,
		RandomEventChancePercent:         m.RandomEventChancePercent,
		AutoGenerateSubmissionsOnOutcome: m.AutoGenerateSubmissionsOnOutcome,
		PunishAbsentStudents:             m.PunishAbsentStudents,
		EligibilityRule:                  m.EligibilityRule,
	}
}

func NewScenarioOutcomeModel(o domain.ScenarioOutcome) *ScenarioOutcomeModel {
	return &ScenarioOutcomeModel{
		ScenarioID:                       o.ScenarioID,
		Notes:                            o.Notes,
		RandomEventChancePercent:         o.RandomEventChancePercent,
		AutoGenerateSubmissionsOnOutcome: o.AutoGenerateSubmissionsOnOutcome,
		PunishAbsentStudents:             o.PunishAbsentStudents,
		EligibilityRule:                  o.EligibilityRule,
	}
}

// GetScenarioOutcome returns nil, nil when a scenario has no authored
// outcome yet — distinct from a lookup error.
func (s *BunStore) GetScenarioOutcome(ctx context.Context, scenarioID domain.ScenarioID) (*domain.ScenarioOutcome, error) {
	model := new(ScenarioOutcomeModel)
	err := s.db.NewSelect().Model(model).Where("scenario_id = ?", scenarioID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	outcome := model.ToDomain()
	return &outcome, nil
}
