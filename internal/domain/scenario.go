package domain

import (
	"time"
)

// Scenario is an instructor-defined week of play within a classroom. It
// transitions through draft → published → closed; only published scenarios
// may receive submissions, and only closed scenarios may be simulated.
type Scenario struct {
	ID          ScenarioID    `json:"id"`
	ClassroomID ClassroomID   `json:"classroomId"`
	Name        string        `json:"name"`
	State       ScenarioState `json:"state"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	ClosedAt    *time.Time    `json:"closedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CanReceiveSubmission reports whether a submission may be created or edited
// for this scenario.
func (s Scenario) CanReceiveSubmission() bool {
	return s.State == ScenarioPublished
}

// CanSimulate reports whether the Simulation Orchestrator may create jobs
// for this scenario.
func (s Scenario) CanSimulate() bool {
	return s.State == ScenarioClosed
}

// ScenarioOutcome is the instructor-authored realized conditions for a
// scenario: zero or one per scenario.
type ScenarioOutcome struct {
	ScenarioID ScenarioID `json:"scenarioId"`
	Notes      string     `json:"notes"`

	// RandomEventChancePercent is the Bernoulli sampling probability (0-100)
	// used by the AI Request Builder to decide whether to include a
	// random-event directive.
	RandomEventChancePercent int `json:"randomEventChancePercent"`

	// AutoGenerateSubmissionsOnOutcome controls how the orchestrator
	// backfills a missing submission when the scenario closes.
	AutoGenerateSubmissionsOnOutcome AutoGenerationPolicy `json:"autoGenerateSubmissionsOnOutcome"`

	// PunishAbsentStudents is the severity applied (via the AI Request
	// Builder's absence-penalty directive) to auto-generated submissions.
	PunishAbsentStudents AbsencePunishment `json:"punishAbsentStudents"`

	// EligibilityRule is an optional expr-lang expression evaluated per
	// student by the orchestrator to decide whether a job should be
	// created for them (e.g. excluding students who opted out). Empty
	// means every enrolled student is eligible.
	EligibilityRule string `json:"eligibilityRule,omitempty"`
}
