package domain

import "time"

// Submission is a student's decisions for one scenario: unique per
// (scenario, student).
type Submission struct {
	ID         SubmissionID     `json:"id"`
	ScenarioID ScenarioID       `json:"scenarioId"`
	UserID     UserID           `json:"userId"`
	Method     GenerationMethod `json:"generationMethod"`

	// Decisions carries the free-form student input (pricing, ordering,
	// staffing choices, free-text notes) that the AI Request Builder
	// folds into the student_decisions envelope. Kept as a map rather than
	// a fixed struct since scenario authors can add fields per classroom.
	Decisions map[string]any `json:"decisions"`

	CreatedAt time.Time `json:"createdAt"`
}
