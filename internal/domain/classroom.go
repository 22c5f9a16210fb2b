package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BasePromptMessage is one role-tagged message in a Classroom's prompt
// preamble, prepended to every oracle call made on behalf of its stores
// (§4.2 "classroom-configured base prompts").
type BasePromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Classroom is the container for a cohort of students playing the same
// sequence of scenarios.
type Classroom struct {
	ID   ClassroomID `json:"id"`
	Name string      `json:"name"`

	// BasePrompts is the ordered sequence of role-tagged messages prepended
	// to any oracle call issued for this classroom's stores.
	BasePrompts []BasePromptMessage `json:"basePrompts"`

	// StartingBalance is copied onto a new Store at creation time; it is
	// not itself authoritative for seeding once a Store exists (see
	// DESIGN.md's resolution of the starting-balance Open Question).
	StartingBalance decimal.Decimal `json:"startingBalance"`

	CreatedAt time.Time `json:"createdAt"`
}
