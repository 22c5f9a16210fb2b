// Package aioracle is the AI Request Builder & Validator (C2): prompt
// assembly, prompt-injection hardening, the oracle's JSON-schema response
// contract, and normalization/validation of its reply.
package aioracle

import (
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
)

// SimulationContext is everything the request builder needs to simulate one
// student in one scenario (§4.2's listed inputs).
type SimulationContext struct {
	Classroom       domain.Classroom
	Store           domain.Store
	StoreType       domain.StoreType
	Scenario        domain.Scenario
	ScenarioOutcome *domain.ScenarioOutcome
	Submission      domain.Submission
	LedgerHistory   []domain.LedgerEntry
	InventoryState  domain.InventoryState
	CashBefore      decimal.Decimal

	// IsAutoGenerated is true when Submission.Method != MANUAL, gating the
	// absence-penalty directive (§4.2 step 4).
	IsAutoGenerated bool
	// RollRandomEvent is the outcome of the Bernoulli(chancePercent/100)
	// sample, decided by the caller so it's deterministic and testable
	// (§4.2 step 5).
	RollRandomEvent bool
}
