package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the append-only record produced by simulating one student
// in one scenario (or the seed entry when ScenarioID is nil). Entries are
// created only; the sole allowed mutation path is Override, confined to the
// Overridden* fields (§3).
type LedgerEntry struct {
	ID LedgerEntryID `json:"id"`

	StoreID     StoreID     `json:"store"`
	ClassroomID ClassroomID `json:"classroom"`
	// ScenarioID is nil for the initial seed entry.
	ScenarioID   *ScenarioID   `json:"scenario"`
	SubmissionID *SubmissionID `json:"submission,omitempty"`
	UserID       UserID        `json:"user"`

	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
	Costs   decimal.Decimal `json:"costs"`
	Waste   decimal.Decimal `json:"waste"`

	CashBefore decimal.Decimal `json:"cashBefore"`
	CashAfter  decimal.Decimal `json:"cashAfter"`
	NetProfit  decimal.Decimal `json:"netProfit"`

	InventoryState InventoryState `json:"inventoryState"`

	RandomEvent *RandomEvent `json:"randomEvent"`
	Summary     string       `json:"summary"`
	Education   Education    `json:"education"`
	AIMetadata  AIMetadata   `json:"aiMetadata"`

	// CalculationContext is the inputs that produced this entry — a copy of
	// the job's CalculationContextSnapshot, persisted alongside the result
	// for audit.
	CalculationContext map[string]any `json:"calculationContext"`

	Overridden   bool       `json:"overridden"`
	OverriddenBy *UserID    `json:"overriddenBy,omitempty"`
	OverriddenAt *time.Time `json:"overriddenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// RealizedUnitPrice recomputes revenue/sales, the same derivation invariant
// 4 demands; used by tests and summaries that want the effective price
// rather than the raw revenue figure.
func (e LedgerEntry) RealizedUnitPrice() decimal.Decimal {
	if e.Sales == 0 {
		return decimal.Zero
	}
	return e.Revenue.Div(decimal.NewFromInt(e.Sales))
}

// LedgerSummary aggregates over a (classroom, user)'s entry history, as returned
// by Ledger.Summary (§4.1).
type LedgerSummary struct {
	TotalSales     int64           `json:"totalSales"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalCosts     decimal.Decimal `json:"totalCosts"`
	TotalWaste     decimal.Decimal `json:"totalWaste"`
	TotalNetProfit decimal.Decimal `json:"totalNetProfit"`

	CashBalance    decimal.Decimal `json:"cashBalance"`
	InventoryState InventoryState  `json:"inventoryState"`
	EntryCount     int             `json:"entryCount"`
}

// PriorState is the cash/inventory position a new Job's anchors are derived
// from (§4.1's priorState operation).
type PriorState struct {
	CashBefore     decimal.Decimal
	InventoryState InventoryState
}
