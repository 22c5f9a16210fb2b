package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
)

// Input is the pre-normalization shape Append accepts: everything an
// oracle reply or a seed write needs to become a domain.LedgerEntry, before
// the §4.1 numeric normalization pass has run.
type Input struct {
	StoreID      domain.StoreID
	ClassroomID  domain.ClassroomID
	ScenarioID   *domain.ScenarioID
	SubmissionID *domain.SubmissionID
	UserID       domain.UserID

	Sales   decimal.Decimal
	Revenue decimal.Decimal
	Costs   decimal.Decimal
	Waste   decimal.Decimal

	CashBefore decimal.Decimal
	CashAfter  decimal.Decimal
	NetProfit  decimal.Decimal

	InventoryState domain.InventoryState

	RandomEvent *domain.RandomEvent
	Summary     string
	Education   domain.Education
	AIMetadata  domain.AIMetadata

	CalculationContext map[string]any

	// RealizedUnitPrice is carried separately from Education so the
	// normalization pass can recompute Revenue = Sales * RealizedUnitPrice
	// (§4.1) without reaching into the education payload.
	RealizedUnitPrice decimal.Decimal
}
