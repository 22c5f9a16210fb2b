package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
)

// toEntry converts a normalized Input into the persisted domain.LedgerEntry
// shape, injecting the generated id and creation timestamp.
func toEntry(in Input, id domain.LedgerEntryID, createdAt time.Time) domain.LedgerEntry {
	education := in.Education
	education.RealizedUnitPrice = in.RealizedUnitPrice

	return domain.LedgerEntry{
		ID:           id,
		StoreID:      in.StoreID,
		ClassroomID:  in.ClassroomID,
		ScenarioID:   in.ScenarioID,
		SubmissionID: in.SubmissionID,
		UserID:       in.UserID,

		Sales:   domain.RoundUnits(in.Sales),
		Revenue: in.Revenue,
		Costs:   in.Costs,
		Waste:   in.Waste,

		CashBefore: in.CashBefore,
		CashAfter:  in.CashAfter,
		NetProfit:  in.NetProfit,

		InventoryState: in.InventoryState,

		RandomEvent: in.RandomEvent,
		Summary:     in.Summary,
		Education:   education,
		AIMetadata:  in.AIMetadata,

		CalculationContext: in.CalculationContext,
		CreatedAt:          createdAt,
	}
}

// fromEntry converts a persisted entry back into an Input so Override can
// run it back through normalize/validate after applying a patch.
func fromEntry(e domain.LedgerEntry) Input {
	return Input{
		StoreID:      e.StoreID,
		ClassroomID:  e.ClassroomID,
		ScenarioID:   e.ScenarioID,
		SubmissionID: e.SubmissionID,
		UserID:       e.UserID,

		Sales:   decimal.NewFromInt(e.Sales),
		Revenue: e.Revenue,
		Costs:   e.Costs,
		Waste:   e.Waste,

		CashBefore: e.CashBefore,
		CashAfter:  e.CashAfter,
		NetProfit:  e.NetProfit,

		InventoryState: e.InventoryState,

		RandomEvent: e.RandomEvent,
		Summary:     e.Summary,
		Education:   e.Education,
		AIMetadata:  e.AIMetadata,

		CalculationContext: e.CalculationContext,
		RealizedUnitPrice:  e.Education.RealizedUnitPrice,
	}
}

// applyPatch mutates in according to patch, restricted to the
// OverridableFields whitelist (the caller already checked field names).
func applyPatch(in *Input, patch map[string]any) error {
	for field, value := range patch {
		switch field {
		case "sales":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.Sales = d
		case "revenue":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.Revenue = d
		case "costs":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.Costs = d
		case "waste":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.Waste = d
		case "cashBefore":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.CashBefore = d
		case "cashAfter":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.CashAfter = d
		case "netProfit":
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			in.NetProfit = d
		case "inventoryState":
			state, ok := value.(domain.InventoryState)
			if !ok {
				return simerrors.Validation("inventoryState patch must be a domain.InventoryState")
			}
			in.InventoryState = state
			for _, b := range domain.Buckets {
				flow := in.Education.MaterialFlowByBucket.Get(b)
				flow.EndUnits = decimal.NewFromInt(state.Get(b))
				in.Education.MaterialFlowByBucket = in.Education.MaterialFlowByBucket.Set(b, flow)
			}
		case "randomEvent":
			event, ok := value.(*domain.RandomEvent)
			if !ok && value != nil {
				return simerrors.Validation("randomEvent patch must be a *domain.RandomEvent")
			}
			in.RandomEvent = event
		case "summary":
			s, ok := value.(string)
			if !ok {
				return simerrors.Validation("summary patch must be a string")
			}
			in.Summary = s
		default:
			return simerrors.Validation("field \"" + field + "\" is not overridable")
		}
	}
	return nil
}

func asDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, simerrors.Validation("patch value is not a valid decimal string")
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, simerrors.Validation("patch value must be a decimal, string, or float64")
	}
}
