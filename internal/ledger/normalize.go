package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
)

// normalize applies the numeric normalization pass of §4.1, in the order
// specified there: round cents fields, round count fields, reconcile
// inventoryState from materialFlowByBucket, recompute netProfit and
// cashAfter from the anchor, then recompute revenue from sales × price.
//
// normalize is idempotent: normalize(normalize(x)) == normalize(x), the
// round-trip law §8 requires, because every step is either a pure
// rounding function or a recomputation from already-rounded inputs.
func normalize(in Input) Input {
	out := in

	out.Revenue = domain.CentsDecimal(out.Revenue)
	out.Costs = domain.CentsDecimal(out.Costs)
	out.Waste = domain.CentsDecimal(out.Waste)
	out.CashBefore = domain.CentsDecimal(out.CashBefore)
	out.CashAfter = domain.CentsDecimal(out.CashAfter)
	out.NetProfit = domain.CentsDecimal(out.NetProfit)
	out.RealizedUnitPrice = domain.CentsDecimal(out.RealizedUnitPrice)

	out.Sales = roundSales(out.Sales)

	out.Education.MaterialFlowByBucket = normalizeMaterialFlow(out.Education.MaterialFlowByBucket)
	out.InventoryState = reconcileInventory(out.Education.MaterialFlowByBucket)

	out.NetProfit = domain.CentsDecimal(out.CashAfter.Sub(out.CashBefore))
	out.CashAfter = domain.CentsDecimal(out.CashBefore.Add(out.NetProfit))

	if !out.RealizedUnitPrice.IsZero() || out.Sales != 0 {
		out.Revenue = domain.CentsDecimal(decimal.NewFromInt(out.Sales).Mul(out.RealizedUnitPrice))
	}
	out.Education.RealizedUnitPrice = out.RealizedUnitPrice

	return out
}

// roundSales rounds a decimal count to the nearest integer, half-away-from-
// zero, and returns it as a decimal so callers keep working in Input's
// decimal-everywhere shape; domain.LedgerEntry stores the int64 form.
func roundSales(d decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(domain.RoundUnits(d))
}

// normalizeMaterialFlow rounds each flow field independently. It does NOT
// recompute EndUnits from the flow equation — that equation is invariant 7,
// a real check performed afterwards that can fail if the oracle's reported
// figures don't add up.
func normalizeMaterialFlow(m domain.MaterialFlowByBucket) domain.MaterialFlowByBucket {
	for _, b := range domain.Buckets {
		flow := m.Get(b)
		flow.BeginUnits = roundSales(flow.BeginUnits)
		flow.ReceivedUnits = roundSales(flow.ReceivedUnits)
		flow.UsedUnits = roundSales(flow.UsedUnits)
		flow.WasteUnits = roundSales(flow.WasteUnits)
		flow.EndUnits = roundSales(flow.EndUnits)
		flow.EndUnitsValue = domain.CentsDecimal(flow.EndUnitsValue)
		m = m.Set(b, flow)
	}
	return m
}

// reconcileInventory implements invariant 8: inventoryState.*Units always
// equals education.materialFlowByBucket.*.endUnits — if the oracle's
// top-level inventoryState disagreed, materialFlow wins (§4.1).
func reconcileInventory(m domain.MaterialFlowByBucket) domain.InventoryState {
	var state domain.InventoryState
	for _, b := range domain.Buckets {
		state = state.With(b, m.Get(b).EndUnits.IntPart())
	}
	return state
}
