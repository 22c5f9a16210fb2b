package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
)

// validateAppend checks invariants 1, 4, 5, 6, 7, 8 against a normalized
// Input about to become a new entry. Invariants 2 and 3 depend on other
// entries and are checked separately by checkCashContinuity and the
// storage layer's partial unique indexes, respectively.
func validateAppend(in Input, capacity domain.CapacityByBucket) error {
	if err := checkCashBefore(in); err != nil {
		return err
	}
	if err := checkRevenueConsistency(in); err != nil {
		return err
	}
	if err := checkNonNegative(in.InventoryState); err != nil {
		return err
	}
	if err := checkCapacity(in.InventoryState, capacity); err != nil {
		return err
	}
	if err := checkMaterialFlow(in.Education.MaterialFlowByBucket); err != nil {
		return err
	}
	if err := checkBucketConsistency(in.InventoryState, in.Education.MaterialFlowByBucket); err != nil {
		return err
	}
	return nil
}

// validateOverride re-checks only invariants 1 and 4, per §4.1's explicit
// no-cascade design trade: an override does not re-validate invariant 2
// against the entries that follow it.
func validateOverride(in Input) error {
	if err := checkCashBefore(in); err != nil {
		return err
	}
	if err := checkRevenueConsistency(in); err != nil {
		return err
	}
	return nil
}

// checkCashBefore is invariant 1: cashAfter = cashBefore + netProfit, in
// cents. Since normalize already recomputed netProfit and cashAfter from
// cashBefore, this can only fail if the caller bypassed normalize.
func checkCashBefore(in Input) error {
	expected := domain.CentsDecimal(in.CashBefore.Add(in.NetProfit))
	if !expected.Equal(in.CashAfter) {
		return simerrors.Invariant("cash continuity: cashAfter != cashBefore + netProfit")
	}
	return nil
}

// checkCashContinuity is invariant 2, checked against the store's latest
// existing entry before the new one is inserted.
func checkCashContinuity(prior *domain.LedgerEntry, cashBefore decimal.Decimal) error {
	if prior == nil {
		return nil
	}
	if !prior.CashAfter.Equal(cashBefore) {
		return simerrors.Invariant("cash continuity: cashBefore does not match prior entry's cashAfter")
	}
	return nil
}

// checkRevenueConsistency is invariant 4.
func checkRevenueConsistency(in Input) error {
	expected := domain.CentsDecimal(decimal.NewFromInt(domain.RoundUnits(in.Sales)).Mul(in.RealizedUnitPrice))
	if !expected.Equal(in.Revenue) {
		return simerrors.Invariant("revenue consistency: revenue != sales * realizedUnitPrice")
	}
	return nil
}

// checkNonNegative is invariant 5.
func checkNonNegative(state domain.InventoryState) error {
	for _, b := range domain.Buckets {
		if state.Get(b) < 0 {
			return simerrors.Invariant("inventory non-negativity: bucket below zero")
		}
	}
	return nil
}

// checkCapacity is invariant 6.
func checkCapacity(state domain.InventoryState, capacity domain.CapacityByBucket) error {
	for _, b := range domain.Buckets {
		if state.Get(b) > capacity.Get(b) {
			return simerrors.Invariant("inventory capacity: endUnits exceeds capacityUnits")
		}
	}
	return nil
}

// checkMaterialFlow is invariant 7, checked post-normalization. normalize
// only rounds the flow fields and does not recompute EndUnits, so this
// check fails whenever the reported figures do not add up.
func checkMaterialFlow(m domain.MaterialFlowByBucket) error {
	for _, b := range domain.Buckets {
		flow := m.Get(b)
		if !flow.EndUnits.Equal(flow.Reconcile()) {
			return simerrors.Invariant("material-flow reconciliation failed for bucket")
		}
	}
	return nil
}

// checkBucketConsistency is invariant 8.
func checkBucketConsistency(state domain.InventoryState, m domain.MaterialFlowByBucket) error {
	for _, b := range domain.Buckets {
		if state.Get(b) != m.Get(b).EndUnits.IntPart() {
			return simerrors.Invariant("bucket consistency: inventoryState disagrees with materialFlowByBucket")
		}
	}
	return nil
}
