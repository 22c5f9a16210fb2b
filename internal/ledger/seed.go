package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
)

// SeedStore issues the initial entry for a newly created store: scenario is
// nil, cashBefore is zero, cashAfter/netProfit equal the store's starting
// balance, and inventoryState is the store type's configured starting
// inventory. Invariant 3's null-scenario uniqueness means this can only
// succeed once per (classroom, user).
func (e *Engine) SeedStore(ctx context.Context, storeID domain.StoreID) (domain.LedgerEntry, error) {
	store, err := e.stores.GetStore(ctx, storeID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading store for seed", err)
	}
	storeType, err := e.stores.GetStoreType(ctx, store.StoreTypeID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading store type for seed", err)
	}

	existing, err := e.ledgers.LatestEntry(ctx, storeID, store.UserID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("checking for existing seed entry", err)
	}
	if existing != nil {
		return domain.LedgerEntry{}, simerrors.Invariant("uniqueness: store already has a seed entry")
	}

	inventory := storeType.StartingInventory()
	materialFlow := seedMaterialFlow(inventory, storeType)

	in := Input{
		StoreID:     storeID,
		ClassroomID: store.ClassroomID,
		UserID:      store.UserID,

		Sales:   decimal.Zero,
		Revenue: decimal.Zero,
		Costs:   decimal.Zero,
		Waste:   decimal.Zero,

		CashBefore: decimal.Zero,
		CashAfter:  store.StartingBalance,
		NetProfit:  store.StartingBalance,

		InventoryState: inventory,

		Summary: "store opened",
		Education: domain.Education{
			MaterialFlowByBucket: materialFlow,
			TeachingNotes:        "initial position",
		},
	}

	return e.Append(ctx, in)
}

// seedMaterialFlow gives every bucket a degenerate flow where beginUnits and
// endUnits both equal the store type's starting inventory, satisfying
// invariant 7 for the entry with no activity to report.
func seedMaterialFlow(inventory domain.InventoryState, storeType domain.StoreType) domain.MaterialFlowByBucket {
	var m domain.MaterialFlowByBucket
	for _, b := range domain.Buckets {
		units := decimal.NewFromInt(inventory.Get(b))
		value := units.Mul(storeType.Variables[b].CostPerUnit)
		m = m.Set(b, domain.MaterialFlow{
			BeginUnits:    units,
			ReceivedUnits: decimal.Zero,
			UsedUnits:     decimal.Zero,
			WasteUnits:    decimal.Zero,
			EndUnits:      units,
			EndUnitsValue: value,
		})
	}
	return m
}
