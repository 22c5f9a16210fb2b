// Package ledger implements the Ledger Engine (C1): the append-only
// cash-and-inventory ledger with continuity and capacity invariants,
// numeric normalization, and the admin override path.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/domain/repository"
)

// OverridableFields is the whitelist of patchable fields for Override, named
// here so callers can validate a patch map before calling in (§4.1).
var OverridableFields = []string{
	"sales", "revenue", "costs", "waste",
	"cashBefore", "cashAfter", "inventoryState", "netProfit",
	"randomEvent", "summary",
}

// Engine is the Ledger Engine. It depends only on the narrow repository
// capabilities it actually uses: ledger storage for reads/writes, store
// storage to resolve per-bucket capacity for invariant 6.
type Engine struct {
	ledgers repository.LedgerRepository
	stores  repository.StoreRepository
	now     func() time.Time
	log     zerolog.Logger
}

// New builds an Engine. now defaults to time.Now; tests override it for
// deterministic CreatedAt stamps.
func New(ledgers repository.LedgerRepository, stores repository.StoreRepository, log zerolog.Logger) *Engine {
	return &Engine{ledgers: ledgers, stores: stores, now: time.Now, log: log}
}

// WithClock returns a copy of e that stamps entries using now, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Append validates in against all eight invariants, normalizes its numeric
// fields, and inserts a new LedgerEntry. A nil ScenarioID produces the
// initial seed entry for a store.
func (e *Engine) Append(ctx context.Context, in Input) (domain.LedgerEntry, error) {
	store, err := e.stores.GetStore(ctx, in.StoreID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading store for append", err)
	}
	storeType, err := e.stores.GetStoreType(ctx, store.StoreTypeID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading store type for append", err)
	}

	normalized := normalize(in)

	prior, err := e.ledgers.LatestEntry(ctx, in.StoreID, in.UserID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading prior entry for cash continuity check", err)
	}
	if err := checkCashContinuity(prior, normalized.CashBefore); err != nil {
		return domain.LedgerEntry{}, err
	}

	if err := validateAppend(normalized, storeType.Capacity()); err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := toEntry(normalized, domain.LedgerEntryID(uuid.New()), e.now())
	if err := e.ledgers.InsertEntry(ctx, entry); err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("inserting ledger entry", err)
	}

	e.log.Info().
		Str("store", entry.StoreID.String()).
		Str("user", entry.UserID.String()).
		Int64("sales", entry.Sales).
		Str("cashAfter", entry.CashAfter.String()).
		Msg("ledger entry appended")

	return entry, nil
}

// Override applies patch to an existing entry, restricted to
// OverridableFields, re-normalizes, and re-validates invariants 1 and 4
// only — it does not cascade to later entries (§4.1, §9).
func (e *Engine) Override(ctx context.Context, entryID domain.LedgerEntryID, patch map[string]any, by domain.UserID) (domain.LedgerEntry, error) {
	existing, err := e.ledgers.GetEntry(ctx, entryID)
	if err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("loading entry for override", err)
	}

	for field := range patch {
		if !isOverridable(field) {
			return domain.LedgerEntry{}, simerrors.Validation(fmt.Sprintf("field %q is not overridable", field))
		}
	}

	in := fromEntry(existing)
	if err := applyPatch(&in, patch); err != nil {
		return domain.LedgerEntry{}, err
	}

	normalized := normalize(in)
	if err := validateOverride(normalized); err != nil {
		return domain.LedgerEntry{}, err
	}

	updated := toEntry(normalized, existing.ID, existing.CreatedAt)
	updated.ScenarioID = existing.ScenarioID
	updated.SubmissionID = existing.SubmissionID
	updated.Education = existing.Education
	updated.Education.MaterialFlowByBucket = normalized.Education.MaterialFlowByBucket
	updated.AIMetadata = existing.AIMetadata
	updated.CalculationContext = existing.CalculationContext
	updated.Overridden = true
	updated.OverriddenBy = &by
	now := e.now()
	updated.OverriddenAt = &now

	if err := e.ledgers.UpdateEntry(ctx, updated); err != nil {
		return domain.LedgerEntry{}, simerrors.Internal("persisting override", err)
	}

	e.log.Info().
		Str("entry", entryID.String()).
		Str("by", by.String()).
		Msg("ledger entry overridden")

	return updated, nil
}

// History returns every entry for (classroomID, userID) in creation order,
// optionally excluding one scenario (rerun previews).
func (e *Engine) History(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, excludeScenarioID *domain.ScenarioID) ([]domain.LedgerEntry, error) {
	entries, err := e.ledgers.History(ctx, classroomID, userID, excludeScenarioID)
	if err != nil {
		return nil, simerrors.Internal("loading ledger history", err)
	}
	return entries, nil
}

// Summary aggregates a (classroom, user)'s entire entry history.
func (e *Engine) Summary(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID) (domain.LedgerSummary, error) {
	entries, err := e.ledgers.History(ctx, classroomID, userID, nil)
	if err != nil {
		return domain.LedgerSummary{}, simerrors.Internal("loading ledger history for summary", err)
	}

	summary := domain.LedgerSummary{
		TotalRevenue:   decimal.Zero,
		TotalCosts:     decimal.Zero,
		TotalWaste:     decimal.Zero,
		TotalNetProfit: decimal.Zero,
	}
	for _, entry := range entries {
		summary.TotalSales += entry.Sales
		summary.TotalRevenue = summary.TotalRevenue.Add(entry.Revenue)
		summary.TotalCosts = summary.TotalCosts.Add(entry.Costs)
		summary.TotalWaste = summary.TotalWaste.Add(entry.Waste)
		summary.TotalNetProfit = summary.TotalNetProfit.Add(entry.NetProfit)
		summary.EntryCount++
	}
	if summary.EntryCount > 0 {
		last := entries[summary.EntryCount-1]
		summary.CashBalance = last.CashAfter
		summary.InventoryState = last.InventoryState
	}
	return summary, nil
}

// PriorState returns the cash/inventory position a new Job's anchors are
// derived from: the latest entry for (store, user), or the store's seeded
// starting position if none exists yet.
func (e *Engine) PriorState(ctx context.Context, storeID domain.StoreID, userID domain.UserID) (domain.PriorState, error) {
	latest, err := e.ledgers.LatestEntry(ctx, storeID, userID)
	if err != nil {
		return domain.PriorState{}, simerrors.Internal("loading latest entry for prior state", err)
	}
	if latest != nil {
		return domain.PriorState{CashBefore: latest.CashAfter, InventoryState: latest.InventoryState}, nil
	}

	store, err := e.stores.GetStore(ctx, storeID)
	if err != nil {
		return domain.PriorState{}, simerrors.Internal("loading store for seed prior state", err)
	}
	storeType, err := e.stores.GetStoreType(ctx, store.StoreTypeID)
	if err != nil {
		return domain.PriorState{}, simerrors.Internal("loading store type for seed prior state", err)
	}
	return domain.PriorState{CashBefore: store.StartingBalance, InventoryState: storeType.StartingInventory()}, nil
}

func isOverridable(field string) bool {
	for _, f := range OverridableFields {
		if f == field {
			return true
		}
	}
	return false
}
