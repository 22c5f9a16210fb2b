package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursesim/simcore/internal/domain"
)

func newTestEngine(t *testing.T) (*Engine, *fakeLedgerRepo, *fakeStoreRepo, domain.Store, domain.StoreType) {
	t.Helper()
	ledgers := newFakeLedgerRepo()
	stores := newFakeStoreRepo()

	storeType := domain.StoreType{
		ID:   uuid.New(),
		Name: "corner shop",
		Variables: map[domain.Bucket]domain.StoreVariable{
			domain.BucketRefrigerated: {CapacityUnits: 40, CostPerUnit: decimal.NewFromFloat(2), PriceBaseline: decimal.NewFromFloat(5), StartingUnits: 10},
			domain.BucketAmbient:      {CapacityUnits: 100, CostPerUnit: decimal.NewFromFloat(1), PriceBaseline: decimal.NewFromFloat(3), StartingUnits: 20},
			domain.BucketNotForResale: {CapacityUnits: 10, CostPerUnit: decimal.Zero, PriceBaseline: decimal.Zero, StartingUnits: 0},
		},
	}
	stores.storeTypes[storeType.ID] = storeType

	store := domain.Store{
		ID:              uuid.New(),
		ClassroomID:     uuid.New(),
		StoreTypeID:     storeType.ID,
		UserID:          uuid.New(),
		Name:            "student store",
		StartingBalance: decimal.NewFromFloat(100),
		CreatedAt:       time.Now(),
	}
	stores.stores[store.ID] = store

	engine := New(ledgers, stores, zerolog.Nop())
	return engine, ledgers, stores, store, storeType
}

func baseInput(store domain.Store, storeType domain.StoreType, cashBefore, salesPrice decimal.Decimal, sales int64) Input {
	refrig := storeType.StartingInventory().Get(domain.BucketRefrigerated) - sales
	flow := domain.MaterialFlowByBucket{}
	flow = flow.Set(domain.BucketRefrigerated, domain.MaterialFlow{
		BeginUnits:    decimal.NewFromInt(storeType.StartingInventory().Get(domain.BucketRefrigerated)),
		ReceivedUnits: decimal.Zero,
		UsedUnits:     decimal.NewFromInt(sales),
		WasteUnits:    decimal.Zero,
		EndUnits:      decimal.NewFromInt(refrig),
		EndUnitsValue: decimal.NewFromInt(refrig).Mul(storeType.Variables[domain.BucketRefrigerated].CostPerUnit),
	})
	flow = flow.Set(domain.BucketAmbient, domain.MaterialFlow{
		BeginUnits:    decimal.NewFromInt(storeType.StartingInventory().Get(domain.BucketAmbient)),
		EndUnits:      decimal.NewFromInt(storeType.StartingInventory().Get(domain.BucketAmbient)),
		EndUnitsValue: decimal.NewFromInt(storeType.StartingInventory().Get(domain.BucketAmbient)).Mul(storeType.Variables[domain.BucketAmbient].CostPerUnit),
	})
	flow = flow.Set(domain.BucketNotForResale, domain.MaterialFlow{})

	revenue := decimal.NewFromInt(sales).Mul(salesPrice)
	costs := decimal.NewFromInt(sales).Mul(storeType.Variables[domain.BucketRefrigerated].CostPerUnit)
	netProfit := revenue.Sub(costs)
	cashAfter := cashBefore.Add(netProfit)

	return Input{
		StoreID:     store.ID,
		ClassroomID: store.ClassroomID,
		UserID:      store.UserID,

		Sales:   decimal.NewFromInt(sales),
		Revenue: revenue,
		Costs:   costs,
		Waste:   decimal.Zero,

		CashBefore: cashBefore,
		CashAfter:  cashAfter,
		NetProfit:  netProfit,

		InventoryState: domain.InventoryState{
			RefrigeratedUnits: refrig,
			AmbientUnits:      storeType.StartingInventory().Get(domain.BucketAmbient),
			NotForResaleUnits: 0,
		},

		Summary: "week 1",
		Education: domain.Education{
			MaterialFlowByBucket: flow,
		},
		RealizedUnitPrice: salesPrice,
	}
}

func TestSeedStore_IssuesStartingPosition(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	entry, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	assert.Nil(t, entry.ScenarioID)
	assert.True(t, entry.CashBefore.IsZero())
	assert.True(t, entry.CashAfter.Equal(store.StartingBalance))
	assert.Equal(t, storeType.StartingInventory(), entry.InventoryState)
}

func TestSeedStore_SecondSeedViolatesUniqueness(t *testing.T) {
	engine, _, _, store, _ := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	_, err = engine.SeedStore(context.Background(), store.ID)
	require.Error(t, err)
}

func TestAppend_CashContinuityAcrossEntries(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	scenarioID := domain.ScenarioID(uuid.New())
	in := baseInput(store, storeType, store.StartingBalance, decimal.NewFromFloat(5), 3)
	in.ScenarioID = &scenarioID

	entry, err := engine.Append(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, entry.CashBefore.Equal(store.StartingBalance))
	assert.True(t, entry.CashAfter.Equal(entry.CashBefore.Add(entry.NetProfit)))
}

func TestAppend_RejectsCashBeforeMismatch(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	scenarioID := domain.ScenarioID(uuid.New())
	in := baseInput(store, storeType, decimal.NewFromFloat(999), decimal.NewFromFloat(5), 3)
	in.ScenarioID = &scenarioID

	_, err = engine.Append(context.Background(), in)
	require.Error(t, err)
}

func TestAppend_RejectsCapacityViolation(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	scenarioID := domain.ScenarioID(uuid.New())
	in := baseInput(store, storeType, store.StartingBalance, decimal.NewFromFloat(5), 3)
	in.ScenarioID = &scenarioID
	in.InventoryState.RefrigeratedUnits = 45
	flow := in.Education.MaterialFlowByBucket.Get(domain.BucketRefrigerated)
	flow.EndUnits = decimal.NewFromInt(45)
	flow.ReceivedUnits = flow.ReceivedUnits.Add(decimal.NewFromInt(38))
	in.Education.MaterialFlowByBucket = in.Education.MaterialFlowByBucket.Set(domain.BucketRefrigerated, flow)

	_, err = engine.Append(context.Background(), in)
	require.Error(t, err)
}

func TestCheckRevenueConsistency_DetectsMismatch(t *testing.T) {
	in := Input{Sales: decimal.NewFromInt(3), RealizedUnitPrice: decimal.NewFromFloat(5), Revenue: decimal.NewFromFloat(999)}
	err := checkRevenueConsistency(in)
	require.Error(t, err)

	in.Revenue = decimal.NewFromFloat(15)
	require.NoError(t, checkRevenueConsistency(in))
}

func TestCheckCashBefore_DetectsMismatch(t *testing.T) {
	in := Input{CashBefore: decimal.NewFromFloat(10), NetProfit: decimal.NewFromFloat(5), CashAfter: decimal.NewFromFloat(999)}
	require.Error(t, checkCashBefore(in))

	in.CashAfter = decimal.NewFromFloat(15)
	require.NoError(t, checkCashBefore(in))
}

func TestAppend_RejectsMaterialFlowMismatch(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	scenarioID := domain.ScenarioID(uuid.New())
	in := baseInput(store, storeType, store.StartingBalance, decimal.NewFromFloat(5), 3)
	in.ScenarioID = &scenarioID
	flow := in.Education.MaterialFlowByBucket.Get(domain.BucketAmbient)
	flow.UsedUnits = decimal.NewFromInt(5)
	in.Education.MaterialFlowByBucket = in.Education.MaterialFlowByBucket.Set(domain.BucketAmbient, flow)

	_, err = engine.Append(context.Background(), in)
	require.Error(t, err)
}

func TestNormalize_RoundsHalfAwayFromZero(t *testing.T) {
	in := Input{Revenue: decimal.NewFromFloat(1.005), RealizedUnitPrice: decimal.NewFromFloat(1.005)}
	out := normalize(in)
	assert.True(t, out.RealizedUnitPrice.Equal(decimal.NewFromFloat(1.01)))
}

func TestNormalize_IsIdempotent(t *testing.T) {
	in := Input{
		Sales:             decimal.NewFromFloat(2.6),
		CashBefore:        decimal.NewFromFloat(10),
		CashAfter:         decimal.NewFromFloat(15.004),
		RealizedUnitPrice: decimal.NewFromFloat(2.501),
	}
	once := normalize(in)
	twice := normalize(once)
	assert.True(t, once.CashAfter.Equal(twice.CashAfter))
	assert.True(t, once.Revenue.Equal(twice.Revenue))
	assert.Equal(t, once.Sales.String(), twice.Sales.String())
}

func TestOverride_OnlyPatchesWhitelistedFields(t *testing.T) {
	engine, _, _, store, _ := newTestEngine(t)

	entry, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	admin := domain.UserID(uuid.New())
	_, err = engine.Override(context.Background(), entry.ID, map[string]any{"notAllowed": "x"}, admin)
	require.Error(t, err)

	updated, err := engine.Override(context.Background(), entry.ID, map[string]any{"summary": "corrected"}, admin)
	require.NoError(t, err)
	assert.True(t, updated.Overridden)
	assert.Equal(t, admin, *updated.OverriddenBy)
	assert.Equal(t, "corrected", updated.Summary)
}

func TestSummary_AggregatesHistory(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	_, err := engine.SeedStore(context.Background(), store.ID)
	require.NoError(t, err)

	scenarioID := domain.ScenarioID(uuid.New())
	in := baseInput(store, storeType, store.StartingBalance, decimal.NewFromFloat(5), 3)
	in.ScenarioID = &scenarioID
	_, err = engine.Append(context.Background(), in)
	require.NoError(t, err)

	summary, err := engine.Summary(context.Background(), store.ClassroomID, store.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EntryCount)
	assert.Equal(t, int64(3), summary.TotalSales)
}

func TestPriorState_FallsBackToSeedWhenNoEntries(t *testing.T) {
	engine, _, _, store, storeType := newTestEngine(t)

	prior, err := engine.PriorState(context.Background(), store.ID, store.UserID)
	require.NoError(t, err)
	assert.True(t, prior.CashBefore.Equal(store.StartingBalance))
	assert.Equal(t, storeType.StartingInventory(), prior.InventoryState)
}
