package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type LedgerEntryModel struct {
	bun.BaseModel `bun:"table:ledger_entries,alias:le"`

	ID domain.LedgerEntryID `bun:"id,pk"`

	StoreID      domain.StoreID       `bun:"store_id"`
	ClassroomID  domain.ClassroomID   `bun:"classroom_id"`
	ScenarioID   *domain.ScenarioID   `bun:"scenario_id"`
	SubmissionID *domain.SubmissionID `bun:"submission_id"`
	UserID       domain.UserID        `bun:"user_id"`

	Sales   int64           `bun:"sales"`
	Revenue decimal.Decimal `bun:"revenue,type:numeric"`
	Costs   decimal.Decimal `bun:"costs,type:numeric"`
	Waste   decimal.Decimal `bun:"waste,type:numeric"`

	CashBefore decimal.Decimal `bun:"cash_before,type:numeric"`
	CashAfter  decimal.Decimal `bun:"cash_after,type:numeric"`
	NetProfit  decimal.Decimal `bun:"net_profit,type:numeric"`

	InventoryState domain.InventoryState `bun:"inventory_state,type:jsonb"`

	RandomEvent *domain.RandomEvent `bun:"random_event,type:jsonb"`
	Summary     string              `bun:"summary"`
	Education   domain.Education    `bun:"education,type:jsonb"`
	AIMetadata  domain.AIMetadata   `bun:"ai_metadata,type:jsonb"`

	CalculationContext map[string]any `bun:"calculation_context,type:jsonb"`

	Overridden   bool           `bun:"overridden"`
	OverriddenBy *domain.UserID `bun:"overridden_by"`
	OverriddenAt *time.Time     `bun:"overridden_at"`

	CreatedAt time.Time `bun:"created_at"`
}

func (m *LedgerEntryModel) ToDomain() domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:                 m.ID,
		StoreID:            m.StoreID,
		ClassroomID:        m.ClassroomID,
		ScenarioID:         m.ScenarioID,
		SubmissionID:       m.SubmissionID,
		UserID:             m.UserID,
		Sales:              m.Sales,
		Revenue:            m.Revenue,
		Costs:              m.Costs,
		Waste:              m.Waste,
		CashBefore:         m.CashBefore,
		CashAfter:          m.CashAfter,
		NetProfit:          m.NetProfit,
		InventoryState:     m.InventoryState,
		RandomEvent:        m.RandomEvent,
		Summary:            m.Summary,
		Education:          m.Education,
		AIMetadata:         m.AIMetadata,
		CalculationContext: m.CalculationContext,
		Overridden:         m.Overridden,
		OverriddenBy:       m.OverriddenBy,
		OverriddenAt:       m.OverriddenAt,
		CreatedAt:          m.CreatedAt,
	}
}

func NewLedgerEntryModel(e domain.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:                 e.ID,
		StoreID:            e.StoreID,
		ClassroomID:        e.ClassroomID,
		ScenarioID:         e.ScenarioID,
		SubmissionID:       e.SubmissionID,
		UserID:             e.UserID,
		Sales:              e.Sales,
		Revenue:            e.Revenue,
		Costs:              e.Costs,
		Waste:              e.Waste,
		CashBefore:         e.CashBefore,
		CashAfter:          e.CashAfter,
		NetProfit:          e.NetProfit,
		InventoryState:     e.InventoryState,
		RandomEvent:        e.RandomEvent,
		Summary:            e.Summary,
		Education:          e.Education,
		AIMetadata:         e.AIMetadata,
		CalculationContext: e.CalculationContext,
		Overridden:         e.Overridden,
		OverriddenBy:       e.OverriddenBy,
		OverriddenAt:       e.OverriddenAt,
		CreatedAt:          e.CreatedAt,
	}
}

// InsertEntry appends entry. A uniqueness violation from the storage
// layer's partial indexes (invariant 3) surfaces here as a plain
// *pgdriver.Error / *pq.Error from the underlying driver, which carries the
// Postgres SQLSTATE; this package defines no wrapper type of its own. The
// Ledger Engine's Append wraps any insert error as an internal error.
func (s *BunStore) InsertEntry(ctx context.Context, entry domain.LedgerEntry) error {
	model := NewLedgerEntryModel(entry)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) GetEntry(ctx context.Context, id domain.LedgerEntryID) (domain.LedgerEntry, error) {
	model := new(LedgerEntryModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) LatestEntry(ctx context.Context, storeID domain.StoreID, userID domain.UserID) (*domain.LedgerEntry, error) {
	var models []LedgerEntryModel
	err := s.db.NewSelect().Model(&models).
		Where("store_id = ?", storeID).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entry := models[0].ToDomain()
	return &entry, nil
}

func (s *BunStore) History(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, excludeScenarioID *domain.ScenarioID) ([]domain.LedgerEntry, error) {
	var models []LedgerEntryModel
	query := s.db.NewSelect().Model(&models).
		Where("classroom_id = ?", classroomID).
		Where("user_id = ?", userID).
		Order("created_at ASC")
	if excludeScenarioID != nil {
		query = query.Where("scenario_id IS DISTINCT FROM ?", *excludeScenarioID)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.LedgerEntry, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

func (s *BunStore) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	model := NewLedgerEntryModel(entry)
	_, err := s.db.NewUpdate().Model(model).Where("id = ?", model.ID).Exec(ctx)
	return err
}
