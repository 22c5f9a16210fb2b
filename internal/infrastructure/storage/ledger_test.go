package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/coursesim/simcore/internal/domain"
)

func TestLedgerEntryModel_RoundTrip_SeedEntry(t *testing.T) {
	entry := domain.LedgerEntry{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		ClassroomID: uuid.New(),
		ScenarioID:  nil,
		UserID:      uuid.New(),
		CashBefore:  decimal.Zero,
		CashAfter:   decimal.NewFromInt(500),
		NetProfit:   decimal.NewFromInt(500),
		CreatedAt:   time.Now().UTC(),
	}

	restored := NewLedgerEntryModel(entry).ToDomain()

	assert.Nil(t, restored.ScenarioID)
	assert.True(t, entry.CashAfter.Equal(restored.CashAfter))
}

func TestLedgerEntryModel_RoundTrip_ScenarioAttributedEntry(t *testing.T) {
	scenarioID := uuid.New()
	overriddenBy := uuid.New()
	overriddenAt := time.Now().UTC()

	entry := domain.LedgerEntry{
		ID:           uuid.New(),
		ScenarioID:   &scenarioID,
		Overridden:   true,
		OverriddenBy: &overriddenBy,
		OverriddenAt: &overriddenAt,
		RandomEvent:  &domain.RandomEvent{Description: "supplier strike"},
	}

	restored := NewLedgerEntryModel(entry).ToDomain()

	assert.Equal(t, scenarioID, *restored.ScenarioID)
	assert.True(t, restored.Overridden)
	assert.Equal(t, overriddenBy, *restored.OverriddenBy)
	assert.Equal(t, "supplier strike", restored.RandomEvent.Description)
}
