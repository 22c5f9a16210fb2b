package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreVariable configures one inventory bucket on a StoreType: capacity,
// cost per unit, and the baseline price the oracle should anchor to.
type StoreVariable struct {
	CapacityUnits int64           `json:"capacityUnits"`
	CostPerUnit   decimal.Decimal `json:"costPerUnit"`
	PriceBaseline decimal.Decimal `json:"priceBaseline"`
	StartingUnits int64           `json:"startingUnits"`
}

// StoreType is the configuration template a Store is instantiated from: one
// StoreVariable per inventory bucket. Only these capacity values are
// authoritative for invariant 6 (see DESIGN.md's resolution of the capacity
// Open Question) — any student-visible capacity description elsewhere is
// cosmetic.
type StoreType struct {
	ID        StoreTypeID              `json:"id"`
	Name      string                   `json:"name"`
	Variables map[Bucket]StoreVariable `json:"variables"`
}

// Capacity returns the per-bucket capacity as a CapacityByBucket value.
func (t StoreType) Capacity() CapacityByBucket {
	return CapacityByBucket{
		RefrigeratedUnits: t.Variables[BucketRefrigerated].CapacityUnits,
		AmbientUnits:      t.Variables[BucketAmbient].CapacityUnits,
		NotForResaleUnits: t.Variables[BucketNotForResale].CapacityUnits,
	}
}

// StartingInventory returns the per-bucket starting unit counts used to
// seed a new Store's initial ledger entry.
func (t StoreType) StartingInventory() InventoryState {
	return InventoryState{
		RefrigeratedUnits: t.Variables[BucketRefrigerated].StartingUnits,
		AmbientUnits:      t.Variables[BucketAmbient].StartingUnits,
		NotForResaleUnits: t.Variables[BucketNotForResale].StartingUnits,
	}
}

// Store belongs to exactly one Classroom and one student (exclusive
// ownership); it is the unit that the Ledger Engine tracks cash and
// inventory for.
type Store struct {
	ID          StoreID     `json:"id"`
	ClassroomID ClassroomID `json:"classroomId"`
	StoreTypeID StoreTypeID `json:"storeTypeId"`
	UserID      UserID      `json:"userId"`
	Name        string      `json:"name"`

	// StartingBalance is captured at store-creation time from the owning
	// Classroom's StartingBalance and is authoritative for the store's seed
	// ledger entry thereafter, independent of later Classroom edits.
	StartingBalance decimal.Decimal `json:"startingBalance"`

	CreatedAt time.Time `json:"createdAt"`
}
