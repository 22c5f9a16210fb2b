// Package domain holds the entities and closed enum types of the
// simulation execution core: Classroom, Store/StoreType, Scenario,
// ScenarioOutcome, Submission, Job, Batch, and LedgerEntry.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bucket is one of the three inventory categories a store tracks.
type Bucket string

const (
	BucketRefrigerated Bucket = "refrigerated"
	BucketAmbient      Bucket = "ambient"
	BucketNotForResale Bucket = "notForResale"
)

// Buckets enumerates every bucket, used when iterating invariants that must
// hold for each one.
var Buckets = [...]Bucket{BucketRefrigerated, BucketAmbient, BucketNotForResale}

// GenerationMethod is how a Submission's decisions were produced.
type GenerationMethod string

const (
	GenerationManual          GenerationMethod = "MANUAL"
	GenerationAI              GenerationMethod = "AI"
	GenerationForwardPrevious GenerationMethod = "FORWARD_PREVIOUS"
)

// AutoGenerationPolicy controls how the Simulation Orchestrator backfills a
// missing Submission when a scenario closes (§4.6).
type AutoGenerationPolicy string

const (
	AutoGenerateManual          AutoGenerationPolicy = "MANUAL"
	AutoGenerateUseAI           AutoGenerationPolicy = "USE_AI"
	AutoGenerateForwardPrevious AutoGenerationPolicy = "FORWARD_PREVIOUS"
)

// AbsencePunishment is the severity applied to students whose submission was
// auto-generated rather than authored, when ScenarioOutcome.PunishAbsentStudents
// is set.
type AbsencePunishment string

const (
	PunishNone   AbsencePunishment = "NONE"
	PunishMild   AbsencePunishment = "MILD"
	PunishSevere AbsencePunishment = "SEVERE"
)

// ScenarioState is the closed lifecycle of a Scenario (§3).
type ScenarioState string

const (
	ScenarioDraft     ScenarioState = "draft"
	ScenarioPublished ScenarioState = "published"
	ScenarioClosed    ScenarioState = "closed"
)

// SimulationMode selects the execution path chosen by the orchestrator (§6).
type SimulationMode string

const (
	ModeDirect SimulationMode = "direct"
	ModeBatch  SimulationMode = "batch"
)

// CentsDecimal rounds d half-away-from-zero to 2 decimal places, the money
// normalization rule shared by the Ledger Engine and the AI Validator.
//
// decimal.Decimal.Round uses half-even (banker's) rounding by default, which
// is the wrong rule here, so the half-away-from-zero adjustment is applied
// by hand: shift two places, nudge by sign-aware 0.5, truncate, shift back.
func CentsDecimal(d decimal.Decimal) decimal.Decimal {
	const places = 2
	shift := decimal.New(1, places)
	shifted := d.Mul(shift)
	half := decimal.NewFromFloat(0.5)
	var nudged decimal.Decimal
	if shifted.Sign() >= 0 {
		nudged = shifted.Add(half)
	} else {
		nudged = shifted.Sub(half)
	}
	truncated := nudged.Truncate(0)
	return truncated.Div(shift)
}

// RoundUnits rounds a count field (sales, *Units) to the nearest integer,
// half-away-from-zero, returning an int64.
func RoundUnits(d decimal.Decimal) int64 {
	half := decimal.NewFromFloat(0.5)
	if d.Sign() >= 0 {
		return d.Add(half).Truncate(0).IntPart()
	}
	return d.Sub(half).Truncate(0).IntPart()
}

// InventoryState is the per-bucket unit counts carried by a LedgerEntry and
// echoed by a Store's current position.
type InventoryState struct {
	RefrigeratedUnits int64 `json:"refrigeratedUnits"`
	AmbientUnits      int64 `json:"ambientUnits"`
	NotForResaleUnits int64 `json:"notForResaleUnits"`
}

// Get returns the unit count for a bucket.
func (s InventoryState) Get(b Bucket) int64 {
	switch b {
	case BucketRefrigerated:
		return s.RefrigeratedUnits
	case BucketAmbient:
		return s.AmbientUnits
	case BucketNotForResale:
		return s.NotForResaleUnits
	default:
		return 0
	}
}

// With returns a copy of s with bucket b set to v.
func (s InventoryState) With(b Bucket, v int64) InventoryState {
	switch b {
	case BucketRefrigerated:
		s.RefrigeratedUnits = v
	case BucketAmbient:
		s.AmbientUnits = v
	case BucketNotForResale:
		s.NotForResaleUnits = v
	}
	return s
}

// CapacityByBucket is the per-bucket capacity configured on a StoreType.
type CapacityByBucket struct {
	RefrigeratedUnits int64 `json:"refrigeratedUnits"`
	AmbientUnits      int64 `json:"ambientUnits"`
	NotForResaleUnits int64 `json:"notForResaleUnits"`
}

// Get returns the capacity for a bucket.
func (c CapacityByBucket) Get(b Bucket) int64 {
	switch b {
	case BucketRefrigerated:
		return c.RefrigeratedUnits
	case BucketAmbient:
		return c.AmbientUnits
	case BucketNotForResale:
		return c.NotForResaleUnits
	default:
		return 0
	}
}

// MaterialFlow is the begin/receive/use/waste/end breakdown for one bucket,
// required from the oracle under §4.2's response contract.
type MaterialFlow struct {
	BeginUnits    decimal.Decimal `json:"beginUnits"`
	ReceivedUnits decimal.Decimal `json:"receivedUnits"`
	UsedUnits     decimal.Decimal `json:"usedUnits"`
	WasteUnits    decimal.Decimal `json:"wasteUnits"`
	EndUnits      decimal.Decimal `json:"endUnits"`
	EndUnitsValue decimal.Decimal `json:"endUnitsValue"`
}

// Reconcile recomputes EndUnits from the flow equation in invariant 7.
func (m MaterialFlow) Reconcile() decimal.Decimal {
	return m.BeginUnits.Add(m.ReceivedUnits).Sub(m.UsedUnits).Sub(m.WasteUnits)
}

// MaterialFlowByBucket carries one MaterialFlow per inventory bucket plus
// the oracle's free-text explanation of the week's flow.
type MaterialFlowByBucket struct {
	Refrigerated MaterialFlow `json:"refrigerated"`
	Ambient      MaterialFlow `json:"ambient"`
	NotForResale MaterialFlow `json:"notForResale"`
	Explanation  string       `json:"explanation"`
}

// Get returns the MaterialFlow for a bucket.
func (m MaterialFlowByBucket) Get(b Bucket) MaterialFlow {
	switch b {
	case BucketRefrigerated:
		return m.Refrigerated
	case BucketAmbient:
		return m.Ambient
	case BucketNotForResale:
		return m.NotForResale
	default:
		return MaterialFlow{}
	}
}

// Set returns a copy of m with bucket b replaced by flow.
func (m MaterialFlowByBucket) Set(b Bucket, flow MaterialFlow) MaterialFlowByBucket {
	switch b {
	case BucketRefrigerated:
		m.Refrigerated = flow
	case BucketAmbient:
		m.Ambient = flow
	case BucketNotForResale:
		m.NotForResale = flow
	}
	return m
}

// CostBreakdown is the itemized cost explanation required in the oracle's
// education payload.
type CostBreakdown struct {
	IngredientCost      decimal.Decimal `json:"ingredientCost"`
	LaborCost           decimal.Decimal `json:"laborCost"`
	LogisticsCost       decimal.Decimal `json:"logisticsCost"`
	TariffCost          decimal.Decimal `json:"tariffCost"`
	HoldingCost         decimal.Decimal `json:"holdingCost"`
	OverflowStorageCost decimal.Decimal `json:"overflowStorageCost"`
	ExpediteCost        decimal.Decimal `json:"expediteCost"`
	WasteDisposalCost   decimal.Decimal `json:"wasteDisposalCost"`
	OtherCost           decimal.Decimal `json:"otherCost"`
	Explanation         string          `json:"explanation"`
}

// Education is the opaque teaching payload attached to every LedgerEntry.
type Education struct {
	DemandForecast       decimal.Decimal      `json:"demandForecast"`
	DemandActual         decimal.Decimal      `json:"demandActual"`
	ServiceLevel         decimal.Decimal      `json:"serviceLevel"`
	FillRate             decimal.Decimal      `json:"fillRate"`
	StockoutUnits        decimal.Decimal      `json:"stockoutUnits"`
	LostSalesUnits       decimal.Decimal      `json:"lostSalesUnits"`
	BackorderUnits       decimal.Decimal      `json:"backorderUnits"`
	RealizedUnitPrice    decimal.Decimal      `json:"realizedUnitPrice"`
	MaterialFlowByBucket MaterialFlowByBucket `json:"materialFlowByBucket"`
	CostBreakdown        CostBreakdown        `json:"costBreakdown"`
	TeachingNotes        string               `json:"teachingNotes"`
}

// AIMetadata identifies which oracle call produced a LedgerEntry.
type AIMetadata struct {
	Model       string    `json:"model"`
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// RandomEvent is the instructor-visible narrative of a sampled random event,
// nil when none was rolled or directed.
type RandomEvent struct {
	Description string `json:"description"`
}

// ClassroomID, etc. are typed aliases kept distinct from bare uuid.UUID so
// repository signatures read as intent rather than interchangeable IDs.
type (
	ClassroomID   = uuid.UUID
	StoreID       = uuid.UUID
	StoreTypeID   = uuid.UUID
	ScenarioID    = uuid.UUID
	SubmissionID  = uuid.UUID
	UserID        = uuid.UUID
	JobID         = uuid.UUID
	BatchID       = uuid.UUID
	LedgerEntryID = uuid.UUID
)
