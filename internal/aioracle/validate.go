package aioracle

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/shopspring/decimal"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/ledger"
)

// Result is the oracle reply translated into the ledger engine's Input
// shape, plus the cash-anchor warning (if any) the caller should attach to
// the job record for audit.
type Result struct {
	LedgerInput        ledger.Input
	CashAnchorMismatch *simerrors.SimulationError
}

// oneCent is the tolerance §4.2 allows before the cash-anchor correction
// kicks in.
var oneCent = decimal.NewFromFloat(0.01)

// Parse repairs and unmarshals the oracle's raw reply text into a
// rawResponse, unwrapping a root-level "teachingNotes" that some replies
// place one level too shallow (§4.2).
func Parse(body string) (rawResponse, error) {
	repaired, err := jsonrepair.RepairJSON(body)
	if err != nil {
		return rawResponse{}, simerrors.OracleContent("oracle reply is not repairable JSON", err)
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(repaired), &generic); err != nil {
		return rawResponse{}, simerrors.OracleContent("oracle reply is not a JSON object", err)
	}

	if notes, ok := generic["teachingNotes"]; ok {
		education, _ := generic["education"].(map[string]any)
		if education == nil {
			education = map[string]any{}
		}
		education["teachingNotes"] = notes
		generic["education"] = education
		delete(generic, "teachingNotes")
		reencoded, err := json.Marshal(generic)
		if err != nil {
			return rawResponse{}, simerrors.Internal("re-encoding unwrapped oracle reply", err)
		}
		repaired = string(reencoded)
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return rawResponse{}, simerrors.OracleContent("oracle reply does not match the response schema", err)
	}
	return raw, nil
}

// Validate converts a parsed rawResponse into a ledger.Input, reconciling
// inventoryState with materialFlowByBucket and applying the cash-anchor
// correction against expectedCashBefore (§4.2's final paragraph). It does
// not itself round or check the eight invariants — internal/ledger.Append
// owns that, as the single source of truth for the normalization rules
// shared between C1 and C2.
func Validate(raw rawResponse, simCtx SimulationContext, expectedCashBefore decimal.Decimal, aiMeta domain.AIMetadata, calcContext map[string]any) (Result, error) {
	materialFlow := domain.MaterialFlowByBucket{
		Explanation: raw.Education.MaterialFlowByBucket.Explanation,
	}
	materialFlow = materialFlow.Set(domain.BucketRefrigerated, toDomainFlow(raw.Education.MaterialFlowByBucket.Refrigerated))
	materialFlow = materialFlow.Set(domain.BucketAmbient, toDomainFlow(raw.Education.MaterialFlowByBucket.Ambient))
	materialFlow = materialFlow.Set(domain.BucketNotForResale, toDomainFlow(raw.Education.MaterialFlowByBucket.NotForResale))

	inventoryState := domain.InventoryState{
		RefrigeratedUnits: materialFlow.Get(domain.BucketRefrigerated).EndUnits.IntPart(),
		AmbientUnits:      materialFlow.Get(domain.BucketAmbient).EndUnits.IntPart(),
		NotForResaleUnits: materialFlow.Get(domain.BucketNotForResale).EndUnits.IntPart(),
	}

	cashBefore := raw.CashBefore
	cashAfter := raw.CashAfter
	var mismatch *simerrors.SimulationError
	if cashBefore.Sub(expectedCashBefore).Abs().GreaterThan(oneCent) {
		delta := expectedCashBefore.Sub(cashBefore)
		mismatch = simerrors.CashAnchorMismatch(expectedCashBefore.String(), cashBefore.String())
		cashBefore = expectedCashBefore
		cashAfter = cashAfter.Add(delta)
	}

	var randomEvent *domain.RandomEvent
	if raw.RandomEvent != nil {
		randomEvent = &domain.RandomEvent{Description: raw.RandomEvent.Description}
	}

	education := domain.Education{
		DemandForecast:       raw.Education.DemandForecast,
		DemandActual:         raw.Education.DemandActual,
		ServiceLevel:         raw.Education.ServiceLevel,
		FillRate:             raw.Education.FillRate,
		StockoutUnits:        raw.Education.StockoutUnits,
		LostSalesUnits:       raw.Education.LostSalesUnits,
		BackorderUnits:       raw.Education.BackorderUnits,
		RealizedUnitPrice:    raw.Education.RealizedUnitPrice,
		MaterialFlowByBucket: materialFlow,
		CostBreakdown: domain.CostBreakdown{
			IngredientCost:      raw.Education.CostBreakdown.IngredientCost,
			LaborCost:           raw.Education.CostBreakdown.LaborCost,
			LogisticsCost:       raw.Education.CostBreakdown.LogisticsCost,
			TariffCost:          raw.Education.CostBreakdown.TariffCost,
			HoldingCost:         raw.Education.CostBreakdown.HoldingCost,
			OverflowStorageCost: raw.Education.CostBreakdown.OverflowStorageCost,
			ExpediteCost:        raw.Education.CostBreakdown.ExpediteCost,
			WasteDisposalCost:   raw.Education.CostBreakdown.WasteDisposalCost,
			OtherCost:           raw.Education.CostBreakdown.OtherCost,
			Explanation:         raw.Education.CostBreakdown.Explanation,
		},
		TeachingNotes: raw.Education.TeachingNotes,
	}

	var scenarioID *domain.ScenarioID
	if simCtx.Scenario.ID != (domain.ScenarioID{}) {
		id := simCtx.Scenario.ID
		scenarioID = &id
	}
	var submissionID *domain.SubmissionID
	if simCtx.Submission.ID != (domain.SubmissionID{}) {
		id := simCtx.Submission.ID
		submissionID = &id
	}

	return Result{
		LedgerInput: ledger.Input{
			StoreID:      simCtx.Store.ID,
			ClassroomID:  simCtx.Classroom.ID,
			ScenarioID:   scenarioID,
			SubmissionID: submissionID,
			UserID:       simCtx.Store.UserID,

			Sales:   raw.Sales,
			Revenue: raw.Revenue,
			Costs:   raw.Costs,
			Waste:   raw.Waste,

			CashBefore: cashBefore,
			CashAfter:  cashAfter,
			NetProfit:  cashAfter.Sub(cashBefore),

			InventoryState: inventoryState,

			RandomEvent: randomEvent,
			Summary:     strings.TrimSpace(raw.Summary),
			Education:   education,
			AIMetadata:  aiMeta,

			CalculationContext: calcContext,
			RealizedUnitPrice:  raw.Education.RealizedUnitPrice,
		},
		CashAnchorMismatch: mismatch,
	}, nil
}

func toDomainFlow(raw rawMaterialFlow) domain.MaterialFlow {
	return domain.MaterialFlow{
		BeginUnits:    raw.BeginUnits,
		ReceivedUnits: raw.ReceivedUnits,
		UsedUnits:     raw.UsedUnits,
		WasteUnits:    raw.WasteUnits,
		EndUnits:      raw.EndUnits,
		EndUnitsValue: raw.EndUnitsValue,
	}
}
