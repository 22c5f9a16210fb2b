package aioracle

import "github.com/shopspring/decimal"

// ResponseSchemaName is the json_schema.name sent in the oracle request's
// response_format (§4.2, §6).
const ResponseSchemaName = "simulation_result"

// materialFlowSchema is the repeated per-bucket shape in responseSchema.
func materialFlowSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"beginUnits":    map[string]any{"type": "number"},
			"receivedUnits": map[string]any{"type": "number"},
			"usedUnits":     map[string]any{"type": "number"},
			"wasteUnits":    map[string]any{"type": "number"},
			"endUnits":      map[string]any{"type": "number"},
			"endUnitsValue": map[string]any{"type": "number"},
		},
		"required":             []string{"beginUnits", "receivedUnits", "usedUnits", "wasteUnits", "endUnits", "endUnitsValue"},
		"additionalProperties": false,
	}
}

// ResponseSchema is the JSON schema object the oracle must adhere to,
// matching the field set enumerated in §4.2 verbatim. It is sent as
// response_format.json_schema.schema on every direct and batch request.
func ResponseSchema() map[string]any {
	inventoryStateSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"refrigeratedUnits": map[string]any{"type": "integer"},
			"ambientUnits":      map[string]any{"type": "integer"},
			"notForResaleUnits": map[string]any{"type": "integer"},
		},
		"required":             []string{"refrigeratedUnits", "ambientUnits", "notForResaleUnits"},
		"additionalProperties": false,
	}

	costBreakdownSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ingredientCost":      map[string]any{"type": "number"},
			"laborCost":           map[string]any{"type": "number"},
			"logisticsCost":       map[string]any{"type": "number"},
			"tariffCost":          map[string]any{"type": "number"},
			"holdingCost":         map[string]any{"type": "number"},
			"overflowStorageCost": map[string]any{"type": "number"},
			"expediteCost":        map[string]any{"type": "number"},
			"wasteDisposalCost":   map[string]any{"type": "number"},
			"otherCost":           map[string]any{"type": "number"},
			"explanation":         map[string]any{"type": "string"},
		},
		"required": []string{
			"ingredientCost", "laborCost", "logisticsCost", "tariffCost", "holdingCost",
			"overflowStorageCost", "expediteCost", "wasteDisposalCost", "otherCost", "explanation",
		},
		"additionalProperties": false,
	}

	educationSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"demandForecast":    map[string]any{"type": "number"},
			"demandActual":      map[string]any{"type": "number"},
			"serviceLevel":      map[string]any{"type": "number"},
			"fillRate":          map[string]any{"type": "number"},
			"stockoutUnits":     map[string]any{"type": "number"},
			"lostSalesUnits":    map[string]any{"type": "number"},
			"backorderUnits":    map[string]any{"type": "number"},
			"realizedUnitPrice": map[string]any{"type": "number"},
			"materialFlowByBucket": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"refrigerated": materialFlowSchema(),
					"ambient":      materialFlowSchema(),
					"notForResale": materialFlowSchema(),
					"explanation":  map[string]any{"type": "string"},
				},
				"required":             []string{"refrigerated", "ambient", "notForResale", "explanation"},
				"additionalProperties": false,
			},
			"costBreakdown": costBreakdownSchema,
			"teachingNotes": map[string]any{"type": "string"},
		},
		"required": []string{
			"demandForecast", "demandActual", "serviceLevel", "fillRate", "stockoutUnits",
			"lostSalesUnits", "backorderUnits", "realizedUnitPrice", "materialFlowByBucket",
			"costBreakdown", "teachingNotes",
		},
		"additionalProperties": false,
	}

	randomEventSchema := map[string]any{
		"type": []string{"object", "null"},
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
		},
		"required":             []string{"description"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sales":          map[string]any{"type": "number"},
			"revenue":        map[string]any{"type": "number"},
			"costs":          map[string]any{"type": "number"},
			"waste":          map[string]any{"type": "number"},
			"cashBefore":     map[string]any{"type": "number"},
			"cashAfter":      map[string]any{"type": "number"},
			"inventoryState": inventoryStateSchema,
			"netProfit":      map[string]any{"type": "number"},
			"randomEvent":    randomEventSchema,
			"summary":        map[string]any{"type": "string"},
			"education":      educationSchema,
		},
		"required": []string{
			"sales", "revenue", "costs", "waste", "cashBefore", "cashAfter",
			"inventoryState", "netProfit", "randomEvent", "summary", "education",
		},
		"additionalProperties": false,
	}
}

// rawMaterialFlow is the wire shape of one MaterialFlow entry.
type rawMaterialFlow struct {
	BeginUnits    decimal.Decimal `json:"beginUnits"`
	ReceivedUnits decimal.Decimal `json:"receivedUnits"`
	UsedUnits     decimal.Decimal `json:"usedUnits"`
	WasteUnits    decimal.Decimal `json:"wasteUnits"`
	EndUnits      decimal.Decimal `json:"endUnits"`
	EndUnitsValue decimal.Decimal `json:"endUnitsValue"`
}

type rawMaterialFlowByBucket struct {
	Refrigerated rawMaterialFlow `json:"refrigerated"`
	Ambient      rawMaterialFlow `json:"ambient"`
	NotForResale rawMaterialFlow `json:"notForResale"`
	Explanation  string          `json:"explanation"`
}

type rawCostBreakdown struct {
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

type rawEducation struct {
	DemandForecast       decimal.Decimal         `json:"demandForecast"`
	DemandActual         decimal.Decimal         `json:"demandActual"`
	ServiceLevel         decimal.Decimal         `json:"serviceLevel"`
	FillRate             decimal.Decimal         `json:"fillRate"`
	StockoutUnits        decimal.Decimal         `json:"stockoutUnits"`
	LostSalesUnits       decimal.Decimal         `json:"lostSalesUnits"`
	BackorderUnits       decimal.Decimal         `json:"backorderUnits"`
	RealizedUnitPrice    decimal.Decimal         `json:"realizedUnitPrice"`
	MaterialFlowByBucket rawMaterialFlowByBucket `json:"materialFlowByBucket"`
	CostBreakdown        rawCostBreakdown        `json:"costBreakdown"`
	TeachingNotes        string                  `json:"teachingNotes"`
}

type rawInventoryState struct {
	RefrigeratedUnits int64 `json:"refrigeratedUnits"`
	AmbientUnits      int64 `json:"ambientUnits"`
	NotForResaleUnits int64 `json:"notForResaleUnits"`
}

type rawRandomEvent struct {
	Description string `json:"description"`
}

// rawResponse is the direct unmarshal target for the oracle's JSON reply,
// in the exact field set §4.2 demands. A root-level "teachingNotes" (the
// oracle occasionally nests it one level too shallow) is unwrapped by
// Parse before this struct is populated.
type rawResponse struct {
	Sales          decimal.Decimal   `json:"sales"`
	Revenue        decimal.Decimal   `json:"revenue"`
	Costs          decimal.Decimal   `json:"costs"`
	Waste          decimal.Decimal   `json:"waste"`
	CashBefore     decimal.Decimal   `json:"cashBefore"`
	CashAfter      decimal.Decimal   `json:"cashAfter"`
	InventoryState rawInventoryState `json:"inventoryState"`
	NetProfit      decimal.Decimal   `json:"netProfit"`
	RandomEvent    *rawRandomEvent   `json:"randomEvent"`
	Summary        string            `json:"summary"`
	Education      rawEducation      `json:"education"`
}
