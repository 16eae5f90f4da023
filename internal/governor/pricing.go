package governor

import "github.com/deskhive/deskhive/internal/config"

// defaultPricing is the fallback rate for a model missing from the price
// table. Deliberately on the expensive side so unknown models hit cost
// ceilings sooner rather than later.
var defaultPricing = config.ModelPricing{InputPerMTokens: 3.0, OutputPerMTokens: 15.0}

// PriceTable estimates call cost from per-million-token prices.
type PriceTable struct {
	models map[string]config.ModelPricing
}

func NewPriceTable(models map[string]config.ModelPricing) PriceTable {
	return PriceTable{models: models}
}

// Estimate returns the projected USD cost of a call.
func (p PriceTable) Estimate(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := p.models[model]
	if !ok {
		pricing = defaultPricing
	}
	return float64(inputTokens)/1e6*pricing.InputPerMTokens +
		float64(outputTokens)/1e6*pricing.OutputPerMTokens
}

// Cost computes the confirmed cost from actual usage. Same arithmetic as
// Estimate; a separate name keeps call sites honest about which one they use.
func (p PriceTable) Cost(model string, inputTokens, outputTokens int) float64 {
	return p.Estimate(model, inputTokens, outputTokens)
}
