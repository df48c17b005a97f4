package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Text   map[string]ModelRate `yaml:"text" mapstructure:"text"`
	Reader ReaderRate           `yaml:"reader" mapstructure:"reader"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
	// WebSearchPerK is the flat charge per thousand server-side web
	// searches issued during a generation.
	WebSearchPerK float64 `yaml:"web_search_per_k" mapstructure:"web_search_per_k"`
}

// ReaderRate holds page-reader pricing.
type ReaderRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Text computes the cost for a text-generation call. Unknown models
// cost 0 so a missing rate never aborts a run.
func (c *Calculator) Text(model string, input, output, webSearches int) float64 {
	rate, ok := c.rates.Text[model]
	if !ok {
		return 0
	}

	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	searchCost := (float64(webSearches) / 1e3) * rate.WebSearchPerK

	return inCost + outCost + searchCost
}

// Reader computes the cost for page-reader token usage.
func (c *Calculator) Reader(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.rates.Reader.PerMTok
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Text: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 0.80, Output: 4.00, WebSearchPerK: 10.00,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00, WebSearchPerK: 10.00,
			},
			"claude-opus-4-1-20250805": {
				Input: 15.00, Output: 75.00, WebSearchPerK: 10.00,
			},
		},
		Reader: ReaderRate{PerMTok: 0.02},
	}
}
