package model

// Phase names the fixed pipeline phases in execution order.
type Phase string

const (
	PhaseEnrichment Phase = "enrichment"
	PhaseDiscovery  Phase = "discovery"
	PhaseParse      Phase = "parse"
	PhaseExtraction Phase = "extraction"
)

// PhaseStatus is the terminal state recorded for a phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// TokenUsage tracks token consumption for one or more service calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.TotalTokens += other.TotalTokens
}

// PhaseStats holds telemetry for a single phase. Purely reporting data;
// control logic never reads it.
type PhaseStats struct {
	Status     PhaseStatus `json:"status"`
	Usage      TokenUsage  `json:"tokens_used"`
	CostUSD    float64     `json:"cost_usd"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// PipelineStats accumulates per-phase telemetry plus run totals.
type PipelineStats struct {
	Enrichment PhaseStats `json:"enrichment"`
	Discovery  PhaseStats `json:"discovery"`
	Parse      PhaseStats `json:"parse"`
	Extraction PhaseStats `json:"extraction"`

	Totals       TokenUsage `json:"totals"`
	TotalCostUSD float64    `json:"total_cost_usd"`
	DurationSecs float64    `json:"duration_seconds"`
}

// Record stores the stats for the named phase and folds its usage and
// cost into the run totals.
func (p *PipelineStats) Record(phase Phase, stats PhaseStats) {
	switch phase {
	case PhaseEnrichment:
		p.Enrichment = stats
	case PhaseDiscovery:
		p.Discovery = stats
	case PhaseParse:
		p.Parse = stats
	case PhaseExtraction:
		p.Extraction = stats
	}
	p.Totals.Add(stats.Usage)
	p.TotalCostUSD += stats.CostUSD
}
