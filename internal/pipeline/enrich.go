package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/parse"
	"github.com/procurelabs/vendor-research-cli/internal/resilience"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// enrichResult is the structured outcome of the enrichment phase.
type enrichResult struct {
	Query      string
	Attributes []model.ComparisonAttribute
	Stats      model.PhaseStats
}

// enrichmentResponse is the JSON shape the enrichment model returns.
type enrichmentResponse struct {
	EnrichedQuery string `json:"enriched_query"`
	Attributes    []struct {
		Key         string   `json:"key"`
		DisplayName string   `json:"display_name"`
		Description string   `json:"description"`
		LookFor     []string `json:"look_for"`
	} `json:"comparison_attributes"`
}

// enrich rewrites the raw query into a procurement-grade one and collects
// the product-specific comparison attributes the model proposes.
func (p *Pipeline) enrich(ctx context.Context, queryText string) (*enrichResult, error) {
	req := textgen.GenerateRequest{
		Model:     p.cfg.Anthropic.EnrichModel,
		MaxTokens: p.cfg.Pipeline.EnrichMaxTokens,
		System:    enrichmentPrompt,
		Input:     queryText,
	}

	resp, err := resilience.DoVal(ctx, p.cfg.Pipeline.Retry.Executor("anthropic", "enrich"),
		func(ctx context.Context) (*textgen.GenerateResponse, error) {
			return p.textgen.Generate(ctx, req)
		})
	if err != nil {
		return nil, err
	}

	var parsed enrichmentResponse
	if err := parse.ExtractInto(resp.Text, &parsed); err != nil {
		return nil, eris.Wrap(err, "enrich: decode response")
	}
	if parsed.EnrichedQuery == "" {
		return nil, eris.New("enrich: response has no enriched_query")
	}

	attrs := make([]model.ComparisonAttribute, 0, len(parsed.Attributes))
	for _, a := range parsed.Attributes {
		if a.Key == "" {
			continue
		}
		attrs = append(attrs, model.ComparisonAttribute{
			Key:         a.Key,
			DisplayName: a.DisplayName,
			Description: a.Description,
			Aliases:     a.LookFor,
		})
	}

	usage := usageFromResponse(resp)
	return &enrichResult{
		Query:      parsed.EnrichedQuery,
		Attributes: attrs,
		Stats: model.PhaseStats{
			Usage:   usage,
			CostUSD: p.costCalc.Text(resp.Model, usage.InputTokens, usage.OutputTokens, int(resp.Usage.WebSearchRequests)),
		},
	}, nil
}

func usageFromResponse(resp *textgen.GenerateResponse) model.TokenUsage {
	return model.TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
}
