package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/parse"
	"github.com/procurelabs/vendor-research-cli/internal/resilience"
	"github.com/procurelabs/vendor-research-cli/pkg/firecrawl"
	"github.com/procurelabs/vendor-research-cli/pkg/reader"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// specsNoURL is the availability note for vendors discovery found
// without a usable product page.
const specsNoURL = "no product URL"

// extractedValue is the per-attribute JSON shape the extraction model
// returns.
type extractedValue struct {
	Value      string `json:"value"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
}

// extractVendors fans spec extraction out over a bounded worker pool.
// Failures stay local to the vendor that hit them: they are recorded on
// the record's SpecsAvailability, never returned. ids selects a subset
// of vendors by ID; nil means all. Vendor slice order is untouched.
func (p *Pipeline) extractVendors(ctx context.Context, version *model.Version, ids map[int]bool) model.PhaseStats {
	log := zap.L()

	var mu sync.Mutex
	var stats model.PhaseStats
	var succeeded, failed, skipped int

	g, gctx := errgroup.WithContext(ctx)
	workers := p.cfg.Pipeline.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range version.Vendors {
		v := &version.Vendors[i]
		if ids != nil && !ids[v.ID] {
			continue
		}

		g.Go(func() error {
			outcome := p.extractVendor(gctx, v, version.Attributes)

			mu.Lock()
			stats.Usage.Add(outcome.usage)
			stats.CostUSD += outcome.cost
			switch {
			case outcome.skipped:
				skipped++
			case outcome.err != nil:
				failed++
			default:
				succeeded++
			}
			mu.Unlock()

			if outcome.err != nil {
				log.Warn("pipeline: vendor extraction failed",
					zap.Int("vendor_id", v.ID),
					zap.String("vendor", v.VendorName),
					zap.Error(outcome.err),
				)
			}
			// Vendor errors never cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	log.Info("pipeline: extraction finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
	return stats
}

// vendorOutcome carries one vendor's extraction telemetry back to the
// pool loop.
type vendorOutcome struct {
	usage   model.TokenUsage
	cost    float64
	skipped bool
	err     error
}

// extractVendor fetches one vendor's product page and asks the
// extraction model for every comparison attribute at once. All failure
// modes land on the vendor record.
func (p *Pipeline) extractVendor(ctx context.Context, v *model.VendorRecord, attrs []model.ComparisonAttribute) vendorOutcome {
	if v.ProductURL == "" {
		v.SpecsAvailability = specsNoURL
		return vendorOutcome{skipped: true}
	}

	page, tokens, err := p.fetchPage(ctx, v.ProductURL)
	if err != nil {
		v.SpecsAvailability = fmt.Sprintf("page fetch failed: %s", err)
		return vendorOutcome{cost: p.costCalc.Reader(tokens), err: err}
	}
	cost := p.costCalc.Reader(tokens)

	req := textgen.GenerateRequest{
		Model:     p.cfg.Anthropic.ExtractModel,
		MaxTokens: p.cfg.Pipeline.ExtractMaxTokens,
		Input:     extractionPrompt(v.VendorName, page, attrs, p.cfg.Pipeline.PageCharLimit),
	}
	resp, err := resilience.DoVal(ctx, p.cfg.Pipeline.Retry.Executor("anthropic", "extract"),
		func(ctx context.Context) (*textgen.GenerateResponse, error) {
			return p.textgen.Generate(ctx, req)
		})
	if err != nil {
		v.SpecsAvailability = fmt.Sprintf("extraction failed: %s", err)
		return vendorOutcome{cost: cost, err: err}
	}

	usage := usageFromResponse(resp)
	cost += p.costCalc.Text(resp.Model, usage.InputTokens, usage.OutputTokens, 0)

	var values map[string]extractedValue
	if err := parse.ExtractInto(resp.Text, &values); err != nil {
		v.SpecsAvailability = "extraction returned unparseable output"
		return vendorOutcome{usage: usage, cost: cost, err: err}
	}

	known := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		known[a.Key] = true
	}

	now := time.Now().UTC()
	if v.Specs == nil {
		v.Specs = make(map[string]model.ExtractedSpec, len(values))
	}
	for key, val := range values {
		// Spec keys stay within the version's attribute set; anything
		// else the model volunteered is dropped.
		if !known[key] {
			continue
		}
		spec := model.ExtractedSpec{
			Value:       val.Value,
			SourceLabel: val.Source,
			Confidence:  model.ConfidenceMedium,
			ExtractedAt: now,
		}
		switch model.Confidence(val.Confidence) {
		case model.ConfidenceHigh:
			spec.Confidence = model.ConfidenceHigh
		case model.ConfidenceLow:
			spec.Confidence = model.ConfidenceLow
		}
		if val.Value == notFoundSentinel {
			spec.Value = ""
			spec.NotFound = true
			// Keep a discovery-sourced value over an explicit miss.
			if existing, ok := v.Specs[key]; ok && existing.HasValue() {
				continue
			}
		}
		v.Specs[key] = spec
	}
	v.SpecsAvailability = "extracted from product page"

	return vendorOutcome{usage: usage, cost: cost}
}

// fetchPage retrieves a product page as markdown, falling back from the
// reader API to firecrawl when the reader's retries are exhausted. The
// returned token count is the reader's billing figure; firecrawl results
// report zero.
func (p *Pipeline) fetchPage(ctx context.Context, url string) (string, int, error) {
	page, err := resilience.DoVal(ctx, p.cfg.Pipeline.Retry.Executor("jina", "fetch"),
		func(ctx context.Context) (*reader.Page, error) {
			return p.reader.Fetch(ctx, url)
		})
	if err == nil {
		return page.Text, page.Tokens, nil
	}
	if resilience.IsAuth(err) || p.firecrawl == nil {
		return "", 0, err
	}

	zap.L().Debug("pipeline: reader fetch failed, trying firecrawl",
		zap.String("url", url),
		zap.Error(err),
	)

	fc, fcErr := resilience.DoVal(ctx, p.cfg.Pipeline.Retry.Executor("firecrawl", "scrape"),
		func(ctx context.Context) (*firecrawl.PageData, error) {
			return p.firecrawl.Scrape(ctx, url)
		})
	if fcErr != nil {
		// Surface the primary fetcher's error; it names the root cause.
		return "", 0, err
	}
	return fc.Markdown, 0, nil
}
