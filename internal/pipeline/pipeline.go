// Package pipeline orchestrates the four research phases: enrichment,
// discovery, parse, and extraction. Phases before extraction are fatal
// on failure and nothing is persisted; extraction failures stay local to
// the vendor they hit. A run persists exactly one new immutable version.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/procurelabs/vendor-research-cli/internal/config"
	"github.com/procurelabs/vendor-research-cli/internal/cost"
	"github.com/procurelabs/vendor-research-cli/internal/identity"
	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/scorer"
	"github.com/procurelabs/vendor-research-cli/internal/store"
	"github.com/procurelabs/vendor-research-cli/pkg/firecrawl"
	"github.com/procurelabs/vendor-research-cli/pkg/reader"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// Pipeline orchestrates a full vendor-research run.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	textgen   textgen.Client
	reader    reader.Client
	firecrawl firecrawl.Client
	costCalc  *cost.Calculator
	attrs     []model.ComparisonAttribute
}

// New creates a Pipeline with all dependencies. attrs is the comparison
// attribute registry for this process; enrichment may extend it per run.
func New(
	cfg *config.Config,
	st store.Store,
	tgClient textgen.Client,
	rdClient reader.Client,
	fcClient firecrawl.Client,
	attrs []model.ComparisonAttribute,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		textgen:   tgClient,
		reader:    rdClient,
		firecrawl: fcClient,
		costCalc:  cost.NewCalculator(cfg.Pricing),
		attrs:     attrs,
	}
}

// Run executes the full pipeline for one query and persists the result
// as a new version.
func (p *Pipeline) Run(ctx context.Context, queryText string) (*model.Version, error) {
	return p.run(ctx, queryText, true)
}

// RunDiscovery executes enrichment, discovery, and parse only. The saved
// version has vendors with no extracted specs; extract can fill them in
// later as a new version.
func (p *Pipeline) RunDiscovery(ctx context.Context, queryText string) (*model.Version, error) {
	return p.run(ctx, queryText, false)
}

func (p *Pipeline) run(ctx context.Context, queryText string, withExtraction bool) (*model.Version, error) {
	log := zap.L().With(
		zap.String("run_id", uuid.NewString()),
		zap.String("query", queryText),
	)
	log.Info("pipeline: starting research run")

	start := time.Now()
	version := &model.Version{CreatedAt: start.UTC()}

	// Phase tracking helper: stamps duration and status, folds usage and
	// cost into the run totals, and logs the outcome.
	track := func(phase model.Phase, fn func() (model.PhaseStats, error)) error {
		phaseStart := time.Now()
		stats, err := fn()
		stats.DurationMS = time.Since(phaseStart).Milliseconds()

		if err != nil {
			stats.Status = model.PhaseStatusFailed
			stats.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", string(phase)),
				zap.Int64("duration_ms", stats.DurationMS),
				zap.Error(err),
			)
		} else {
			if stats.Status == "" {
				stats.Status = model.PhaseStatusComplete
			}
			log.Info("pipeline: phase done",
				zap.String("phase", string(phase)),
				zap.String("status", string(stats.Status)),
				zap.Int64("duration_ms", stats.DurationMS),
				zap.Int("tokens", stats.Usage.TotalTokens),
			)
		}

		version.Stats.Record(phase, stats)
		return err
	}

	// ===== Phase 1: Enrichment =====
	if err := track(model.PhaseEnrichment, func() (model.PhaseStats, error) {
		enriched, err := p.enrich(ctx, queryText)
		if err != nil {
			return model.PhaseStats{}, err
		}
		version.EnrichedQuery = enriched.Query
		version.Attributes = model.MergeAttributes(p.attrs, enriched.Attributes)
		return enriched.Stats, nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: enrichment")
	}

	// ===== Phase 2: Discovery =====
	if err := track(model.PhaseDiscovery, func() (model.PhaseStats, error) {
		return p.discover(ctx, version)
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: discovery")
	}

	// ===== Phase 3: Parse =====
	if err := track(model.PhaseParse, func() (model.PhaseStats, error) {
		vendors, err := parseVendors(version.Discovery.RawText, version.Attributes)
		if err != nil {
			return model.PhaseStats{}, err
		}
		version.Vendors = vendors
		return model.PhaseStats{}, nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse")
	}

	// ===== Phase 4: Extraction =====
	if withExtraction {
		// Vendor failures are recorded on the vendor, never returned.
		_ = track(model.PhaseExtraction, func() (model.PhaseStats, error) {
			return p.extractVendors(ctx, version, nil), nil
		})
	} else {
		_ = track(model.PhaseExtraction, func() (model.PhaseStats, error) {
			return model.PhaseStats{Status: model.PhaseStatusSkipped}, nil
		})
	}

	p.finalize(version, start)

	number, err := p.store.SaveVersion(ctx, queryText, version)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: save version")
	}

	log.Info("pipeline: research run complete",
		zap.Int("version", number),
		zap.Int("vendors", len(version.Vendors)),
		zap.Int("tokens", version.Stats.Totals.TotalTokens),
		zap.Float64("cost_usd", version.Stats.TotalCostUSD),
	)
	return version, nil
}

// ExtractSpecs re-runs spec extraction against the stored current
// version of a query and saves the result as a new version. vendorID 0
// means every vendor; otherwise only the matching vendor is re-fetched,
// the rest carry over untouched.
func (p *Pipeline) ExtractSpecs(ctx context.Context, queryID string, vendorID int) (*model.Version, error) {
	q, current, err := p.store.LoadCurrent(ctx, queryID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load query %s", queryID)
	}

	log := zap.L().With(
		zap.String("run_id", uuid.NewString()),
		zap.String("query_id", q.Slug),
		zap.Int("base_version", current.Number),
	)

	var ids map[int]bool
	if vendorID != 0 {
		if findVendor(current.Vendors, vendorID) == nil {
			return nil, eris.Errorf("pipeline: vendor %d not found in %s", vendorID, q.Slug)
		}
		ids = map[int]bool{vendorID: true}
	}

	start := time.Now()

	// Copy-on-write: the stored version is never mutated. The specs maps
	// must be cloned too, extraction writes into them.
	next := *current
	next.Number = 0
	next.CreatedAt = start.UTC()
	next.Vendors = make([]model.VendorRecord, len(current.Vendors))
	for i, v := range current.Vendors {
		if v.Specs != nil {
			specs := make(map[string]model.ExtractedSpec, len(v.Specs))
			for k, s := range v.Specs {
				specs[k] = s
			}
			v.Specs = specs
		}
		next.Vendors[i] = v
	}
	next.Stats = model.PipelineStats{
		Enrichment: model.PhaseStats{Status: model.PhaseStatusSkipped},
		Discovery:  model.PhaseStats{Status: model.PhaseStatusSkipped},
		Parse:      model.PhaseStats{Status: model.PhaseStatusSkipped},
	}

	phaseStart := time.Now()
	stats := p.extractVendors(ctx, &next, ids)
	stats.DurationMS = time.Since(phaseStart).Milliseconds()
	if stats.Status == "" {
		stats.Status = model.PhaseStatusComplete
	}
	next.Stats.Record(model.PhaseExtraction, stats)

	p.finalize(&next, start)

	number, err := p.store.SaveVersion(ctx, q.QueryText, &next)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: save version")
	}

	log.Info("pipeline: extraction rerun complete",
		zap.Int("version", number),
		zap.Float64("cost_usd", next.Stats.TotalCostUSD),
	)
	return &next, nil
}

// finalize resolves vendor identities, scores, and ranks, then stamps
// the run duration. Ranking is a stable descending sort by suitability,
// so equal scores keep their discovery order.
func (p *Pipeline) finalize(version *model.Version, start time.Time) {
	for i := range version.Vendors {
		v := &version.Vendors[i]
		res := identity.Normalize(v.VendorName)
		v.CompanyName = res.CompanyName
		v.Country = res.Country
		if v.Country == "" && v.Region != "" {
			v.Country = identity.Normalize(v.Region).Country
		}
	}
	version.Vendors = scorer.Rank(version.Vendors)
	version.Stats.DurationSecs = time.Since(start).Seconds()
}

func findVendor(vendors []model.VendorRecord, id int) *model.VendorRecord {
	for i := range vendors {
		if vendors[i].ID == id {
			return &vendors[i]
		}
	}
	return nil
}
