package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/pipeline"
	"github.com/procurelabs/vendor-research-cli/internal/registry"
	"github.com/procurelabs/vendor-research-cli/internal/store"
	"github.com/procurelabs/vendor-research-cli/pkg/firecrawl"
	"github.com/procurelabs/vendor-research-cli/pkg/notion"
	"github.com/procurelabs/vendor-research-cli/pkg/reader"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "file":
		return store.NewFile(cfg.Store.Path), nil
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "vendors.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// pipelineEnv holds the initialized store, clients, attribute registry,
// and pipeline shared by the research commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Attrs    []model.ComparisonAttribute
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, API clients, and attribute registry,
// then builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (VENDOR_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	textgenClient := textgen.NewClient(cfg.Anthropic.Key)
	readerClient := reader.NewClient(cfg.Jina.Key,
		reader.WithBaseURL(cfg.Jina.BaseURL),
		reader.WithRateLimit(cfg.Jina.RateRPS),
	)

	// Firecrawl is an optional fallback fetcher.
	var firecrawlClient firecrawl.Client
	if cfg.Firecrawl.Key != "" {
		firecrawlClient = firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	} else {
		zap.L().Debug("VENDOR_FIRECRAWL_KEY not set, page fetch fallback disabled")
	}

	var notionClient notion.Client
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token)
	}

	attrs, err := registry.Load(ctx, notionClient, registry.Config{
		FilePath: cfg.Registry.File,
		NotionDB: cfg.Registry.NotionDB,
	})
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load attribute registry")
	}

	zap.L().Info("attribute registry loaded", zap.Int("attributes", len(attrs)))

	p := pipeline.New(cfg, st, textgenClient, readerClient, firecrawlClient, attrs)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Attrs:    attrs,
	}, nil
}
