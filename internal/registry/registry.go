// Package registry assembles the comparison-attribute set for a run:
// the embedded base library, optionally extended from a yaml file or a
// Notion attribute database. Product-specific attributes proposed by
// enrichment are merged in later by the pipeline.
package registry

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/pkg/notion"
)

// Config selects the optional extra-attribute sources.
type Config struct {
	FilePath string `yaml:"file" mapstructure:"file"`
	NotionDB string `yaml:"notion_db" mapstructure:"notion_db"`
}

// Load returns the base attribute library merged with any configured
// extra sources. Duplicate keys keep the first definition, so the base
// library always wins.
func Load(ctx context.Context, client notion.Client, cfg Config) ([]model.ComparisonAttribute, error) {
	attrs := model.BaseAttributes()

	if cfg.FilePath != "" {
		extra, err := LoadFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		attrs = model.MergeAttributes(attrs, extra)
	}

	if cfg.NotionDB != "" {
		if client == nil {
			return nil, eris.New("registry: notion database configured but no client")
		}
		extra, err := LoadNotion(ctx, client, cfg.NotionDB)
		if err != nil {
			return nil, err
		}
		attrs = model.MergeAttributes(attrs, extra)
	}

	return attrs, nil
}

// fileAttribute is the yaml shape of one attribute definition.
type fileAttribute struct {
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"display_name"`
	Description string   `yaml:"description"`
	LookFor     []string `yaml:"look_for"`
}

type attributeFile struct {
	Attributes []fileAttribute `yaml:"attributes"`
}

// LoadFile reads extra attribute definitions from a yaml file.
func LoadFile(path string) ([]model.ComparisonAttribute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var f attributeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	out := make([]model.ComparisonAttribute, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		if a.Key == "" {
			return nil, eris.Errorf("registry: attribute without key in %s", path)
		}
		out = append(out, model.ComparisonAttribute{
			Key:         a.Key,
			DisplayName: a.DisplayName,
			Description: a.Description,
			Aliases:     a.LookFor,
		})
	}
	return out, nil
}
