package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/pkg/notion"
)

// LoadNotion queries the Notion attribute database for all active
// attribute definitions. Malformed pages are skipped with a warning so
// one bad row never blocks a run.
func LoadNotion(ctx context.Context, client notion.Client, dbID string) ([]model.ComparisonAttribute, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Active",
			},
		},
	}

	pages, err := notion.QueryAll(ctx, client, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load notion attributes")
	}

	var attrs []model.ComparisonAttribute
	for _, p := range pages {
		a, err := parseAttributePage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed attribute page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func parseAttributePage(p notionapi.Page) (model.ComparisonAttribute, error) {
	var a model.ComparisonAttribute

	// Key (title)
	if prop, ok := p.Properties["Key"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			a.Key = plainText(tp.Title)
		}
	}

	// DisplayName (rich_text)
	if prop, ok := p.Properties["DisplayName"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			a.DisplayName = plainText(rtp.RichText)
		}
	}

	// Description (rich_text)
	if prop, ok := p.Properties["Description"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			a.Description = plainText(rtp.RichText)
		}
	}

	// LookFor (multi_select)
	if prop, ok := p.Properties["LookFor"]; ok {
		if msp, ok := prop.(*notionapi.MultiSelectProperty); ok {
			for _, opt := range msp.MultiSelect {
				a.Aliases = append(a.Aliases, opt.Name)
			}
		}
	}

	if a.Key == "" {
		return a, eris.New("missing Key property")
	}
	return a, nil
}

func plainText(rts []notionapi.RichText) string {
	var out string
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}
