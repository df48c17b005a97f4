package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
)

// mockNotionClient implements notion.Client for testing.
type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

// makeAttributePage builds a Notion page shaped like one attribute row.
func makeAttributePage(id, key, displayName, description string, lookFor ...string) notionapi.Page {
	opts := make([]notionapi.Option, len(lookFor))
	for i, l := range lookFor {
		opts[i] = notionapi.Option{Name: l}
	}
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Key": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: key}},
			},
			"DisplayName": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: displayName}},
			},
			"Description": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: description}},
			},
			"LookFor": &notionapi.MultiSelectProperty{
				MultiSelect: opts,
			},
		},
	}
}
