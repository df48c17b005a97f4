package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

func TestLoad_BaseOnly(t *testing.T) {
	attrs, err := Load(context.Background(), nil, Config{})
	require.NoError(t, err)
	assert.Len(t, attrs, 8)
	assert.Equal(t, "price", attrs[0].Key)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attributes.yaml")
	content := `attributes:
  - key: endotoxin_level
    display_name: Endotoxin Level
    description: Maximum endotoxin content
    look_for:
      - endotoxin
      - EU/mL
  - key: origin
    display_name: Country of Origin
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	attrs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "endotoxin_level", attrs[0].Key)
	assert.Equal(t, []string{"endotoxin", "EU/mL"}, attrs[0].Aliases)
	assert.Empty(t, attrs[1].Aliases)
}

func TestLoadFile_MissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attributes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attributes:\n  - display_name: Nameless\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without key")
}

func TestLoad_FileMergesAfterBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attributes.yaml")
	// "price" collides with the base library; the base definition wins.
	content := `attributes:
  - key: price
    display_name: Shadowed
  - key: purity
    display_name: Purity
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	attrs, err := Load(context.Background(), nil, Config{FilePath: path})
	require.NoError(t, err)
	assert.Len(t, attrs, 9)
	assert.Equal(t, "Price", attrs[0].DisplayName)
	assert.Equal(t, "purity", attrs[8].Key)
}

func TestLoadNotion(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "attr-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				makeAttributePage("p1", "sterility", "Sterility", "Sterile filtered or irradiated", "sterile", "0.1 um filtered"),
				makeAttributePage("p2", "", "Broken", "missing key"),
			},
			HasMore: false,
		}, nil).Once()

	attrs, err := LoadNotion(ctx, mc, "attr-db")
	require.NoError(t, err)
	// The page without a Key is skipped, not fatal.
	require.Len(t, attrs, 1)
	assert.Equal(t, "sterility", attrs[0].Key)
	assert.Equal(t, "Sterility", attrs[0].DisplayName)
	assert.Equal(t, []string{"sterile", "0.1 um filtered"}, attrs[0].Aliases)
	mc.AssertExpectations(t)
}

func TestLoadNotion_Pagination(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "attr-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{makeAttributePage("p1", "grade", "Grade", "")},
			HasMore: true, NextCursor: "cursor-2",
		}, nil).Once()
	mc.On("QueryDatabase", ctx, "attr-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{makeAttributePage("p2", "format", "Format", "")},
			HasMore: false,
		}, nil).Once()

	attrs, err := LoadNotion(ctx, mc, "attr-db")
	require.NoError(t, err)
	assert.Len(t, attrs, 2)
	mc.AssertExpectations(t)
}

func TestLoad_NotionConfiguredWithoutClient(t *testing.T) {
	_, err := Load(context.Background(), nil, Config{NotionDB: "attr-db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no client")
}

func TestLoad_MergeOrderPreserved(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "attr-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{makeAttributePage("p1", "sterility", "Sterility", "")},
			HasMore: false,
		}, nil).Once()

	attrs, err := Load(ctx, mc, Config{NotionDB: "attr-db"})
	require.NoError(t, err)

	base := model.BaseAttributes()
	require.Len(t, attrs, len(base)+1)
	for i, b := range base {
		assert.Equal(t, b.Key, attrs[i].Key)
	}
	assert.Equal(t, "sterility", attrs[len(base)].Key)
}
