package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/pkg/firecrawl"
	"github.com/procurelabs/vendor-research-cli/pkg/reader"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// --- Textgen Mock ---

type mockTextgenClient struct {
	mock.Mock
}

func (m *mockTextgenClient) Generate(ctx context.Context, req textgen.GenerateRequest) (*textgen.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*textgen.GenerateResponse), args.Error(1)
}

// --- Reader Mock ---

type mockReaderClient struct {
	mock.Mock
}

func (m *mockReaderClient) Fetch(ctx context.Context, targetURL string) (*reader.Page, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reader.Page), args.Error(1)
}

// readerPage builds a fetched page fixture.
func readerPage(text string) *reader.Page {
	return &reader.Page{
		Text:      text,
		WordCount: len(text) / 5,
		Tokens:    len(text) / 4,
	}
}

// --- Firecrawl Mock ---

type mockFirecrawlClient struct {
	mock.Mock
}

func (m *mockFirecrawlClient) Scrape(ctx context.Context, targetURL string) (*firecrawl.PageData, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.PageData), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveVersion(ctx context.Context, queryText string, v *model.Version) (int, error) {
	args := m.Called(ctx, queryText, v)
	if n := args.Int(0); n > 0 {
		v.Number = n
	}
	return args.Int(0), args.Error(1)
}

func (m *mockStore) LoadCurrent(ctx context.Context, queryID string) (*model.Query, *model.Version, error) {
	args := m.Called(ctx, queryID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Query), args.Get(1).(*model.Version), args.Error(2)
}

func (m *mockStore) LoadVersion(ctx context.Context, queryID string, number int) (*model.Query, *model.Version, error) {
	args := m.Called(ctx, queryID, number)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Query), args.Get(1).(*model.Version), args.Error(2)
}

func (m *mockStore) ListVersions(ctx context.Context, queryID string) ([]model.VersionSummary, error) {
	args := m.Called(ctx, queryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VersionSummary), args.Error(1)
}

func (m *mockStore) ListQueries(ctx context.Context) ([]model.QuerySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QuerySummary), args.Error(1)
}

func (m *mockStore) MigrateLegacy(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
