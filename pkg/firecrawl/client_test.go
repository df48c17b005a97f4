package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelabs/vendor-research-cli/internal/resilience"
)

func TestScrape_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req scrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://vendor.example/product", req.URL)
		assert.Equal(t, []string{"markdown"}, req.Formats)

		json.NewEncoder(w).Encode(scrapeResponse{
			Success: true,
			Data: PageData{
				URL:        "https://vendor.example/product",
				Title:      "Product Page",
				Markdown:   "# Product\n\nDetails here.",
				StatusCode: 200,
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	page, err := client.Scrape(context.Background(), "https://vendor.example/product")

	require.NoError(t, err)
	assert.Equal(t, "Product Page", page.Title)
	assert.Contains(t, page.Markdown, "Details here.")
}

func TestScrape_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		transient bool
		auth      bool
	}{
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"server error", http.StatusBadGateway, true, false},
		{"bad key", http.StatusUnauthorized, false, true},
		{"bad request", http.StatusBadRequest, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := client.Scrape(context.Background(), "https://vendor.example")

			require.Error(t, err)
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
			assert.Equal(t, tt.auth, resilience.IsAuth(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestScrape_ReportedFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scrapeResponse{Success: false})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Scrape(context.Background(), "https://vendor.example")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reported failure")
}
