package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelabs/vendor-research-cli/internal/resilience"
)

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "/https://vendor.example/fbs", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 200,
			"data": {
				"title": "Fetal Bovine Serum 500mL",
				"url": "https://vendor.example/fbs",
				"content": "Premium FBS stored at -20C with 5 year shelf life",
				"usage": {"tokens": 2150}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	page, err := client.Fetch(context.Background(), "https://vendor.example/fbs")

	require.NoError(t, err)
	assert.Equal(t, "Fetal Bovine Serum 500mL", page.Title)
	assert.Equal(t, "https://vendor.example/fbs", page.URL)
	assert.Equal(t, 10, page.WordCount)
	assert.Equal(t, 2150, page.Tokens)
}

func TestFetch_RateLimitedStatusIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "https://vendor.example")

	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "429")
}

func TestFetch_UnauthorizedIsAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "https://vendor.example")

	require.Error(t, err)
	assert.True(t, resilience.IsAuth(err))
	assert.False(t, resilience.IsTransient(err))
}

func TestFetch_ClientSideRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"code":200,"data":{"content":"x","usage":{"tokens":1}}}`))
	}))
	defer srv.Close()

	// 10 rps with burst 1: three sequential calls need at least ~200ms.
	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(10))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), "https://vendor.example")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "https://vendor.example")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
