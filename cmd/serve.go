package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/scorer"
	"github.com/procurelabs/vendor-research-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only dashboard API",
	Long:  "Starts an HTTP server exposing stored research results: SKU autocomplete, alternate-vendor lookup, version history, and dashboard statistics. The server never writes; research runs happen through the CLI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the read-only API router over the store.
func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/skus", handleSKUs(st))
	r.Get("/alternate-vendors", handleAlternateVendors(st))
	r.Get("/dashboard-stats", handleDashboardStats(st))
	r.Get("/queries/{queryID}/versions", handleVersions(st))

	return r
}

type skuEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	VendorCount int    `json:"vendorCount"`
}

// handleSKUs lists stored queries for the autocomplete dropdown,
// optionally filtered by a substring match on the query text.
func handleSKUs(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queries, err := st.ListQueries(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		skus := make([]skuEntry, 0, len(queries))
		for _, q := range queries {
			if filter != "" && !strings.Contains(strings.ToLower(q.QueryText), filter) {
				continue
			}
			skus = append(skus, skuEntry{
				ID:          q.Slug,
				Name:        q.QueryText,
				VendorCount: q.VendorCount,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{"skus": skus})
	}
}

// handleAlternateVendors looks up the stored research result for a
// product query. An exact match on the normalized query is tried first,
// then a partial match in either direction.
func handleAlternateVendors(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		raw := r.URL.Query().Get("q")
		if strings.TrimSpace(raw) == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"vendors": []model.VendorRecord{},
				"query":   "",
				"found":   false,
			})
			return
		}

		q, v, err := st.LoadCurrent(ctx, model.Slugify(raw))
		if eris.Is(err, store.ErrNotFound) {
			q, v, err = partialMatch(r, st, raw)
		}
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{
				"vendors": []model.VendorRecord{},
				"query":   raw,
				"found":   false,
			})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"vendors":      scorer.Rank(v.Vendors),
			"query":        q.QueryText,
			"query_id":     q.Slug,
			"last_updated": q.LastUpdated,
			"found":        true,
		})
	}
}

func partialMatch(r *http.Request, st store.Store, raw string) (*model.Query, *model.Version, error) {
	ctx := r.Context()
	needle := model.NormalizeKey(raw)

	queries, err := st.ListQueries(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, q := range queries {
		stored := model.NormalizeKey(q.QueryText)
		if strings.Contains(stored, needle) || strings.Contains(needle, stored) {
			return st.LoadCurrent(ctx, q.Slug)
		}
	}
	return nil, nil, store.ErrNotFound
}

// handleVersions lists the version history of a query.
func handleVersions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryID := chi.URLParam(r, "queryID")

		summaries, err := st.ListVersions(r.Context(), queryID)
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "query not found"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"query_id": queryID,
			"versions": summaries,
		})
	}
}

type countryEntry struct {
	Country string `json:"country"`
	Vendors int    `json:"vendors"`
	Flag    string `json:"flag"`
}

type categoryEntry struct {
	Name string `json:"name"`
	SKUs int    `json:"skus"`
}

// handleDashboardStats aggregates the stored results into the shapes the
// dashboard landing page renders.
func handleDashboardStats(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		queries, err := st.ListQueries(ctx)
		if err != nil {
			writeError(w, err)
			return
		}

		uniqueVendors := map[string]bool{}
		countryCounts := map[string]int{}
		categoryCounts := map[string]int{}

		for _, q := range queries {
			categoryCounts[skuCategory(q.QueryText)]++

			_, v, err := st.LoadCurrent(ctx, q.Slug)
			if err != nil {
				zap.L().Warn("dashboard stats: skipping query",
					zap.String("query_id", q.Slug),
					zap.Error(err),
				)
				continue
			}
			for _, vr := range v.Vendors {
				if vr.VendorName != "" {
					uniqueVendors[vr.VendorName] = true
				}
				if vr.Country != "" {
					countryCounts[vr.Country]++
				}
			}
		}

		topCountries := make([]countryEntry, 0, len(countryCounts))
		for country, count := range countryCounts {
			topCountries = append(topCountries, countryEntry{
				Country: country,
				Vendors: count,
				Flag:    countryFlag(country),
			})
		}
		sort.Slice(topCountries, func(i, j int) bool {
			if topCountries[i].Vendors != topCountries[j].Vendors {
				return topCountries[i].Vendors > topCountries[j].Vendors
			}
			return topCountries[i].Country < topCountries[j].Country
		})
		if len(topCountries) > 5 {
			topCountries = topCountries[:5]
		}

		categories := make([]categoryEntry, 0, len(categoryCounts))
		for name, count := range categoryCounts {
			categories = append(categories, categoryEntry{Name: name, SKUs: count})
		}
		sort.Slice(categories, func(i, j int) bool {
			if categories[i].SKUs != categories[j].SKUs {
				return categories[i].SKUs > categories[j].SKUs
			}
			return categories[i].Name < categories[j].Name
		})

		writeJSON(w, http.StatusOK, map[string]any{
			"networkStatus": map[string]any{
				"activeVendors":     len(uniqueVendors),
				"internalApproved":  0,
				"externalWatchlist": len(uniqueVendors),
				"topCountries":      topCountries,
			},
			"skuCoverage": map[string]any{
				"totalSkus":       len(queries),
				"categoriesCount": len(categoryCounts),
				"lastUpdated":     "Live data",
				"categories":      categories,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
