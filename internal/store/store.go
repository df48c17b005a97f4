// Package store persists query version history. All backends share the
// same append-only semantics: saving produces a new version, existing
// versions are never rewritten.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

// ErrNotFound is returned when a query or version does not exist.
// Callers distinguish it from real failures with errors.Is.
var ErrNotFound = eris.New("not found")

// Store defines the persistence interface for query version history.
type Store interface {
	// SaveVersion appends a new version for the query, assigning the
	// next version number and advancing the current-version pointer.
	// The assigned number is returned.
	SaveVersion(ctx context.Context, queryText string, v *model.Version) (int, error)

	// LoadCurrent returns the query and its current version.
	LoadCurrent(ctx context.Context, queryID string) (*model.Query, *model.Version, error)

	// LoadVersion returns the query and one specific version.
	LoadVersion(ctx context.Context, queryID string, number int) (*model.Query, *model.Version, error)

	// ListVersions lists version summaries for a query, oldest first.
	ListVersions(ctx context.Context, queryID string) ([]model.VersionSummary, error)

	// ListQueries lists all stored queries, most recently updated first.
	ListQueries(ctx context.Context) ([]model.QuerySummary, error)

	// MigrateLegacy rewrites unversioned records into version 1 of a
	// versioned query. Returns the number of records migrated.
	MigrateLegacy(ctx context.Context) (int, error)

	Close() error
}
