package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Version payloads
// are stored as JSON; the summary fields used by listings are denormalized
// into columns so list operations never decode payloads.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL
// mode, and ensures the schema exists. Transactions are opened with
// BEGIN IMMEDIATE so racing same-key saves queue on the write lock
// instead of failing at the MAX(number)+1 read.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	// Pragmas ride on the DSN so every pooled connection gets them, not
	// just the one a bare Exec happens to land on.
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS queries (
	id              TEXT PRIMARY KEY,
	query_key       TEXT NOT NULL UNIQUE,
	query_text      TEXT NOT NULL,
	current_version INTEGER NOT NULL DEFAULT 0,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
	query_id     TEXT NOT NULL REFERENCES queries(id),
	number       INTEGER NOT NULL,
	payload      TEXT NOT NULL,
	vendor_count INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd     REAL NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL,
	PRIMARY KEY (query_id, number)
);

CREATE INDEX IF NOT EXISTS idx_queries_updated_at ON queries(updated_at);
`

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveVersion(ctx context.Context, queryText string, v *model.Version) (int, error) {
	key := model.NormalizeKey(queryText)
	slug := model.Slugify(queryText)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO queries (id, query_key, query_text, current_version, updated_at)
		 VALUES (?, ?, ?, 0, ?)
		 ON CONFLICT(query_key) DO NOTHING`,
		slug, key, queryText, now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert query")
	}

	var id string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM queries WHERE query_key = ?`, key,
	).Scan(&id); err != nil {
		return 0, eris.Wrap(err, "sqlite: resolve query id")
	}

	var number int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM versions WHERE query_id = ?`, id,
	).Scan(&number); err != nil {
		return 0, eris.Wrap(err, "sqlite: next version number")
	}

	v.Number = number
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal version")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO versions (query_id, number, payload, vendor_count, total_tokens, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, number, string(payload), len(v.Vendors), v.Stats.Totals.TotalTokens, v.Stats.TotalCostUSD, v.CreatedAt,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert version %d for %s", number, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE queries SET current_version = ?, updated_at = ? WHERE id = ?`,
		number, now, id,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: advance current version for %s", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return number, nil
}

func (s *SQLiteStore) LoadCurrent(ctx context.Context, queryID string) (*model.Query, *model.Version, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, nil, err
	}
	return s.attachVersion(ctx, q, q.CurrentVersion)
}

func (s *SQLiteStore) LoadVersion(ctx context.Context, queryID string, number int) (*model.Query, *model.Version, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, nil, err
	}
	return s.attachVersion(ctx, q, number)
}

func (s *SQLiteStore) ListVersions(ctx context.Context, queryID string) ([]model.VersionSummary, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, created_at, vendor_count, total_tokens, cost_usd
		 FROM versions WHERE query_id = ? ORDER BY number`,
		q.Slug,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list versions for %s", queryID)
	}
	defer rows.Close()

	var out []model.VersionSummary
	for rows.Next() {
		var vs model.VersionSummary
		if err := rows.Scan(&vs.Number, &vs.CreatedAt, &vs.VendorCount, &vs.TotalTokens, &vs.CostUSD); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan version summary")
		}
		out = append(out, vs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list versions iterate")
}

func (s *SQLiteStore) ListQueries(ctx context.Context) ([]model.QuerySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.query_text, q.current_version, q.updated_at,
		        (SELECT COUNT(*) FROM versions v WHERE v.query_id = q.id),
		        COALESCE((SELECT v.vendor_count FROM versions v
		                  WHERE v.query_id = q.id AND v.number = q.current_version), 0)
		 FROM queries q ORDER BY q.updated_at DESC, q.id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list queries")
	}
	defer rows.Close()

	var out []model.QuerySummary
	for rows.Next() {
		var qs model.QuerySummary
		if err := rows.Scan(&qs.Slug, &qs.QueryText, &qs.CurrentVersion, &qs.LastUpdated, &qs.VersionCount, &qs.VendorCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query summary")
		}
		out = append(out, qs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list queries iterate")
}

// MigrateLegacy is a no-op for SQLite: the schema has always been
// versioned, so there are no unversioned records to lift.
func (s *SQLiteStore) MigrateLegacy(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *SQLiteStore) queryRow(ctx context.Context, queryID string) (*model.Query, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query_text, current_version, updated_at FROM queries
		 WHERE id = ? OR query_key = ?`,
		queryID, model.NormalizeKey(queryID),
	)

	var q model.Query
	err := row.Scan(&q.Slug, &q.QueryText, &q.CurrentVersion, &q.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: query %s", queryID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load query %s", queryID)
	}
	return &q, nil
}

func (s *SQLiteStore) attachVersion(ctx context.Context, q *model.Query, number int) (*model.Query, *model.Version, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM versions WHERE query_id = ? AND number = ?`,
		q.Slug, number,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil, eris.Wrapf(ErrNotFound, "sqlite: query %s version %d", q.Slug, number)
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: load version %d for %s", number, q.Slug)
	}

	var v model.Version
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: parse version %d for %s", number, q.Slug)
	}
	q.Versions = []model.Version{v}
	return q, &v, nil
}
