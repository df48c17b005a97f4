package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it, which is how the Postgres backend is unit tested.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool. Same-key saves take a
// row lock on the query so concurrent writers never race on version
// numbers.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool and
// ensures the schema exists.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS queries (
	id              TEXT PRIMARY KEY,
	query_key       TEXT NOT NULL UNIQUE,
	query_text      TEXT NOT NULL,
	current_version INTEGER NOT NULL DEFAULT 0,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
	query_id     TEXT NOT NULL REFERENCES queries(id),
	number       INTEGER NOT NULL,
	payload      JSONB NOT NULL,
	vendor_count INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd     DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (query_id, number)
);

CREATE INDEX IF NOT EXISTS idx_queries_updated_at ON queries(updated_at);
`

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveVersion(ctx context.Context, queryText string, v *model.Version) (int, error) {
	key := model.NormalizeKey(queryText)
	slug := model.Slugify(queryText)
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO queries (id, query_key, query_text, current_version, updated_at)
		 VALUES ($1, $2, $3, 0, $4)
		 ON CONFLICT (query_key) DO NOTHING`,
		slug, key, queryText, now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert query")
	}

	// Lock the query row so concurrent saves serialize on the key.
	var id string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM queries WHERE query_key = $1 FOR UPDATE`, key,
	).Scan(&id); err != nil {
		return 0, eris.Wrap(err, "postgres: lock query")
	}

	var number int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM versions WHERE query_id = $1`, id,
	).Scan(&number); err != nil {
		return 0, eris.Wrap(err, "postgres: next version number")
	}

	v.Number = number
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal version")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO versions (query_id, number, payload, vendor_count, total_tokens, cost_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, number, payload, len(v.Vendors), v.Stats.Totals.TotalTokens, v.Stats.TotalCostUSD, v.CreatedAt,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert version %d for %s", number, id)
	}

	_, err = tx.Exec(ctx,
		`UPDATE queries SET current_version = $1, updated_at = $2 WHERE id = $3`,
		number, now, id,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: advance current version for %s", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit")
	}
	return number, nil
}

func (s *PostgresStore) LoadCurrent(ctx context.Context, queryID string) (*model.Query, *model.Version, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, nil, err
	}
	return s.attachVersion(ctx, q, q.CurrentVersion)
}

func (s *PostgresStore) LoadVersion(ctx context.Context, queryID string, number int) (*model.Query, *model.Version, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, nil, err
	}
	return s.attachVersion(ctx, q, number)
}

func (s *PostgresStore) ListVersions(ctx context.Context, queryID string) ([]model.VersionSummary, error) {
	q, err := s.queryRow(ctx, queryID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT number, created_at, vendor_count, total_tokens, cost_usd
		 FROM versions WHERE query_id = $1 ORDER BY number`,
		q.Slug,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list versions for %s", queryID)
	}
	defer rows.Close()

	var out []model.VersionSummary
	for rows.Next() {
		var vs model.VersionSummary
		if err := rows.Scan(&vs.Number, &vs.CreatedAt, &vs.VendorCount, &vs.TotalTokens, &vs.CostUSD); err != nil {
			return nil, eris.Wrap(err, "postgres: scan version summary")
		}
		out = append(out, vs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list versions iterate")
}

func (s *PostgresStore) ListQueries(ctx context.Context) ([]model.QuerySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.query_text, q.current_version, q.updated_at,
		        (SELECT COUNT(*) FROM versions v WHERE v.query_id = q.id),
		        COALESCE((SELECT v.vendor_count FROM versions v
		                  WHERE v.query_id = q.id AND v.number = q.current_version), 0)
		 FROM queries q ORDER BY q.updated_at DESC, q.id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list queries")
	}
	defer rows.Close()

	var out []model.QuerySummary
	for rows.Next() {
		var qs model.QuerySummary
		if err := rows.Scan(&qs.Slug, &qs.QueryText, &qs.CurrentVersion, &qs.LastUpdated, &qs.VersionCount, &qs.VendorCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan query summary")
		}
		out = append(out, qs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list queries iterate")
}

// MigrateLegacy is a no-op for Postgres: the schema has always been
// versioned, so there are no unversioned records to lift.
func (s *PostgresStore) MigrateLegacy(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *PostgresStore) queryRow(ctx context.Context, queryID string) (*model.Query, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query_text, current_version, updated_at FROM queries
		 WHERE id = $1 OR query_key = $2`,
		queryID, model.NormalizeKey(queryID),
	)

	var q model.Query
	err := row.Scan(&q.Slug, &q.QueryText, &q.CurrentVersion, &q.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: query %s", queryID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load query %s", queryID)
	}
	return &q, nil
}

func (s *PostgresStore) attachVersion(ctx context.Context, q *model.Query, number int) (*model.Query, *model.Version, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM versions WHERE query_id = $1 AND number = $2`,
		q.Slug, number,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, eris.Wrapf(ErrNotFound, "postgres: query %s version %d", q.Slug, number)
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: load version %d for %s", number, q.Slug)
	}

	var v model.Version
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: parse version %d for %s", number, q.Slug)
	}
	q.Versions = []model.Version{v}
	return q, &v, nil
}
