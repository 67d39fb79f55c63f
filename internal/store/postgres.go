package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/terralab/landcover-cli/internal/db"
	"github.com/terralab/landcover-cli/internal/landcover"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
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
	return &PostgresStore{pool: pool}, nil
}

// newPostgresWithPool wires an existing pool, used by tests.
func newPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	points_file TEXT NOT NULL,
	radius_m    DOUBLE PRECISION NOT NULL,
	vintage     TEXT NOT NULL,
	points      INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS compositions (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	point_id    TEXT NOT NULL,
	vintage     INTEGER NOT NULL,
	buffer_area DOUBLE PRECISION NOT NULL,
	code        TEXT NOT NULL,
	share       DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compositions_run_id ON compositions(run_id);
CREATE INDEX IF NOT EXISTS idx_compositions_point ON compositions(run_id, point_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run Run, table *landcover.Table) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, points_file, radius_m, vintage, points, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.PointsFile, run.RadiusMeters, run.Vintage, run.Points, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	_, err = db.CopyFrom(ctx, s.pool, "compositions",
		[]string{"run_id", "point_id", "vintage", "buffer_area", "code", "share"},
		compositionRows(run.ID, table),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: copy compositions for run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, points_file, radius_m, vintage, points, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.PointsFile, &r.RadiusMeters, &r.Vintage, &r.Points, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
