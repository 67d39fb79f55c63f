// Package store persists extraction runs and their composition tables.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/terralab/landcover-cli/internal/config"
	"github.com/terralab/landcover-cli/internal/landcover"
)

// Run records one extraction invocation.
type Run struct {
	ID           string    `json:"id"`
	PointsFile   string    `json:"points_file"`
	RadiusMeters float64   `json:"radius_m"`
	Vintage      string    `json:"vintage"` // "auto" or a fixed year
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store defines the persistence interface for extraction results.
type Store interface {
	// SaveRun persists the run record and its composition rows in long
	// format (one row per point, vintage and category code).
	SaveRun(ctx context.Context, run Run, table *landcover.Table) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Open creates the store named by the config and applies migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		s, err = NewSQLite(cfg.Path)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// compositionRows flattens a table into long-format rows shared by both
// store implementations.
func compositionRows(runID string, table *landcover.Table) [][]any {
	var rows [][]any
	for _, r := range table.Rows {
		for _, code := range table.Codes {
			rows = append(rows, []any{runID, r.PointID, r.Vintage, r.BufferArea, code, r.Share(code)})
		}
	}
	return rows
}
