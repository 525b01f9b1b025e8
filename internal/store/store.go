// Package store persists run results so rollups stay queryable after the
// CLI exits. Two backends: SQLite for local runs, Postgres for shared
// deployments.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mealcart/carecost-cli/internal/model"
)

// RunRecord is the persisted header for one completed run.
type RunRecord struct {
	ID          string          `json:"id"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Scope       string          `json:"scope"`
	Dimensions  []string        `json:"dimensions"`
	Stats       json.RawMessage `json:"stats,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Scope  string `json:"scope,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for run results.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run RunRecord, rows []model.AggregationRow, audit []model.AuditRecord) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	// Results
	RunRows(ctx context.Context, runID string) ([]model.AggregationRow, error)
	RunAudit(ctx context.Context, runID string) ([]model.AuditRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver. An empty driver means
// persistence is disabled and returns nil with no error.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// groupKey identifies one rollup row within a run. Dimension values cannot
// contain the unit separator, so the join is collision-free.
func groupKey(r model.AggregationRow) string {
	return strings.Join(r.Dimensions, "\x1f")
}
