package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mealcart/carecost-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	window_start DATETIME NOT NULL,
	window_end   DATETIME NOT NULL,
	scope        TEXT NOT NULL,
	dimensions   TEXT NOT NULL,
	stats        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS rollup_rows (
	id        TEXT PRIMARY KEY,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	group_key TEXT NOT NULL,
	row       TEXT NOT NULL,
	UNIQUE (run_id, group_key)
);

CREATE TABLE IF NOT EXISTS audit_records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	feed       TEXT NOT NULL,
	record_id  TEXT,
	order_id   TEXT,
	field      TEXT,
	value      TEXT,
	reason     TEXT NOT NULL,
	flagged_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_scope ON runs(scope);
CREATE INDEX IF NOT EXISTS idx_rollup_rows_run_id ON rollup_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_audit_records_run_id ON audit_records(run_id);
CREATE INDEX IF NOT EXISTS idx_audit_records_order_id ON audit_records(order_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord, rows []model.AggregationRow, audit []model.AuditRecord) error {
	dimsJSON, err := json.Marshal(run.Dimensions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dimensions")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, window_start, window_end, scope, dimensions, stats, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.WindowStart, run.WindowEnd, run.Scope, string(dimsJSON), nullableJSON(run.Stats), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	for _, r := range rows {
		rowJSON, err := json.Marshal(r)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal rollup row")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rollup_rows (id, run_id, group_key, row) VALUES (?, ?, ?, ?)
			 ON CONFLICT (run_id, group_key) DO UPDATE SET row = excluded.row`,
			uuid.New().String(), run.ID, groupKey(r), string(rowJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert rollup row for run %s", run.ID)
		}
	}

	for _, a := range audit {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO audit_records (id, run_id, feed, record_id, order_id, field, value, reason, flagged_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, run.ID, a.Feed, a.RecordID, a.OrderUUID, a.Field, a.Value, a.Reason, a.FlaggedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert audit record for run %s", run.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Scope != "" {
		query += ` AND scope = ?`
		args = append(args, filter.Scope)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RunRows(ctx context.Context, runID string) ([]model.AggregationRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row FROM rollup_rows WHERE run_id = ? ORDER BY group_key`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: run rows %s", runID)
	}
	defer rows.Close()

	var out []model.AggregationRow
	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rollup row")
		}
		var r model.AggregationRow
		if err := json.Unmarshal([]byte(rowJSON), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal rollup row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: run rows iterate")
}

func (s *SQLiteStore) RunAudit(ctx context.Context, runID string) ([]model.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feed, record_id, order_id, field, value, reason, flagged_at
		 FROM audit_records WHERE run_id = ? ORDER BY flagged_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: run audit %s", runID)
	}
	defer rows.Close()

	var out []model.AuditRecord
	for rows.Next() {
		var a model.AuditRecord
		var recordID, orderID, field, value sql.NullString
		if err := rows.Scan(&a.ID, &a.Feed, &recordID, &orderID, &field, &value, &a.Reason, &a.FlaggedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit record")
		}
		a.RecordID = recordID.String
		a.OrderUUID = orderID.String
		a.Field = field.String
		a.Value = value.String
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: run audit iterate")
}

// helpers

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*RunRecord, error) {
	var r RunRecord
	var dimsJSON string
	var statsJSON sql.NullString

	err := row.Scan(&r.ID, &r.WindowStart, &r.WindowEnd, &r.Scope, &dimsJSON, &statsJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(dimsJSON), &r.Dimensions); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal dimensions")
	}
	if statsJSON.Valid {
		r.Stats = json.RawMessage(statsJSON.String)
	}
	return &r, nil
}
