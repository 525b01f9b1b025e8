package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/mealcart/carecost-cli/internal/db"
	"github.com/mealcart/carecost-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	window_start TIMESTAMPTZ NOT NULL,
	window_end   TIMESTAMPTZ NOT NULL,
	scope        TEXT NOT NULL,
	dimensions   JSONB NOT NULL,
	stats        JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rollup_rows (
	run_id                  TEXT NOT NULL REFERENCES runs(id),
	group_key               TEXT NOT NULL,
	dims                    JSONB NOT NULL,
	orders                  BIGINT NOT NULL,
	distinct_orders         BIGINT NOT NULL,
	ghd_orders              BIGINT NOT NULL,
	orders_with_care_cost   BIGINT NOT NULL,
	late_orders             BIGINT NOT NULL,
	cancelled_orders        BIGINT NOT NULL,
	bundle_orders           BIGINT NOT NULL,
	shop_and_pay_orders     BIGINT NOT NULL,
	diner_adjustment        NUMERIC(14,2) NOT NULL,
	concession_amount       NUMERIC(14,2) NOT NULL,
	redelivery_cost         NUMERIC(14,2) NOT NULL,
	grub_refund             NUMERIC(14,2) NOT NULL,
	ticket_cost             NUMERIC(14,2) NOT NULL,
	restaurant_refund_total NUMERIC(14,2) NOT NULL,
	alt_currency_concession NUMERIC(14,2) NOT NULL,
	total_care_cost         NUMERIC(14,2) NOT NULL,
	PRIMARY KEY (run_id, group_key)
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
	flagged_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_scope ON runs(scope);
CREATE INDEX IF NOT EXISTS idx_audit_records_run_id ON audit_records(run_id);
CREATE INDEX IF NOT EXISTS idx_audit_records_order_id ON audit_records(order_id);
`

// rollupColumns lists rollup_rows columns in COPY order.
var rollupColumns = []string{
	"run_id", "group_key", "dims",
	"orders", "distinct_orders", "ghd_orders", "orders_with_care_cost",
	"late_orders", "cancelled_orders", "bundle_orders", "shop_and_pay_orders",
	"diner_adjustment", "concession_amount", "redelivery_cost", "grub_refund",
	"ticket_cost", "restaurant_refund_total", "alt_currency_concession", "total_care_cost",
}

var auditColumns = []string{
	"id", "run_id", "feed", "record_id", "order_id", "field", "value", "reason", "flagged_at",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run RunRecord, rows []model.AggregationRow, audit []model.AuditRecord) error {
	dimsJSON, err := json.Marshal(run.Dimensions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal dimensions")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, window_start, window_end, scope, dimensions, stats, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.WindowStart, run.WindowEnd, run.Scope, dimsJSON, []byte(run.Stats), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	upsertRows := make([][]any, 0, len(rows))
	for _, r := range rows {
		byName, err := json.Marshal(r.ByName)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal dims")
		}
		upsertRows = append(upsertRows, []any{
			run.ID, groupKey(r), byName,
			r.Orders, r.DistinctOrders, r.GHDOrders, r.OrdersWithCareCost,
			r.LateOrders, r.CancelledOrders, r.BundleOrders, r.ShopAndPayOrders,
			r.DinerAdjustment.String(), r.ConcessionAmount.String(), r.RedeliveryCost.String(), r.GrubRefund.String(),
			r.TicketCost.String(), r.RestaurantRefundTotal.String(), r.AltCurrencyConcession.String(), r.TotalCareCost.String(),
		})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "rollup_rows",
		Columns:      rollupColumns,
		ConflictKeys: []string{"run_id", "group_key"},
	}, upsertRows); err != nil {
		return eris.Wrapf(err, "postgres: save rollup rows for run %s", run.ID)
	}

	auditRows := make([][]any, 0, len(audit))
	for _, a := range audit {
		auditRows = append(auditRows, []any{
			a.ID, run.ID, a.Feed, a.RecordID, a.OrderUUID, a.Field, a.Value, a.Reason, a.FlaggedAt,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "audit_records", auditColumns, auditRows); err != nil {
		return eris.Wrapf(err, "postgres: save audit records for run %s", run.ID)
	}

	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var r RunRecord
	var dimsJSON []byte
	var statsJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.WindowStart, &r.WindowEnd, &r.Scope, &dimsJSON, &statsJSON, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(dimsJSON, &r.Dimensions); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal dimensions")
	}
	if statsJSON != nil {
		r.Stats = json.RawMessage(*statsJSON)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Scope != "" {
		query += fmt.Sprintf(` AND scope = $%d`, argIdx)
		args = append(args, filter.Scope)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var dimsJSON []byte
		var statsJSON *[]byte

		if err := rows.Scan(&r.ID, &r.WindowStart, &r.WindowEnd, &r.Scope, &dimsJSON, &statsJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(dimsJSON, &r.Dimensions); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal dimensions")
		}
		if statsJSON != nil {
			r.Stats = json.RawMessage(*statsJSON)
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RunRows(ctx context.Context, runID string) ([]model.AggregationRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT dims, orders, distinct_orders, ghd_orders, orders_with_care_cost,
		        late_orders, cancelled_orders, bundle_orders, shop_and_pay_orders,
		        diner_adjustment::text, concession_amount::text, redelivery_cost::text, grub_refund::text,
		        ticket_cost::text, restaurant_refund_total::text, alt_currency_concession::text, total_care_cost::text
		 FROM rollup_rows WHERE run_id = $1 ORDER BY group_key`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: run rows %s", runID)
	}
	defer rows.Close()

	var out []model.AggregationRow
	for rows.Next() {
		var r model.AggregationRow
		var dimsJSON []byte
		amounts := make([]string, 8)

		if err := rows.Scan(&dimsJSON,
			&r.Orders, &r.DistinctOrders, &r.GHDOrders, &r.OrdersWithCareCost,
			&r.LateOrders, &r.CancelledOrders, &r.BundleOrders, &r.ShopAndPayOrders,
			&amounts[0], &amounts[1], &amounts[2], &amounts[3],
			&amounts[4], &amounts[5], &amounts[6], &amounts[7],
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rollup row")
		}
		if err := json.Unmarshal(dimsJSON, &r.ByName); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal dims")
		}

		dst := []*decimal.Decimal{
			&r.DinerAdjustment, &r.ConcessionAmount, &r.RedeliveryCost, &r.GrubRefund,
			&r.TicketCost, &r.RestaurantRefundTotal, &r.AltCurrencyConcession, &r.TotalCareCost,
		}
		for i, v := range amounts {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: parse amount %q", v)
			}
			*dst[i] = d
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: run rows iterate")
}

func (s *PostgresStore) RunAudit(ctx context.Context, runID string) ([]model.AuditRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, feed, record_id, order_id, field, value, reason, flagged_at
		 FROM audit_records WHERE run_id = $1 ORDER BY flagged_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: run audit %s", runID)
	}
	defer rows.Close()

	var out []model.AuditRecord
	for rows.Next() {
		var a model.AuditRecord
		var recordID, orderID, field, value *string
		if err := rows.Scan(&a.ID, &a.Feed, &recordID, &orderID, &field, &value, &a.Reason, &a.FlaggedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit record")
		}
		if recordID != nil {
			a.RecordID = *recordID
		}
		if orderID != nil {
			a.OrderUUID = *orderID
		}
		if field != nil {
			a.Field = *field
		}
		if value != nil {
			a.Value = *value
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: run audit iterate")
}
