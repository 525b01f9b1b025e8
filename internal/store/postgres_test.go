package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("run-1")
	rows := testRows()
	audit := testAudit()

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, run.WindowStart, run.WindowEnd, run.Scope,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_rollup_rows"}, rollupColumns).
		WillReturnResult(int64(len(rows)))
	mock.ExpectExec(`ON CONFLICT`).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(len(rows))))
	mock.ExpectCommit()

	mock.ExpectCopyFrom(pgx.Identifier{"audit_records"}, auditColumns).
		WillReturnResult(int64(len(audit)))

	require.NoError(t, s.SaveRun(context.Background(), run, rows, audit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun_NoRowsNoAudit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("run-1")
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, run.WindowStart, run.WindowEnd, run.Scope,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Empty row and audit sets skip the COPY paths entirely.
	require.NoError(t, s.SaveRun(context.Background(), run, nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	stats := []byte(`{"base_orders":10}`)
	mock.ExpectQuery(`SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "window_start", "window_end", "scope", "dimensions", "stats", "created_at"}).
			AddRow("run-1",
				time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				"ghd", []byte(`["market_segment"]`), &stats, created))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "ghd", run.Scope)
	assert.Equal(t, []string{"market_segment"}, run.Dimensions)
	assert.JSONEq(t, `{"base_orders":10}`, string(run.Stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, window_start, window_end, scope, dimensions, stats, created_at FROM runs`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns_ScopeFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM runs WHERE true AND scope = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("ghd", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "window_start", "window_end", "scope", "dimensions", "stats", "created_at"}).
			AddRow("run-1",
				time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				"ghd", []byte(`[]`), (*[]byte)(nil), time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)))

	runs, err := s.ListRuns(context.Background(), RunFilter{Scope: "ghd"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"dims", "orders", "distinct_orders", "ghd_orders", "orders_with_care_cost",
		"late_orders", "cancelled_orders", "bundle_orders", "shop_and_pay_orders",
		"diner_adjustment", "concession_amount", "redelivery_cost", "grub_refund",
		"ticket_cost", "restaurant_refund_total", "alt_currency_concession", "total_care_cost"}
	mock.ExpectQuery(`SELECT dims, orders`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow([]byte(`{"market_segment":"CA"}`), 2, 2, 2, 2, 1, 0, 0, 0,
				"-5.00", "0", "-7.50", "0", "0", "0", "0", "-12.50"))

	rows, err := s.RunRows(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CA", rows[0].ByName["market_segment"])
	assert.Equal(t, 2, rows[0].Orders)
	assert.Equal(t, "-12.50", rows[0].TotalCareCost.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunAudit_NullableColumns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	flagged := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, feed, record_id, order_id, field, value, reason, flagged_at`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "feed", "record_id", "order_id", "field", "value", "reason", "flagged_at"}).
			AddRow("aud-1", "adjustments", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), "bad row", flagged))

	audit, err := s.RunAudit(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "adjustments", audit[0].Feed)
	assert.Equal(t, "", audit[0].RecordID)
	assert.Equal(t, "bad row", audit[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
