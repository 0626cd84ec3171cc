package database

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/finworks/accrual-engine-go/internal/telemetry"
)

func TestNewTracedDB(t *testing.T) {
	db := NewTracedDB(nil)

	assert.NotNil(t, db)
	assert.Nil(t, db.pool)
	assert.NotNil(t, db.tracer)
}

// MockTx implements pgx.Tx so TracedTx can be exercised without a server.
type MockTx struct {
	queryFunc    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	commitFunc   func(ctx context.Context) error
	rollbackFunc func(ctx context.Context) error
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return nil, nil
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func (m *MockTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("INSERT 0"), nil
}

func (m *MockTx) Commit(ctx context.Context) error {
	if m.commitFunc != nil {
		return m.commitFunc(ctx)
	}
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	if m.rollbackFunc != nil {
		return m.rollbackFunc(ctx)
	}
	return nil
}

func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return &MockTx{}, nil
}

func (m *MockTx) Conn() *pgx.Conn {
	return nil
}

func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func newTracedTxForTest(tx pgx.Tx) *TracedTx {
	return &TracedTx{tx: tx, tracer: telemetry.GetDatabaseTracer()}
}

func TestTracedTx_Query(t *testing.T) {
	var gotSQL string
	mockTx := &MockTx{
		queryFunc: func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
			gotSQL = sql
			return nil, nil
		},
	}
	tracedTx := newTracedTxForTest(mockTx)

	rows, err := tracedTx.Query(context.Background(), "SELECT id FROM forecast_versions")
	assert.NoError(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, "SELECT id FROM forecast_versions", gotSQL, "statement passes through unchanged")
}

func TestTracedTx_Exec(t *testing.T) {
	tracedTx := newTracedTxForTest(&MockTx{})

	tag, err := tracedTx.Exec(context.Background(), "INSERT INTO actuals (year) VALUES ($1)", 2025)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), tag.RowsAffected())
}

func TestTracedTx_Exec_Error(t *testing.T) {
	mockTx := &MockTx{
		execFunc: func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, assert.AnError
		},
	}
	tracedTx := newTracedTxForTest(mockTx)

	_, err := tracedTx.Exec(context.Background(), "INSERT INTO actuals (year) VALUES ($1)", 2025)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestTracedTx_CommitAndRollback(t *testing.T) {
	committed := false
	rolledBack := false
	mockTx := &MockTx{
		commitFunc:   func(ctx context.Context) error { committed = true; return nil },
		rollbackFunc: func(ctx context.Context) error { rolledBack = true; return nil },
	}
	tracedTx := newTracedTxForTest(mockTx)

	assert.NoError(t, tracedTx.Commit(context.Background()))
	assert.True(t, committed)

	assert.NoError(t, tracedTx.Rollback(context.Background()))
	assert.True(t, rolledBack)
}

func TestTracedTx_Begin_WrapsNestedTx(t *testing.T) {
	tracedTx := newTracedTxForTest(&MockTx{})

	nested, err := tracedTx.Begin(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, nested)
	assert.IsType(t, &TracedTx{}, nested)
}

func TestTracedTx_Passthroughs(t *testing.T) {
	tracedTx := newTracedTxForTest(&MockTx{})
	ctx := context.Background()

	assert.Nil(t, tracedTx.Conn())
	assert.Nil(t, tracedTx.QueryRow(ctx, "SELECT 1"))
	assert.IsType(t, pgx.LargeObjects{}, tracedTx.LargeObjects())

	stmt, err := tracedTx.Prepare(ctx, "latest_version", "SELECT id FROM forecast_versions LIMIT 1")
	assert.NoError(t, err)
	assert.Nil(t, stmt)

	rowSrc := pgx.CopyFromSlice(1, func(i int) ([]interface{}, error) {
		return []interface{}{2025, 5, "Rent"}, nil
	})
	rowsAffected, err := tracedTx.CopyFrom(ctx, pgx.Identifier{"actuals"}, []string{"year", "month", "category"}, rowSrc)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rowsAffected)

	batch := &pgx.Batch{}
	batch.Queue("SELECT 1")
	assert.Nil(t, tracedTx.SendBatch(ctx, batch))
}

func TestRecordDatabaseError_NoSpanNoPanic(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordDatabaseError(ctx, fmt.Errorf("connection refused"), "query")
		RecordDatabaseError(ctx, nil, "query")
	})
}

func TestAddDatabaseSpanAttributes_NoSpanNoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		AddDatabaseSpanAttributes(context.Background(), "forecast_versions", 3)
	})
}

func TestSummarizeStatement(t *testing.T) {
	collapsed := summarizeStatement("\n\t\tSELECT id\n\t\tFROM forecast_versions\n\t")
	assert.Equal(t, "SELECT id FROM forecast_versions", collapsed)

	long := "SELECT " + strings.Repeat("col, ", 100) + "id FROM wide_table"
	truncated := summarizeStatement(long)
	assert.Len(t, truncated, maxStatementLength+3)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}
