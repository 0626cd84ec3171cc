package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/finworks/accrual-engine-go/internal/telemetry"
)

// maxStatementLength bounds the db.statement attribute so multi-kilobyte
// DDL does not bloat exported spans.
const maxStatementLength = 160

// TracedDB wraps a pgx pool and emits one client span per database call.
// It satisfies DatabasePool, so repositories stay unaware of tracing.
type TracedDB struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewTracedDB creates a traced wrapper around an established pool.
func NewTracedDB(pool *pgxpool.Pool) *TracedDB {
	return &TracedDB{
		pool:   pool,
		tracer: telemetry.GetDatabaseTracer(),
	}
}

func (db *TracedDB) startSpan(ctx context.Context, operation, sql string) (context.Context, trace.Span) {
	return db.tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", summarizeStatement(sql)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Query executes a query and returns the rows.
func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.startSpan(ctx, "query", sql)
	rows, err := db.pool.Query(ctx, sql, args...)
	endSpan(span, err)
	return rows, err
}

// QueryRow executes a query expected to return a single row. Errors
// surface at Scan time and are not visible to the span.
func (db *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := db.startSpan(ctx, "query_row", sql)
	row := db.pool.QueryRow(ctx, sql, args...)
	span.End()
	return row
}

// Exec executes a statement without returning rows.
func (db *TracedDB) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := db.startSpan(ctx, "exec", sql)
	tag, err := db.pool.Exec(ctx, sql, arguments...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	endSpan(span, err)
	return tag, err
}

// Begin starts a transaction whose statements are traced as well.
func (db *TracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := db.startSpan(ctx, "begin", "BEGIN")
	tx, err := db.pool.Begin(ctx)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &TracedTx{tx: tx, tracer: db.tracer}, nil
}

// BeginTx starts a transaction with explicit options.
func (db *TracedDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	ctx, span := db.startSpan(ctx, "begin", "BEGIN")
	tx, err := db.pool.BeginTx(ctx, txOptions)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &TracedTx{tx: tx, tracer: db.tracer}, nil
}

// Ping verifies the connection to the database.
func (db *TracedDB) Ping(ctx context.Context) error {
	ctx, span := db.startSpan(ctx, "ping", "PING")
	err := db.pool.Ping(ctx)
	endSpan(span, err)
	return err
}

// Close closes the underlying pool.
func (db *TracedDB) Close() {
	db.pool.Close()
}

// TracedTx wraps a pgx transaction so statements inside it carry spans too.
type TracedTx struct {
	tx     pgx.Tx
	tracer trace.Tracer
}

func (t *TracedTx) startSpan(ctx context.Context, operation, sql string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.tx."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", summarizeStatement(sql)),
		),
	)
}

func (t *TracedTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := t.startSpan(ctx, "query", sql)
	rows, err := t.tx.Query(ctx, sql, args...)
	endSpan(span, err)
	return rows, err
}

func (t *TracedTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := t.startSpan(ctx, "query_row", sql)
	row := t.tx.QueryRow(ctx, sql, args...)
	span.End()
	return row
}

func (t *TracedTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := t.startSpan(ctx, "exec", sql)
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	endSpan(span, err)
	return tag, err
}

func (t *TracedTx) Commit(ctx context.Context) error {
	ctx, span := t.startSpan(ctx, "commit", "COMMIT")
	err := t.tx.Commit(ctx)
	endSpan(span, err)
	return err
}

func (t *TracedTx) Rollback(ctx context.Context) error {
	ctx, span := t.startSpan(ctx, "rollback", "ROLLBACK")
	err := t.tx.Rollback(ctx)
	endSpan(span, err)
	return err
}

func (t *TracedTx) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := t.startSpan(ctx, "begin", "SAVEPOINT")
	nested, err := t.tx.Begin(ctx)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &TracedTx{tx: nested, tracer: t.tracer}, nil
}

func (t *TracedTx) Conn() *pgx.Conn {
	return t.tx.Conn()
}

func (t *TracedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	ctx, span := t.startSpan(ctx, "copy_from", "COPY "+strings.Join(tableName, "."))
	rowsAffected, err := t.tx.CopyFrom(ctx, tableName, columnNames, rowSrc)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	}
	endSpan(span, err)
	return rowsAffected, err
}

func (t *TracedTx) LargeObjects() pgx.LargeObjects {
	return t.tx.LargeObjects()
}

func (t *TracedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	ctx, span := t.startSpan(ctx, "prepare", sql)
	stmt, err := t.tx.Prepare(ctx, name, sql)
	endSpan(span, err)
	return stmt, err
}

func (t *TracedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	ctx, span := t.startSpan(ctx, "send_batch", "BATCH")
	span.SetAttributes(attribute.Int("db.batch_size", b.Len()))
	results := t.tx.SendBatch(ctx, b)
	span.End()
	return results
}

// RecordDatabaseError attaches a database failure to the span already
// active on the context, if any.
func RecordDatabaseError(ctx context.Context, err error, operation string) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("db.operation", operation))
}

// AddDatabaseSpanAttributes annotates the active span with the table a
// repository touched and how many rows were affected.
func AddDatabaseSpanAttributes(ctx context.Context, table string, rowsAffected int64) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("db.sql.table", table),
		attribute.Int64("db.rows_affected", rowsAffected),
	)
}

// summarizeStatement collapses whitespace and truncates the statement so
// span attributes stay readable.
func summarizeStatement(sql string) string {
	summary := strings.Join(strings.Fields(sql), " ")
	if len(summary) > maxStatementLength {
		return summary[:maxStatementLength] + "..."
	}
	return summary
}
