// Snapshot-scoped dataset store: one connection, one transaction per run
// Every query runs in the same read-only transaction and is traced
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Aggregates are scalar statistics over the matching rows of a query.
type Aggregates struct {
	Count int64
	Min   float64
	Max   float64
	Mean  float64
}

// GroupCount is one group of a grouped count. Null is set for the group of
// rows whose key is NULL; Label is empty in that case.
type GroupCount struct {
	Label string
	Null  bool
	Count int64
}

// Store reads from a single consistent snapshot of a dataset.
type Store struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect dialect
	name    string
	tracer  trace.Tracer
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithTracer traces every query with the given tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = t
	}
}

// Open opens source (a SQLite or DuckDB file, or a postgres:// DSN) and
// starts the snapshot transaction used by every subsequent query.
// The caller must Close the store.
func Open(ctx context.Context, source string, opts ...Option) (*Store, error) {
	d, dsn := detectDialect(source)
	if d.fileBacked {
		info, err := os.Stat(source)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: dataset %q not found", ErrConfiguration, source)
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", displayName(source), err)
	}
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, d.txOptions)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("starting snapshot on %s: %w", displayName(source), err)
	}

	s := &Store{
		db:      db,
		tx:      tx,
		dialect: d,
		name:    displayName(source),
		tracer:  noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// With opens source, calls fn with the store, and always closes it.
func With(ctx context.Context, source string, fn func(*Store) error, opts ...Option) (err error) {
	s, err := Open(ctx, source, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}

// Name is a short, credential-free name of the dataset.
func (s *Store) Name() string {
	return s.name
}

// Close ends the snapshot and releases the connection. It is safe to call
// more than once.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	rbErr := s.tx.Rollback()
	if errors.Is(rbErr, sql.ErrTxDone) {
		rbErr = nil
	}
	return errors.Join(rbErr, s.db.Close())
}

// RowCount returns the number of rows in table, NULLs included.
func (s *Store) RowCount(ctx context.Context, table Table) (n int64, err error) {
	if _, ok := schema[table]; !ok {
		return 0, fmt.Errorf("%w: unknown table %q", ErrConfiguration, table)
	}
	stmt, err := render("rowCount", stmtParams{Table: table})
	if err != nil {
		return 0, err
	}
	ctx, span := s.startSpan(ctx, "rowCount", stmt, attribute.String("db.collection.name", string(table)))
	defer func() { endSpan(span, err) }()

	if err := s.tx.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows of %s: %w", table, err)
	}
	return n, nil
}

// Count returns the number of rows matching q.
func (s *Store) Count(ctx context.Context, q Query) (n int64, err error) {
	stmt, args, err := s.dialect.statement("count", q)
	if err != nil {
		return 0, err
	}
	ctx, span := s.startSpan(ctx, "count", stmt, columnAttrs(q.Column)...)
	defer func() { endSpan(span, err) }()

	if err := s.tx.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q, err)
	}
	return n, nil
}

// Aggregate returns count, min, max, and mean over the rows matching q.
// Min, Max, and Mean are zero when Count is zero.
func (s *Store) Aggregate(ctx context.Context, q Query) (agg Aggregates, err error) {
	stmt, args, err := s.dialect.statement("aggregate", q)
	if err != nil {
		return Aggregates{}, err
	}
	ctx, span := s.startSpan(ctx, "aggregate", stmt, columnAttrs(q.Column)...)
	defer func() { endSpan(span, err) }()

	var lo, hi, mean sql.NullFloat64
	if err := s.tx.QueryRowContext(ctx, stmt, args...).Scan(&agg.Count, &lo, &hi, &mean); err != nil {
		return Aggregates{}, fmt.Errorf("aggregating %s: %w", q, err)
	}
	agg.Min, agg.Max, agg.Mean = lo.Float64, hi.Float64, mean.Float64
	return agg, nil
}

// ValueAt returns the value at zero-based offset of the rows matching q,
// sorted ascending by the column.
func (s *Store) ValueAt(ctx context.Context, q Query, offset int64) (v float64, err error) {
	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrConfiguration, offset)
	}
	stmt, args, err := s.dialect.statement("valueAt", q, offset)
	if err != nil {
		return 0, err
	}
	ctx, span := s.startSpan(ctx, "valueAt", stmt, append(columnAttrs(q.Column), attribute.Int64("dataset.offset", offset))...)
	defer func() { endSpan(span, err) }()

	if err := s.tx.QueryRowContext(ctx, stmt, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("no row of %s at offset %d", q, offset)
		}
		return 0, fmt.Errorf("reading %s at offset %d: %w", q, offset, err)
	}
	return v, nil
}

// GroupBy counts rows per distinct value of a categorical column, ordered by
// value with the NULL group first.
func (s *Store) GroupBy(ctx context.Context, c Column) (groups []GroupCount, err error) {
	if err := requireKind(c, Categorical); err != nil {
		return nil, err
	}
	stmt, err := render("groupBy", stmtParams{Table: c.Table, Column: c.Name})
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "groupBy", stmt, columnAttrs(c)...)
	defer func() { endSpan(span, err) }()

	rows, err := s.tx.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("grouping %s: %w", c, err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	for rows.Next() {
		var label sql.NullString
		var g GroupCount
		if err := rows.Scan(&label, &g.Count); err != nil {
			return nil, fmt.Errorf("scanning %s group: %w", c, err)
		}
		g.Label, g.Null = label.String, !label.Valid
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grouping %s: %w", c, err)
	}
	return groups, nil
}

// CountsPerKey counts rows per non-null value of a key column and returns
// how many keys have each row count, ordered by row count. Labels are the
// row counts in decimal.
func (s *Store) CountsPerKey(ctx context.Context, key Column) (groups []GroupCount, err error) {
	if err := requireKind(key, Key); err != nil {
		return nil, err
	}
	stmt, err := render("perKey", stmtParams{Table: key.Table, Column: key.Name})
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "perKey", stmt, columnAttrs(key)...)
	defer func() { endSpan(span, err) }()

	rows, err := s.tx.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("counting rows per %s: %w", key, err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	for rows.Next() {
		var perKey, keys int64
		if err := rows.Scan(&perKey, &keys); err != nil {
			return nil, fmt.Errorf("scanning rows per %s: %w", key, err)
		}
		groups = append(groups, GroupCount{Label: strconv.FormatInt(perKey, 10), Count: keys})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counting rows per %s: %w", key, err)
	}
	return groups, nil
}

func columnAttrs(c Column) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.collection.name", string(c.Table)),
		attribute.String("dataset.column", c.Name),
	}
}

func (s *Store) startSpan(ctx context.Context, kind, stmt string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.system", s.dialect.name),
		attribute.String("db.query.text", stmt),
	)
	return s.tracer.Start(ctx, "dataset."+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
