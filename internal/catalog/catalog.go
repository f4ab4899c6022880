package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fleetfw/backend/internal/pkg/instrument"
)

// Catalog is the relational persistence layer over Device, DeviceType,
// Firmware, DeviceKey and their key-details rows. Queries are
// hand-written SQL against pgxpool rather than a sqlc-generated layer:
// the teacher's own query generator output is not available outside its
// build pipeline, so this package issues SQL directly while keeping the
// teacher's instrumentation wrapper shape (startSpan/endSpan/mapError).
type Catalog struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

// New constructs a Catalog over an established connection pool.
func New(conn *pgxpool.Pool, ins instrument.Instrumentation) *Catalog {
	return &Catalog{conn: conn, ins: ins}
}

// - 23505 unique_violation → ErrConflict
// - 23503 foreign_key_violation → surfaced as-is (handlers decide)
// - pgx.ErrNoRows → ErrNotFound
func (c *Catalog) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}

	return err
}

func (c *Catalog) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("catalog").Start(ctx, name)
}

func (c *Catalog) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// beginTx starts a transaction and returns a rollback func the caller
// must defer immediately; rollback is a no-op once the transaction has
// been committed.
func (c *Catalog) beginTx(ctx context.Context) (pgx.Tx, func(), error) {
	tx, err := c.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	rollback := func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback transaction", "error", rErr)
		}
	}
	return tx, rollback, nil
}
