package catalog

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErrorNoRows(t *testing.T) {
	c := &Catalog{}
	if got := c.mapError(pgx.ErrNoRows); !errors.Is(got, ErrNotFound) {
		t.Fatalf("mapError(pgx.ErrNoRows) = %v, want ErrNotFound", got)
	}
}

func TestMapErrorUniqueViolation(t *testing.T) {
	c := &Catalog{}
	pgErr := &pgconn.PgError{Code: "23505"}
	if got := c.mapError(pgErr); !errors.Is(got, ErrConflict) {
		t.Fatalf("mapError(23505) = %v, want ErrConflict", got)
	}
}

func TestMapErrorPassesThroughOtherErrors(t *testing.T) {
	c := &Catalog{}
	other := errors.New("boom")
	if got := c.mapError(other); got != other {
		t.Fatalf("mapError(other) = %v, want unchanged", got)
	}
}

func TestMapErrorNil(t *testing.T) {
	c := &Catalog{}
	if got := c.mapError(nil); got != nil {
		t.Fatalf("mapError(nil) = %v, want nil", got)
	}
}
