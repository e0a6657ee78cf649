package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("unique constraint violated")
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
		}
	}
	return err
}

var now = func() time.Time {
	return time.Now().UTC()
}

func stamp(createdAt, updatedAt *time.Time, t time.Time) {
	if createdAt.IsZero() {
		*createdAt = t
	}
	*updatedAt = t
}
