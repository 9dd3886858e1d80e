package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/emilianohg/carbontrack/internal/db"
)

var (
	// ErrNotFound is returned by mutations that matched no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("record already exists")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the per-entity repositories over a single connection or
// transaction. It is the data store handle injected into the services.
type Store struct {
	db   *sql.DB
	inTx bool

	Companies *CompanyRepo
	Workers   *WorkerRepo
	Emissions *EmissionRepo
	Factors   *FactorRepo
	Monthly   *MonthlyRepo
}

func NewStore(database *sql.DB) *Store {
	return newStore(database, database, false)
}

func newStore(database *sql.DB, q DBTX, inTx bool) *Store {
	return &Store{
		db:        database,
		inTx:      inTx,
		Companies: NewCompanyRepo(q),
		Workers:   NewWorkerRepo(q),
		Emissions: NewEmissionRepo(q),
		Factors:   NewFactorRepo(q),
		Monthly:   NewMonthlyRepo(q),
	}
}

// InTx runs fn with a Store bound to a single transaction. Calls made on a
// Store that is already transactional reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(newStore(s.db, tx, true))
	})
}

func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// uniqueViolation turns a sqlite unique constraint failure into ErrDuplicate
// and returns any other error unchanged.
func uniqueViolation(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
