// Package data provides the data models and database interaction logic
// for the bookstore. All models speak to PostgreSQL through a shared
// *sql.DB pool; callers that need cross-table atomicity run inside InTx.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors returned by the model layer. Handlers and the checkout
// processor switch on these to pick the right HTTP status code.
var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned by ReserveStock when the book does
	// not exist or its stock is lower than the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateISBN is returned when an insert would violate the unique
	// ISBN constraint on the books table.
	ErrDuplicateISBN = errors.New("duplicate isbn")

	// ErrDuplicateKey is returned when a purchase insert reuses an
	// idempotency key that has already been recorded.
	ErrDuplicateKey = errors.New("duplicate idempotency key")
)

// queryer is the subset of *sql.DB and *sql.Tx the models need. Binding the
// models to this interface lets the same query code run either directly on
// the pool or inside a transaction started by InTx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Models is a top-level container that groups all database model types together.
// It is passed around the application via applicationDependencies so every handler
// has access to the database without importing sql directly.
type Models struct {
	Books     BookModel     // books table: the catalog store
	Users     UserModel     // users table: the account store
	Purchases PurchaseModel // purchases table: the append-only ledger

	db *sql.DB // retained so InTx can open transactions
}

// NewModels constructs a Models value wired up to the given database connection pool.
// Call this once during application startup and store the result in applicationDependencies.
func NewModels(db *sql.DB) Models {
	return Models{
		Books:     BookModel{DB: db},
		Users:     UserModel{DB: db},
		Purchases: PurchaseModel{DB: db},
		db:        db,
	}
}

// InTx runs fn with a Models value whose queries all execute inside a single
// database transaction. The transaction commits when fn returns nil and is
// rolled back otherwise. The checkout procedure relies on this so the stock
// reservation, buyer creation, ledger insert, and spend update land or fail
// as one unit.
func (m Models) InTx(ctx context.Context, fn func(tx Models) error) error {
	if m.db == nil {
		return errors.New("models not bound to a database pool")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	bound := Models{
		Books:     BookModel{DB: tx},
		Users:     UserModel{DB: tx},
		Purchases: PurchaseModel{DB: tx},
	}

	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
