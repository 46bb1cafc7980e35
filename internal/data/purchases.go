package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Purchase is one row of the append-only purchase ledger. Records are
// immutable once created: there is no update or cancellation path.
type Purchase struct {
	ID             int64      `json:"purchase_id"`
	UserID         int64      `json:"user_id"`
	BookID         int64      `json:"book_id"`
	Quantity       int        `json:"quantity"`
	TotalPrice     float64    `json:"total_price"`   // quantity x unit price, discount applied, rounded to cents
	DiscountRate   float64    `json:"discount_rate"` // 0 or 0.05
	IdempotencyKey *uuid.UUID `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Book carries the full book record on history/cart reads, mirroring
	// the populated responses the frontend expects. Nil on writes.
	Book *Book `json:"book,omitempty"`
}

// PurchaseModel wraps a database connection and provides methods for
// appending to and reading the purchase ledger.
type PurchaseModel struct {
	DB queryer
}

// Insert appends a purchase record to the ledger and writes the assigned
// purchase_id and created_at back into the struct. Returns ErrDuplicateKey
// when the idempotency key has already been used.
func (m PurchaseModel) Insert(ctx context.Context, purchase *Purchase) error {
	query := `
		INSERT INTO purchases (user_id, book_id, quantity, total_price, discount_rate, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING purchase_id, created_at`

	err := m.DB.QueryRowContext(
		ctx, query,
		purchase.UserID,
		purchase.BookID,
		purchase.Quantity,
		purchase.TotalPrice,
		purchase.DiscountRate,
		purchase.IdempotencyKey,
	).Scan(&purchase.ID, &purchase.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByKey looks up the purchase recorded under the given idempotency key.
// Returns ErrRecordNotFound when the key has never been used, which is the
// common case.
func (m PurchaseModel) GetByKey(ctx context.Context, key uuid.UUID) (*Purchase, error) {
	query := `
		SELECT purchase_id, user_id, book_id, quantity, total_price, discount_rate, idempotency_key, created_at
		FROM purchases
		WHERE idempotency_key = $1`

	var purchase Purchase
	err := m.DB.QueryRowContext(ctx, query, key).Scan(
		&purchase.ID,
		&purchase.UserID,
		&purchase.BookID,
		&purchase.Quantity,
		&purchase.TotalPrice,
		&purchase.DiscountRate,
		&purchase.IdempotencyKey,
		&purchase.CreatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &purchase, nil
}

// AllForUser returns a user's full purchase history, newest first, with the
// referenced book joined onto each record. A limit of 0 means no limit;
// the cart endpoint passes 10 to return only the most recent items.
func (m PurchaseModel) AllForUser(ctx context.Context, userID int64, limit int) ([]*Purchase, error) {
	query := `
		SELECT p.purchase_id, p.user_id, p.book_id, p.quantity, p.total_price,
		       p.discount_rate, p.idempotency_key, p.created_at,
		       b.book_id, b.title, b.author, b.isbn, b.category, b.price, b.stock,
		       b.created_at, b.updated_at
		FROM purchases p
		INNER JOIN books b ON b.book_id = p.book_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.purchase_id DESC`

	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []*Purchase{}
	for rows.Next() {
		var purchase Purchase
		var book Book
		err := rows.Scan(
			&purchase.ID,
			&purchase.UserID,
			&purchase.BookID,
			&purchase.Quantity,
			&purchase.TotalPrice,
			&purchase.DiscountRate,
			&purchase.IdempotencyKey,
			&purchase.CreatedAt,
			&book.ID,
			&book.Title,
			&book.Author,
			&book.ISBN,
			&book.Category,
			&book.Price,
			&book.Stock,
			&book.CreatedAt,
			&book.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		purchase.Book = &book
		purchases = append(purchases, &purchase)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}
