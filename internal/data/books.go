package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/pagecount/bookstore-api/internal/validator"
)

// Book represents a single catalog record stored in the database.
// It maps directly to a row in the "books" table. Identity for clients is
// the database-assigned ID; ISBN is the unique natural key used by the
// bulk importer.
type Book struct {
	ID        int64     `json:"book_id"`            // Unique identifier assigned by the database
	Title     string    `json:"title"`              // Title of the book
	Author    string    `json:"author"`             // Author name
	ISBN      string    `json:"isbn"`               // Unique ISBN identifier
	Category  string    `json:"category,omitempty"` // Optional category/genre
	Price     float64   `json:"price"`              // Unit price in currency units
	Stock     int       `json:"stock"`              // Copies available; never negative
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateBookInput holds the fields a client must supply when creating a new book.
type CreateBookInput struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	ISBN     string  `json:"isbn"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// UpdateBookInput holds the fields a client may supply when partially updating a book.
// Every field is a pointer so we can distinguish between "not provided" (nil)
// and "intentionally set to zero/empty". Only non-nil fields are applied.
type UpdateBookInput struct {
	Title    *string  `json:"title"`
	Author   *string  `json:"author"`
	ISBN     *string  `json:"isbn"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
}

// ValidateBook checks the invariants every stored book must satisfy: title,
// author, and ISBN present, price non-negative, stock non-negative.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(book.ISBN != "", "isbn", "must be provided")
	v.Check(book.Price >= 0, "price", "must not be negative")
	v.Check(book.Stock >= 0, "stock", "must not be negative")
}

// BookModel wraps a database connection and provides methods for
// creating, reading, updating, and deleting book records, plus the
// atomic stock reservation used by the checkout procedure.
type BookModel struct {
	DB queryer
}

// Insert adds a new book record to the database.
// After a successful insert, the database-assigned book_id, created_at, and
// updated_at values are written back into the book struct.
// Returns ErrDuplicateISBN if the ISBN is already taken.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (title, author, isbn, category, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING book_id, created_at, updated_at`

	err := m.DB.QueryRowContext(
		ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Price,
		book.Stock,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		// 23505 is the PostgreSQL unique_violation code.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateISBN
		}
		return err
	}
	return nil
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT book_id, title, author, isbn, category, price, stock, created_at, updated_at
		FROM books
		WHERE book_id = $1`

	var book Book
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
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
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// GetAll retrieves the books matching filters, sorted ascending by title.
// The listing is deliberately unpaginated; the catalog is small and the
// frontend renders it in full.
func (m BookModel) GetAll(ctx context.Context, filters BookFilters) ([]*Book, error) {
	query, args, err := filters.buildQuery()
	if err != nil {
		return nil, err
	}

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// Always close the result set when we are done to free the database connection.
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var book Book
		err := rows.Scan(
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
		books = append(books, &book)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// Update saves the modified fields of book back to the database.
// The database refreshes updated_at, which is scanned back into the struct.
// Returns ErrRecordNotFound if the book no longer exists and ErrDuplicateISBN
// if the new ISBN collides with another book.
func (m BookModel) Update(ctx context.Context, book *Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, category = $4, price = $5,
		    stock = $6, updated_at = CURRENT_TIMESTAMP
		WHERE book_id = $7
		RETURNING updated_at`

	args := []any{
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Price,
		book.Stock,
		book.ID,
	}

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&book.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		case errors.As(err, &pqErr) && pqErr.Code == "23505":
			return ErrDuplicateISBN
		default:
			return err
		}
	}
	return nil
}

// Delete removes the book with the given id from the database.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Delete(ctx context.Context, id int64) error {
	// Guard against obviously bad IDs before touching the database.
	if id < 1 {
		return ErrRecordNotFound
	}

	query := `DELETE FROM books WHERE book_id = $1`

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ReserveStock atomically decrements a book's stock by quantity, but only if
// the current stock covers it. The condition and the decrement execute as a
// single UPDATE, so two concurrent purchases can never jointly oversell the
// same book even though neither holds an explicit lock. Returns the book
// with its post-decrement stock, or ErrInsufficientStock when the book is
// missing or the stock is too low.
func (m BookModel) ReserveStock(ctx context.Context, id int64, quantity int) (*Book, error) {
	query := `
		UPDATE books
		SET stock = stock - $1, updated_at = CURRENT_TIMESTAMP
		WHERE book_id = $2 AND stock >= $1
		RETURNING book_id, title, author, isbn, category, price, stock, created_at, updated_at`

	var book Book
	err := m.DB.QueryRowContext(ctx, query, quantity, id).Scan(
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
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Either the book does not exist or its stock was below the
			// requested quantity; callers cannot tell the difference and
			// the original system did not either.
			return nil, ErrInsufficientStock
		default:
			return nil, err
		}
	}
	return &book, nil
}

// Upsert inserts the book or, when its ISBN already exists, overwrites the
// existing record in place. Used by the bulk importer so a re-import updates
// prices and stock instead of failing on duplicates.
func (m BookModel) Upsert(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (title, author, isbn, category, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (isbn) DO UPDATE
		SET title = EXCLUDED.title, author = EXCLUDED.author,
		    category = EXCLUDED.category, price = EXCLUDED.price,
		    stock = EXCLUDED.stock, updated_at = CURRENT_TIMESTAMP
		RETURNING book_id, created_at, updated_at`

	return m.DB.QueryRowContext(
		ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Price,
		book.Stock,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
}
