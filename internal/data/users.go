package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pagecount/bookstore-api/internal/validator"
)

// User represents a buyer account. Email is a secondary lookup key and is
// deliberately not unique: the original system tolerated duplicate accounts
// rather than enforcing uniqueness, and the purchase flow only ever needs
// "some account matching this email".
type User struct {
	ID         int64     `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	TotalSpent float64   `json:"total_spent"` // cumulative spend; feeds loyalty discount eligibility
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LoginInput holds the fields required by the login-or-register endpoint.
type LoginInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ValidateLogin checks that both login fields are present and the email is
// plausibly shaped.
func ValidateLogin(v *validator.Validator, input LoginInput) {
	v.Check(input.Name != "", "name", "must be provided")
	v.Check(input.Email != "", "email", "must be provided")
	if input.Email != "" {
		v.Check(validator.Matches(input.Email, validator.EmailRX), "email", "must be a valid email address")
	}
}

// UserModel wraps a database connection and provides methods for reading
// and writing buyer accounts.
type UserModel struct {
	DB queryer
}

// Insert adds a new user record. The database-assigned user_id, timestamps,
// and the default total_spent of 0 are written back into the struct.
func (m UserModel) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING user_id, total_spent, created_at, updated_at`

	return m.DB.QueryRowContext(ctx, query, user.Name, user.Email).
		Scan(&user.ID, &user.TotalSpent, &user.CreatedAt, &user.UpdatedAt)
}

// Get retrieves a user by primary key.
// Returns ErrRecordNotFound if no user with the given id exists.
func (m UserModel) Get(ctx context.Context, id int64) (*User, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT user_id, name, email, total_spent, created_at, updated_at
		FROM users
		WHERE user_id = $1`

	var user User
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.TotalSpent,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// GetByEmail retrieves the oldest user with the given email. Because email
// is not unique, "oldest wins" keeps the lookup deterministic when
// duplicates exist. Returns ErrRecordNotFound when no account matches.
func (m UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT user_id, name, email, total_spent, created_at, updated_at
		FROM users
		WHERE email = $1
		ORDER BY user_id ASC
		LIMIT 1`

	var user User
	err := m.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.TotalSpent,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// UpdateName changes a user's display name. Login uses this when an existing
// account signs in with a different name.
func (m UserModel) UpdateName(ctx context.Context, id int64, name string) error {
	query := `
		UPDATE users
		SET name = $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2`

	result, err := m.DB.ExecContext(ctx, query, name, id)
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

// AddSpending adds amount to the user's cumulative spend and returns the new
// total. The addition happens in the database so a concurrent purchase by
// the same buyer cannot overwrite this one's contribution.
func (m UserModel) AddSpending(ctx context.Context, id int64, amount float64) (float64, error) {
	query := `
		UPDATE users
		SET total_spent = total_spent + $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2
		RETURNING total_spent`

	var newTotal float64
	err := m.DB.QueryRowContext(ctx, query, amount, id).Scan(&newTotal)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, ErrRecordNotFound
		default:
			return 0, err
		}
	}
	return newTotal, nil
}
