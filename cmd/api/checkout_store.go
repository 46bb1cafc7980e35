// cmd/api/checkout_store.go
// Adapts the data model layer to the checkout package's store interfaces.
// The checkout processor only sees the narrow transactional view it needs.
package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/pagecount/bookstore-api/internal/checkout"
	"github.com/pagecount/bookstore-api/internal/data"
)

// checkoutStore opens database transactions for the purchase procedure.
type checkoutStore struct {
	models data.Models
}

// InTx runs fn against a view of the models bound to a single database
// transaction. Commit and rollback semantics come from data.Models.InTx.
func (s checkoutStore) InTx(ctx context.Context, fn func(tx checkout.Tx) error) error {
	return s.models.InTx(ctx, func(tx data.Models) error {
		return fn(checkoutTx{models: tx})
	})
}

// checkoutTx maps the checkout.Tx methods onto the transaction-bound models.
type checkoutTx struct {
	models data.Models
}

func (t checkoutTx) ReserveStock(ctx context.Context, bookID int64, quantity int) (*data.Book, error) {
	return t.models.Books.ReserveStock(ctx, bookID, quantity)
}

func (t checkoutTx) BookByID(ctx context.Context, id int64) (*data.Book, error) {
	return t.models.Books.Get(ctx, id)
}

func (t checkoutTx) UserByID(ctx context.Context, id int64) (*data.User, error) {
	return t.models.Users.Get(ctx, id)
}

func (t checkoutTx) UserByEmail(ctx context.Context, email string) (*data.User, error) {
	return t.models.Users.GetByEmail(ctx, email)
}

func (t checkoutTx) InsertUser(ctx context.Context, user *data.User) error {
	return t.models.Users.Insert(ctx, user)
}

func (t checkoutTx) AddSpending(ctx context.Context, userID int64, amount float64) (float64, error) {
	return t.models.Users.AddSpending(ctx, userID, amount)
}

func (t checkoutTx) InsertPurchase(ctx context.Context, purchase *data.Purchase) error {
	return t.models.Purchases.Insert(ctx, purchase)
}

func (t checkoutTx) PurchaseByKey(ctx context.Context, key uuid.UUID) (*data.Purchase, error) {
	return t.models.Purchases.GetByKey(ctx, key)
}
