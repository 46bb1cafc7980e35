// Package checkout implements the purchase procedure: one buy action
// executed as a single consistent unit. It reserves inventory with an
// atomic conditional decrement, resolves or creates the buyer, applies the
// loyalty discount, appends to the purchase ledger, and updates the buyer's
// cumulative spend, all inside one store transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pagecount/bookstore-api/internal/data"
)

// ErrInvalidArgument is returned when a purchase request fails validation.
// No mutation has been attempted when this error is returned.
var ErrInvalidArgument = errors.New("invalid purchase request")

// Request carries everything needed to execute one purchase. Buyer identity
// is given as at most one of: an existing account ID, an email address, or a
// display name used to create a fresh account when nothing matches.
type Request struct {
	BookID   int64
	Quantity int

	// Buyer identity, in lookup priority order.
	UserID int64
	Email  string
	Name   string

	// IdempotencyKey, when supplied by the client, makes resubmission safe:
	// replaying a key returns the purchase recorded the first time instead
	// of charging again.
	IdempotencyKey *uuid.UUID
}

// validate rejects malformed requests before any state is touched.
func (r Request) validate() error {
	if r.BookID < 1 {
		return fmt.Errorf("%w: book id must be provided", ErrInvalidArgument)
	}
	if r.Quantity < MinQuantity || r.Quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must be between %d and %d", ErrInvalidArgument, MinQuantity, MaxQuantity)
	}
	return nil
}

// Result is what a completed purchase reports back to the caller.
type Result struct {
	Purchase       *data.Purchase
	NewStock       int
	UserTotalSpent float64

	// Replayed is true when the result was served from a previously
	// recorded purchase because the idempotency key had been seen before.
	Replayed bool
}

// Tx is the transactional store view the procedure runs against. The real
// implementation binds the data models to one database transaction; tests
// substitute an in-memory store honoring the same contracts, most
// importantly that ReserveStock is a single atomic conditional decrement.
type Tx interface {
	ReserveStock(ctx context.Context, bookID int64, quantity int) (*data.Book, error)
	BookByID(ctx context.Context, id int64) (*data.Book, error)
	UserByID(ctx context.Context, id int64) (*data.User, error)
	UserByEmail(ctx context.Context, email string) (*data.User, error)
	InsertUser(ctx context.Context, user *data.User) error
	AddSpending(ctx context.Context, userID int64, amount float64) (float64, error)
	InsertPurchase(ctx context.Context, purchase *data.Purchase) error
	PurchaseByKey(ctx context.Context, key uuid.UUID) (*data.Purchase, error)
}

// Store opens the transaction a purchase executes in. InTx must commit the
// work done through the Tx when fn returns nil and discard it otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Processor executes purchases against a Store.
type Processor struct {
	store  Store
	logger *slog.Logger
}

// NewProcessor returns a Processor backed by store.
func NewProcessor(store Store, logger *slog.Logger) *Processor {
	return &Processor{store: store, logger: logger}
}

// Process executes one purchase.
//
// Failure modes:
//   - ErrInvalidArgument: the request is malformed; nothing was touched.
//   - data.ErrInsufficientStock: the book is missing or understocked;
//     nothing was touched.
//   - anything else: a storage fault. The enclosing transaction has been
//     rolled back, so the stock reservation is undone along with it.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var result *Result

	err := p.store.InTx(ctx, func(tx Tx) error {
		// A replayed idempotency key short-circuits the whole procedure:
		// the client is retrying a purchase that already went through.
		if req.IdempotencyKey != nil {
			existing, err := tx.PurchaseByKey(ctx, *req.IdempotencyKey)
			switch {
			case err == nil:
				replayed, err := p.replay(ctx, tx, existing)
				if err != nil {
					return err
				}
				result = replayed
				return nil
			case errors.Is(err, data.ErrRecordNotFound):
				// Fresh key, proceed.
			default:
				return err
			}
		}

		// Step 1: reserve inventory. The conditional decrement is the only
		// cross-request ordering guarantee the procedure needs; everything
		// after it operates on rows no concurrent purchase is contending
		// for in a way that could oversell.
		book, err := tx.ReserveStock(ctx, req.BookID, req.Quantity)
		if err != nil {
			return err
		}

		// Step 2: resolve the buyer.
		user, err := p.resolveBuyer(ctx, tx, req)
		if err != nil {
			return err
		}

		// Steps 3 and 4: discount eligibility is judged on the spend total
		// read above, before this purchase's amount is added.
		rate := DiscountRate(user.TotalSpent)
		total := Total(book.Price, req.Quantity, rate)

		// Step 5: append to the ledger and update the buyer's spend.
		purchase := &data.Purchase{
			UserID:         user.ID,
			BookID:         book.ID,
			Quantity:       req.Quantity,
			TotalPrice:     total,
			DiscountRate:   rate,
			IdempotencyKey: req.IdempotencyKey,
		}
		if err := tx.InsertPurchase(ctx, purchase); err != nil {
			return err
		}

		newTotal, err := tx.AddSpending(ctx, user.ID, total)
		if err != nil {
			return err
		}

		result = &Result{
			Purchase:       purchase,
			NewStock:       book.Stock,
			UserTotalSpent: newTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Info("purchase completed",
			"purchase_id", result.Purchase.ID,
			"book_id", result.Purchase.BookID,
			"user_id", result.Purchase.UserID,
			"quantity", result.Purchase.Quantity,
			"total_price", result.Purchase.TotalPrice,
			"discount_rate", result.Purchase.DiscountRate,
			"replayed", result.Replayed,
		)
	}
	return result, nil
}

// resolveBuyer finds or creates the account the purchase belongs to, in
// priority order: explicit account ID, then email, then a brand-new account
// under the given name. A supplied ID or email that matches nothing simply
// falls through to the next option, matching the original system's
// behavior. Duplicate accounts under one email are tolerated by design.
func (p *Processor) resolveBuyer(ctx context.Context, tx Tx, req Request) (*data.User, error) {
	if req.UserID > 0 {
		user, err := tx.UserByID(ctx, req.UserID)
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, data.ErrRecordNotFound):
			// Fall through to email lookup.
		default:
			return nil, err
		}
	}

	if req.Email != "" {
		user, err := tx.UserByEmail(ctx, req.Email)
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, data.ErrRecordNotFound):
			// Fall through to account creation.
		default:
			return nil, err
		}
	}

	name := req.Name
	if name == "" {
		name = "Guest"
	}
	user := &data.User{Name: name, Email: req.Email}
	if err := tx.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// replay rebuilds a Result for a purchase that was already recorded under
// the request's idempotency key, reporting the current stock and spend
// totals rather than re-executing any step.
func (p *Processor) replay(ctx context.Context, tx Tx, purchase *data.Purchase) (*Result, error) {
	book, err := tx.BookByID(ctx, purchase.BookID)
	if err != nil {
		return nil, err
	}
	user, err := tx.UserByID(ctx, purchase.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Purchase:       purchase,
		NewStock:       book.Stock,
		UserTotalSpent: user.TotalSpent,
		Replayed:       true,
	}, nil
}
