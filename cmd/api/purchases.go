// cmd/api/purchases.go
// This file contains the HTTP request handlers for the purchase flow.
package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pagecount/bookstore-api/internal/checkout"
	"github.com/pagecount/bookstore-api/internal/data"
	"github.com/pagecount/bookstore-api/internal/validator"
)

// createPurchaseHandler handles POST /v1/purchases.
// Buyer identity comes from the session token when present, otherwise from
// the user_id/email/name fields in the body. The checkout processor owns
// the whole procedure; this handler only translates its outcomes onto the
// HTTP boundary: validation failures and malformed input are client errors,
// insufficient stock is a 409 the client may retry with a smaller quantity,
// and anything else is a 500.
func (app *applicationDependencies) createPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BookID         int64      `json:"book_id"`
		Quantity       int        `json:"quantity"`
		UserID         int64      `json:"user_id"`
		Name           string     `json:"name"`
		Email          string     `json:"email"`
		IdempotencyKey *uuid.UUID `json:"idempotency_key"`
	}

	// A non-integer quantity (or any other malformed field) fails here,
	// before the procedure runs, so nothing has been mutated.
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.BookID > 0, "book_id", "must be provided")
	v.Check(input.Quantity >= checkout.MinQuantity, "quantity", "must be at least 1")
	v.Check(input.Quantity <= checkout.MaxQuantity, "quantity", "must be at most 5")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	// The session token wins over a user_id supplied in the body.
	userID := input.UserID
	if tokenUserID := app.contextGetUserID(r); tokenUserID != 0 {
		userID = tokenUserID
	}

	result, err := app.checkout.Process(r.Context(), checkout.Request{
		BookID:         input.BookID,
		Quantity:       input.Quantity,
		UserID:         userID,
		Email:          input.Email,
		Name:           input.Name,
		IdempotencyKey: input.IdempotencyKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidArgument):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, data.ErrInsufficientStock):
			app.insufficientStockResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		// The idempotency key matched an earlier purchase; nothing new was
		// created, so report the replay rather than a fresh creation.
		status = http.StatusOK
	}

	response := envelope{
		"purchase":         result.Purchase,
		"new_stock":        result.NewStock,
		"user_total_spent": result.UserTotalSpent,
	}

	err = app.writeJSON(w, status, response, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUserPurchasesHandler handles GET /v1/users/:id/purchases.
// It returns the user's full purchase history, newest first, with the
// referenced book populated on each record.
func (app *applicationDependencies) listUserPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	purchases, err := app.models.Purchases.AllForUser(r.Context(), id, 0)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"purchases": purchases}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// cartSize is how many recent purchases the cart endpoint returns. The
// ledger has no paid/unpaid flag, so "cart" is simulated from the most
// recent activity, exactly as the original system did.
const cartSize = 10

// listUserCartHandler handles GET /v1/users/:id/cart.
func (app *applicationDependencies) listUserCartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	purchases, err := app.models.Purchases.AllForUser(r.Context(), id, cartSize)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"purchases": purchases}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
