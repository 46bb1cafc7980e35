// cmd/api/books.go
// This file contains all HTTP request handlers for the catalog resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and database models.
package main

import (
	"errors"
	"net/http"

	"github.com/pagecount/bookstore-api/internal/data"
	"github.com/pagecount/bookstore-api/internal/validator"
)

// createBookHandler handles POST /v1/books.
// The body is accepted as a loose record so both field-name casings work;
// it is normalized, validated, inserted, and echoed back with a 201 status.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var record data.BookRecord

	err := app.readJSON(w, r, &record)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := record.Normalize()

	v := validator.New()
	if data.ValidateBook(v, &book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Insert(r.Context(), &book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateISBN):
			v.AddError("isbn", "a book with this ISBN already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// A free-text "search" query parameter matches title, author, or category;
// otherwise the per-field "title", "author", and "category" parameters are
// combined. Results are sorted ascending by title.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	filters := data.BookFilters{
		Search:   app.readString(qs, "search", ""),
		Title:    app.readString(qs, "title", ""),
		Author:   app.readString(qs, "author", ""),
		Category: app.readString(qs, "category", ""),
	}

	books, err := app.models.Books.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PATCH /v1/books/:id.
// It reads a partial JSON body (UpdateBookInput), fetches the existing book,
// applies only the non-nil fields from the input, and saves the changes.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input data.UpdateBookInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Apply only the fields that were actually provided in the request body.
	// Each field is a pointer; nil means "not provided, leave as-is".
	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.Category != nil {
		book.Category = *input.Category
	}
	if input.Price != nil {
		book.Price = *input.Price
	}
	if input.Stock != nil {
		book.Stock = *input.Stock
	}

	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Update(r.Context(), book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrDuplicateISBN):
			v.AddError("isbn", "a book with this ISBN already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /v1/books/:id.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Books.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// importBooksHandler handles POST /v1/books/import.
// The body is a JSON array of loosely-typed book records in either field
// casing. Each record is normalized and upserted by ISBN, so re-importing a
// file refreshes prices and stock instead of duplicating books. Records
// that fail validation are skipped and counted separately.
func (app *applicationDependencies) importBooksHandler(w http.ResponseWriter, r *http.Request) {
	// Import payloads can be large; allow up to 10 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 10_485_760)

	records, err := data.DecodeBookRecords(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	imported, skipped := 0, 0
	for _, record := range records {
		book := record.Normalize()

		v := validator.New()
		if data.ValidateBook(v, &book); !v.Valid() {
			skipped++
			continue
		}

		err = app.models.Books.Upsert(r.Context(), &book)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		imported++
	}

	app.logger.Info("bulk import finished", "imported", imported, "skipped", skipped)

	err = app.writeJSON(w, http.StatusOK, envelope{"imported": imported, "skipped": skipped}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
