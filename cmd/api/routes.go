// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the application middleware. recoverPanic is outermost, then enableCORS,
// rateLimit, and authenticate, with the router innermost.
//
// Current endpoints:
//
//	GET    /v1/healthcheck         - service status
//	GET    /v1/books               - list/search the catalog
//	POST   /v1/books               - create a new book
//	POST   /v1/books/import        - bulk upsert books by ISBN
//	GET    /v1/books/:id           - retrieve a single book by ID
//	PATCH  /v1/books/:id           - partially update an existing book
//	DELETE /v1/books/:id           - delete a book by ID
//	POST   /v1/users/login         - login-or-register, returns a session token
//	GET    /v1/users/:id           - retrieve a user
//	GET    /v1/users/:id/purchases - purchase history, newest first
//	GET    /v1/users/:id/cart      - ten most recent purchases
//	POST   /v1/purchases           - execute a purchase
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Catalog routes
	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/v1/books", app.createBookHandler)
	router.HandlerFunc(http.MethodPost, "/v1/books/import", app.importBooksHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", app.deleteBookHandler)

	// Account routes
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id", app.showUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/purchases", app.listUserPurchasesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/cart", app.listUserCartHandler)

	// Purchase routes
	router.HandlerFunc(http.MethodPost, "/v1/purchases", app.createPurchaseHandler)

	// Wrap with middleware: recoverPanic is outermost so it catches panics
	// from the other middleware and the router alike.
	return app.recoverPanic(app.enableCORS(app.rateLimit(app.authenticate(router))))
}
