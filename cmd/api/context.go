// cmd/api/context.go
// Helpers for stashing the authenticated user's ID on the request context.
package main

import (
	"context"
	"net/http"
)

// contextKey is a private type so our context keys can never collide with
// keys set by other packages.
type contextKey string

// userIDContextKey is the key under which the authenticated user's ID is stored.
const userIDContextKey = contextKey("userID")

// contextSetUserID returns a copy of the request whose context carries the
// authenticated user's ID.
func (app *applicationDependencies) contextSetUserID(r *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(r.Context(), userIDContextKey, userID)
	return r.WithContext(ctx)
}

// contextGetUserID returns the authenticated user's ID, or 0 when the
// request is anonymous.
func (app *applicationDependencies) contextGetUserID(r *http.Request) int64 {
	userID, ok := r.Context().Value(userIDContextKey).(int64)
	if !ok {
		return 0
	}
	return userID
}
