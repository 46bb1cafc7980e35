// cmd/api/users.go
// This file contains the HTTP request handlers for buyer accounts.
package main

import (
	"errors"
	"net/http"

	"github.com/pagecount/bookstore-api/internal/data"
	"github.com/pagecount/bookstore-api/internal/validator"
)

// loginUserHandler handles POST /v1/users/login.
// It implements a login-or-register pattern: the account matching the email
// is reused (updating its display name if that changed), otherwise a new
// account is created. The response carries the user and a signed session
// token the client presents on later requests.
func (app *applicationDependencies) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input data.LoginInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if data.ValidateLogin(v, input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByEmail(r.Context(), input.Email)
	switch {
	case err == nil:
		// Existing account; keep the stored name in sync with the login.
		if user.Name != input.Name {
			err = app.models.Users.UpdateName(r.Context(), user.ID, input.Name)
			if err != nil {
				app.serverErrorResponse(w, r, err)
				return
			}
			user.Name = input.Name
		}
	case errors.Is(err, data.ErrRecordNotFound):
		user = &data.User{Name: input.Name, Email: input.Email}
		err = app.models.Users.Insert(r.Context(), user)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	default:
		app.serverErrorResponse(w, r, err)
		return
	}

	token, err := app.createSessionToken(user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showUserHandler handles GET /v1/users/:id.
func (app *applicationDependencies) showUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.models.Users.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
