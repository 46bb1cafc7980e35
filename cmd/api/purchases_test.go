package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApplication builds an applicationDependencies with a discard
// logger and no database. Only handler paths that never reach the models
// may be exercised with it.
func newTestApplication() *applicationDependencies {
	app := &applicationDependencies{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	app.config.environment = "test"
	app.config.jwt.secret = "test-secret-do-not-use"
	return app
}

func TestCreatePurchaseHandlerRejectsNonIntegerQuantity(t *testing.T) {
	app := newTestApplication()

	// Quantity arrives as a string, which the strict JSON decoder rejects
	// before the purchase procedure can run.
	body := `{"book_id": 1, "quantity": "abc"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()

	app.createPurchaseHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePurchaseHandlerRejectsFractionalQuantity(t *testing.T) {
	app := newTestApplication()

	body := `{"book_id": 1, "quantity": 1.5}`
	r := httptest.NewRequest(http.MethodPost, "/v1/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()

	app.createPurchaseHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePurchaseHandlerValidatesQuantityBounds(t *testing.T) {
	app := newTestApplication()

	tests := []struct {
		name string
		body string
	}{
		{"zero quantity", `{"book_id": 1, "quantity": 0}`},
		{"negative quantity", `{"book_id": 1, "quantity": -1}`},
		{"quantity too large", `{"book_id": 1, "quantity": 6}`},
		{"missing book id", `{"quantity": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/purchases", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			app.createPurchaseHandler(w, r)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestCreatePurchaseHandlerRejectsUnknownFields(t *testing.T) {
	app := newTestApplication()

	body := `{"book_id": 1, "quantity": 2, "surprise": true}`
	r := httptest.NewRequest(http.MethodPost, "/v1/purchases", strings.NewReader(body))
	w := httptest.NewRecorder()

	app.createPurchaseHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthcheckHandler(t *testing.T) {
	app := newTestApplication()

	r := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
	w := httptest.NewRecorder()

	app.healthcheckHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"status": "available"`)
	assert.Contains(t, w.Body.String(), `"environment": "test"`)
}
