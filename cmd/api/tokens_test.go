package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	app := newTestApplication()

	token, err := app.createSessionToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := app.parseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestSessionTokenRejectsWrongSecret(t *testing.T) {
	app := newTestApplication()

	token, err := app.createSessionToken(42)
	require.NoError(t, err)

	other := newTestApplication()
	other.config.jwt.secret = "a-different-secret"

	_, err = other.parseSessionToken(token)
	assert.Error(t, err)
}

func TestSessionTokenRejectsGarbage(t *testing.T) {
	app := newTestApplication()

	_, err := app.parseSessionToken("not.a.token")
	assert.Error(t, err)
}
