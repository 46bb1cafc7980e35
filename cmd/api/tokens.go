// cmd/api/tokens.go
// Session tokens are stateless HS256 JWTs carrying the user ID. They replace
// the ad hoc client-side session storage of the original frontend: the API
// only ever sees a resolved buyer identity, never a persistence mechanism.
package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// sessionTokenTTL is how long a login session stays valid.
const sessionTokenTTL = 24 * time.Hour

// createSessionToken signs a token identifying userID.
func (app *applicationDependencies) createSessionToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(sessionTokenTTL).Unix(),
		"iss": "bookstore-api",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(app.config.jwt.secret))
}

// parseSessionToken verifies raw and extracts the user ID it identifies.
func (app *applicationDependencies) parseSessionToken(raw string) (int64, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		// Reject tokens signed with anything but our HMAC method; without
		// this check a forged token could name an arbitrary algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(app.config.jwt.secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	subject, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing subject claim")
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID < 1 {
		return 0, errors.New("invalid subject claim")
	}
	return userID, nil
}
