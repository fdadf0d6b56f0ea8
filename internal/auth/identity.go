package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"docsync/internal/models"
)

var parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, keyFunc)
}

// Resolver maps an inbound upgrade request to a user id. The realtime layer
// never rejects unauthenticated callers: anything that fails to verify
// resolves to models.AnonymousUser.
type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve extracts a bearer token from the Authorization header or the
// "token" query parameter and returns the verified subject claim.
func (r *Resolver) Resolve(req *http.Request) string {
	tokenStr := tokenFromRequest(req)
	if tokenStr == "" || len(r.secret) == 0 {
		return models.AnonymousUser
	}

	token, err := parseJWT(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return models.AnonymousUser
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.AnonymousUser
	}
	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.AnonymousUser
	}
	return userID
}

func tokenFromRequest(req *http.Request) string {
	if authz := req.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	// Browser WebSocket clients cannot set headers, so the token may ride
	// in the query string instead.
	return req.URL.Query().Get("token")
}

// userIDFromClaims extracts the "sub" (user ID) from claims safely as a string.
func userIDFromClaims(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"]
	if !ok {
		return "", errors.New("missing sub claim")
	}

	switch v := sub.(type) {
	case string:
		return v, nil
	case float64:
		// JWT numbers get decoded as float64
		return fmt.Sprintf("%d", int64(v)), nil
	default:
		return "", errors.New("invalid sub claim type")
	}
}
