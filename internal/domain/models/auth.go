package models

import "github.com/golang-jwt/jwt/v5"

// Identity is the authenticated caller carried through every protected operation.
// It replaces any process-wide "current user" slot: services receive it explicitly.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// SessionClaims represents the JWT claims carried by a session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, exp, iat, jti, etc.)
	Username             string `json:"username"`
}
