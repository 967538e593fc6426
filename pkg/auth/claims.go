package auth

import "github.com/golang-jwt/jwt/v5"

// ScopeAdmin grants access to the operator endpoints.
const ScopeAdmin = "admin"

// AdminClaims is the JWT carried by operators calling admin endpoints.
type AdminClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}
