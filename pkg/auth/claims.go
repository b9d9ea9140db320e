package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims represents the typed JWT issued to the admin dashboard.
// The service has a single operator role, so the claims carry only the
// registered set plus a scope marker.
type AccessTokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeAdmin is the only scope minted today.
const ScopeAdmin = "admin"
