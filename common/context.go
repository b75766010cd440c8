package common

type contextKey string

// AuthInfoKey is the request context key under which the JWT middleware
// stores the authenticated user's claims.
const AuthInfoKey contextKey = "authInfo"
