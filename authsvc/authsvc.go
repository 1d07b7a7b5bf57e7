package authsvc

import (
	"os"
)

var AccessSecret = getEnv("ACCESS_SECRET", "access-secret")

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

type contextKey string

// AuthContextKey carries a resolved identity through the context when the
// transport does not go through the JWT parser (public deployment profile).
const AuthContextKey contextKey = "Auth"
