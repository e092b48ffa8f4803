// Package middleware carries the HTTP-layer session guards. Guest
// identity comes from a JWT issued by the platform auth service; this
// core only verifies it.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lakayhq/lakay-bookings/pkg/auth"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

func bearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.URL.Query().Get("session_token")
}

func RequireGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			http.Error(w, "session token is required", http.StatusUnauthorized)
			return
		}
		claims, err := auth.Parse(tok)
		if err != nil || claims.Role != "guest" {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), CtxClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalGuestSession attaches claims when a valid token is present but
// lets the request through either way; handlers that also accept a
// manage token use this.
func OptionalGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearerToken(r); tok != "" {
			if claims, err := auth.Parse(tok); err == nil && claims.Role == "guest" {
				r = r.WithContext(context.WithValue(r.Context(), CtxClaims, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func Claims(r *http.Request) *auth.Claims {
	if v := r.Context().Value(CtxClaims); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
