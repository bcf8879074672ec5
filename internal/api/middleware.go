package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quantumlife/dayplan/internal/core"
)

// UserIDHeader carries the caller's identity. Authentication happens
// upstream; the API trusts the header.
const UserIDHeader = "X-User-ID"

type ctxKey struct{}

// RequireUser rejects requests without a user id with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "missing " + UserIDHeader + " header"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, core.UserID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the user id stored by RequireUser.
func UserFrom(ctx context.Context) core.UserID {
	id, _ := ctx.Value(ctxKey{}).(core.UserID)
	return id
}
