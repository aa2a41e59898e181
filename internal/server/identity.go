package server

import (
	"context"
	"net/http"
	"strings"
)

// Caller identity headers. An upstream gateway authenticates the user and
// forwards these.
const (
	headerUserID = "X-User-ID"
	headerTeamID = "X-Team-ID"
)

// Identity is the caller a request acts for.
type Identity struct {
	UserID string
	TeamID string
}

type identityKey struct{}

// identityMiddleware requires X-User-ID and stores the caller in the request
// context.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID: strings.TrimSpace(r.Header.Get(headerUserID)),
			TeamID: strings.TrimSpace(r.Header.Get(headerTeamID)),
		}
		if id.UserID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+headerUserID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// identityFrom returns the caller stored by identityMiddleware.
func identityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
