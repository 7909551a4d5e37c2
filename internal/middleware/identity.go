package middleware

import (
	"context"
	"net/http"
	"strings"
)

type actorKey struct{}

// ActorHeader carries the caller's email identity. Session management sits
// in front of this service, so the header is trusted as-is.
const ActorHeader = "X-Actor"

// IdentityMiddleware reads the actor header and stores it on the request
// context. Requests without the header pass through with an empty actor;
// handlers that need an identity reject those themselves.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor != "" {
			r = r.WithContext(context.WithValue(r.Context(), actorKey{}, actor))
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFromContext returns the actor set by IdentityMiddleware, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
