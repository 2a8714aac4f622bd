package testutil

import (
	"net/http"

	id "solidarlink/pkg/domain"
	"solidarlink/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request context, the way
// the auth middleware would after validating a token.
func WithActor(req *http.Request, userID id.UserID, role id.Role) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// ActorMiddleware injects a fixed actor into every request. Handler tests use
// it in place of the real auth middleware.
func ActorMiddleware(userID id.UserID, role id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithActor(r, userID, role))
		})
	}
}
