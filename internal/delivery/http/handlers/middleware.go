package handlers

import (
	"context"
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

type callerKey struct{}

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}

// JWTAuthMiddleware rejects requests without a valid bearer token and stores the
// caller in the request context.
func (h *HTTPEscrowHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.Verifier.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func caller(r *http.Request) domain.Caller {
	c, _ := CallerFromContext(r.Context())
	return c
}
