package api

import (
	"context"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// Context key for the authenticated identity.
type contextKey string

const contextKeyIdentity contextKey = "identity"

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, identity *access.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext returns the authenticated identity, or nil when the
// request passed through an unprotected route.
func IdentityFromContext(ctx context.Context) *access.Identity {
	if v, ok := ctx.Value(contextKeyIdentity).(*access.Identity); ok {
		return v
	}
	return nil
}
