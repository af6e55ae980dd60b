package api

import (
	"context"
	"fmt"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/session"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

// StoreIdentityResolver resolves session credentials against the session
// manager and the user store. A credential authenticates only when its
// signature verifies AND the subject is an existing, active account;
// suspension takes effect on the next request, not at the next login.
type StoreIdentityResolver struct {
	sessions *session.Manager
	store    *store.Store
}

// NewStoreIdentityResolver creates the production identity resolver.
func NewStoreIdentityResolver(sessions *session.Manager, st *store.Store) *StoreIdentityResolver {
	return &StoreIdentityResolver{sessions: sessions, store: st}
}

// Resolve implements access.IdentityResolver. The refreshed credential from
// a session rotation is passed through untouched; the engine owns getting
// it onto the response.
func (r *StoreIdentityResolver) Resolve(_ context.Context, credential string) (*access.Identity, string, error) {
	userID, refreshed, err := r.sessions.Resolve(credential)
	if err != nil {
		return nil, "", fmt.Errorf("session resolution failed: %w", err)
	}

	user, err := r.store.GetUser(userID)
	if err != nil {
		return nil, "", fmt.Errorf("session subject lookup failed: %w", err)
	}
	if user.Status != "active" {
		return nil, "", fmt.Errorf("account %s is %s", user.ID, user.Status)
	}

	return &access.Identity{UserID: user.ID, Credential: credential}, refreshed, nil
}
