package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cedar-policy/cedar-go"
)

// Identity is an authenticated caller: an opaque subject id plus the raw
// session credential it was resolved from. Immutable within a request.
type Identity struct {
	UserID     string
	Credential string
}

// IdentityResolver turns an inbound session credential into an identity.
//
// Resolve returns the identity, or nil when the credential is missing,
// invalid, or the provider fails; provider errors never propagate past the
// resolver as anything but "no identity". The second return value is a
// refreshed credential when the provider rotated the session token as a
// side effect of resolution, empty otherwise.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, string, error)
}

// RoleStore looks up roles. Pure reads, no policy.
type RoleStore interface {
	// GlobalRole returns the account-wide role for a user.
	GlobalRole(ctx context.Context, userID string) (GlobalRole, error)

	// TeamRole returns the caller's role inside one team, or ErrNotAMember
	// when no membership exists.
	TeamRole(ctx context.Context, teamID, userID string) (TeamRole, error)
}

// defaultLookupTimeout bounds each resolver and role store round-trip.
// Timeouts surface as lookup errors and fail closed.
const defaultLookupTimeout = 5 * time.Second

// Engine computes access decisions. It holds no per-request state; every
// decision is a pure function of the request inputs and the collaborator
// responses, so one Engine serves all requests concurrently.
//
// Admission checks (is this role in the route's role set, does this team
// rank meet the minimum) are evaluated against the embedded Cedar policy
// set; routing, redirect-target selection, and refresh propagation stay
// in the Go pipeline.
type Engine struct {
	routes        *RouteTable
	resolver      IdentityResolver
	roles         RoleStore
	policies      *cedar.PolicySet
	logger        *slog.Logger
	lookupTimeout time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the decision logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithLookupTimeout overrides the collaborator round-trip bound.
func WithLookupTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.lookupTimeout = d }
}

// NewEngine creates an access decision engine over the given collaborators.
// It fails only when the embedded policy set does not parse, which is a
// build defect, not a runtime condition.
func NewEngine(routes *RouteTable, resolver IdentityResolver, roles RoleStore, opts ...EngineOption) (*Engine, error) {
	policies, err := loadPolicies()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		routes:        routes,
		resolver:      resolver,
		roles:         roles,
		policies:      policies,
		logger:        slog.Default(),
		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Authorize decides whether the request for path, carrying credential, may
// proceed. The pipeline, in order:
//
//  1. Resolve the identity. This runs unconditionally so a session
//     rotation is never missed, and the refreshed credential is carried on
//     the returned Decision whatever the outcome.
//  2. An authenticated caller on an auth page is bounced to its role home,
//     regardless of the page's own protection status.
//  3. The root path dispatches to the role home, or to login.
//  4. Classify the path. No matching policy, or an unprotected policy,
//     allows the request through.
//  5. Protected with no identity redirects to login.
//  6. Protected with a role set consults the role store; lookup failure
//     redirects to login (fail-closed), a role outside the set redirects
//     to the caller's own home, a role inside it allows.
func (e *Engine) Authorize(ctx context.Context, path, credential string) Decision {
	start := time.Now()

	identity, refreshed := e.resolveIdentity(ctx, credential)

	d := e.decide(ctx, path, identity).withRefresh(refreshed)
	d.Identity = identity
	e.logDecision(path, identity, d, time.Since(start))
	return d
}

func (e *Engine) decide(ctx context.Context, path string, identity *Identity) Decision {
	// Authenticated callers never see auth pages. A failed role lookup here
	// degrades to the unauthenticated view of the page rather than
	// redirecting: the login page is already the fail-closed destination,
	// and bouncing to it from itself would loop.
	if IsAuthPage(path) {
		if identity == nil {
			return allow(ReasonUnprotected)
		}
		role, err := e.globalRole(ctx, identity)
		if err != nil {
			return allow(ReasonUnprotected)
		}
		return redirect(role.HomePath(), ReasonAuthPageBounce).withRole(role)
	}

	// Root dispatch: senders of "/" always land somewhere specific.
	if path == "/" {
		if identity == nil {
			return redirect(PathLogin, ReasonRootDispatch)
		}
		role, err := e.globalRole(ctx, identity)
		if err != nil {
			return redirect(PathLogin, ReasonRoleLookupFailed)
		}
		return redirect(role.HomePath(), ReasonRootDispatch).withRole(role)
	}

	policy, matched := e.routes.Match(path)
	if !matched || !policy.Protected {
		return allow(ReasonUnprotected)
	}

	if identity == nil {
		return redirect(PathLogin, ReasonUnauthenticated)
	}

	// Open protected routes admit any authenticated caller without a role
	// lookup; role-gated routes resolve the role first.
	role := GlobalRole("")
	if len(policy.Roles) > 0 {
		var err error
		role, err = e.globalRole(ctx, identity)
		if err != nil {
			return redirect(PathLogin, ReasonRoleLookupFailed)
		}
	}

	if !e.routePermitted(identity, role, policy) {
		return redirect(role.HomePath(), ReasonInsufficientRole).withRole(role)
	}
	if len(policy.Roles) > 0 {
		return allow(ReasonAuthorized).withRole(role)
	}
	return allow(ReasonAuthorized)
}

// resolveIdentity runs the identity resolver under the lookup timeout.
// Every failure mode collapses to "no identity"; only a successful
// resolution can authenticate.
func (e *Engine) resolveIdentity(ctx context.Context, credential string) (*Identity, string) {
	if credential == "" {
		return nil, ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	identity, refreshed, err := e.resolver.Resolve(lookupCtx, credential)
	if err != nil {
		e.logger.Warn("identity resolution failed", "error", err)
		return nil, ""
	}
	return identity, refreshed
}

func (e *Engine) globalRole(ctx context.Context, identity *Identity) (GlobalRole, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	role, err := e.roles.GlobalRole(lookupCtx, identity.UserID)
	if err != nil {
		e.logger.Warn("global role lookup failed",
			"user", identity.UserID,
			"error", err,
		)
		return "", err
	}
	return role, nil
}

// logDecision emits the structured decision record.
func (e *Engine) logDecision(path string, identity *Identity, d Decision, duration time.Duration) {
	userID := ""
	if identity != nil {
		userID = identity.UserID
	}
	e.logger.Info("access decision",
		"path", path,
		"decision", string(d.Kind),
		"reason", string(d.Reason),
		"location", d.Location,
		"user", userID,
		"role", string(d.Role),
		"session_refreshed", d.RefreshedCredential != "",
		"duration_us", duration.Microseconds(),
	)
}

// RequireTeamRole evaluates a minimum-role requirement for a team-scoped
// resource. It composes with, and does not replace, the global role gate
// the route table already applied: callers reach this check only after
// Authorize allowed the route.
//
// No membership forbids; a membership below min forbids; a store failure
// fails closed to login, mirroring Authorize.
func (e *Engine) RequireTeamRole(ctx context.Context, identity *Identity, teamID string, min TeamRole) Decision {
	if identity == nil {
		return redirect(PathLogin, ReasonUnauthenticated)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	role, err := e.roles.TeamRole(lookupCtx, teamID, identity.UserID)
	switch {
	case errors.Is(err, ErrNotAMember):
		e.logger.Info("team access denied",
			"user", identity.UserID,
			"team", teamID,
			"reason", "not a member",
		)
		return forbid(ReasonNotTeamMember)
	case err != nil:
		e.logger.Warn("team role lookup failed",
			"user", identity.UserID,
			"team", teamID,
			"error", err,
		)
		return redirect(PathLogin, ReasonRoleLookupFailed)
	}

	if !e.teamPermitted(identity, teamID, role, min) {
		e.logger.Info("team access denied",
			"user", identity.UserID,
			"team", teamID,
			"team_role", string(role),
			"required", string(min),
		)
		return forbid(ReasonInsufficientTeamRole)
	}
	return allow(ReasonAuthorized)
}
