package access

// DecisionKind tags the outcome of an authorization check.
type DecisionKind string

const (
	DecisionAllow    DecisionKind = "allow"
	DecisionRedirect DecisionKind = "redirect"
	DecisionForbid   DecisionKind = "forbid"
)

// ReasonType classifies why a decision was reached. Middleware and handlers
// branch on this type, never on free-form reason strings.
type ReasonType string

const (
	ReasonUnprotected          ReasonType = "unprotected"
	ReasonAuthorized           ReasonType = "authorized"
	ReasonUnauthenticated      ReasonType = "unauthenticated"
	ReasonRoleLookupFailed     ReasonType = "role_lookup_failed"
	ReasonInsufficientRole     ReasonType = "insufficient_role"
	ReasonAuthPageBounce       ReasonType = "auth_page_bounce"
	ReasonRootDispatch         ReasonType = "root_dispatch"
	ReasonNotTeamMember        ReasonType = "not_team_member"
	ReasonInsufficientTeamRole ReasonType = "insufficient_team_role"
)

// Decision is the tagged result of an authorization check. It is never a
// bare boolean: redirects carry their target and every decision carries the
// reason it was reached, so callers can act and tests can assert without
// re-deriving state.
//
// RefreshedCredential is the session-rotation side effect of identity
// resolution. When non-empty it must be written to the response no matter
// which Kind was reached; see the package comment.
type Decision struct {
	Kind     DecisionKind
	Location string     // redirect target, set iff Kind == DecisionRedirect
	Reason   ReasonType // why this outcome was reached
	Role     GlobalRole // resolved global role, when a lookup succeeded

	// Identity is the resolved caller, nil when unauthenticated. Set on
	// every decision kind so downstream handlers and audit logging see who
	// was denied, not just who was allowed.
	Identity *Identity

	RefreshedCredential string
}

// Allowed reports whether the request may proceed to its handler.
func (d Decision) Allowed() bool { return d.Kind == DecisionAllow }

func allow(reason ReasonType) Decision {
	return Decision{Kind: DecisionAllow, Reason: reason}
}

func redirect(location string, reason ReasonType) Decision {
	return Decision{Kind: DecisionRedirect, Location: location, Reason: reason}
}

func forbid(reason ReasonType) Decision {
	return Decision{Kind: DecisionForbid, Reason: reason}
}

// withRefresh threads the session-rotation side effect onto a decision.
func (d Decision) withRefresh(credential string) Decision {
	d.RefreshedCredential = credential
	return d
}

// withRole records the resolved role on a decision.
func (d Decision) withRole(role GlobalRole) Decision {
	d.Role = role
	return d
}
