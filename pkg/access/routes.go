package access

import (
	"fmt"
	"strings"
)

// RoutePolicy maps a path prefix to its protection requirement.
//
// Roles is the set of global roles allowed past the prefix. An empty set on
// a protected entry means any authenticated user may pass.
type RoutePolicy struct {
	Prefix    string
	Protected bool
	Roles     []GlobalRole
}

// RouteTable is an ordered route policy list. Matching is first-defined-
// prefix-wins: entries are checked in declaration order and the first whose
// prefix is a string prefix of the path applies. Overlapping prefixes must
// therefore be declared most-specific-first; the table never reorders or
// computes longest-prefix on its own. Validate flags declarations that
// break this invariant.
type RouteTable struct {
	policies []RoutePolicy
}

// NewRouteTable builds a table from policies, preserving declaration order.
func NewRouteTable(policies []RoutePolicy) *RouteTable {
	return &RouteTable{policies: append([]RoutePolicy(nil), policies...)}
}

// Match classifies path against the table. It returns the first matching
// policy, or ok=false when no entry matches; unmatched paths are
// unprotected by design (static assets and public pages share the host).
// Matching is deterministic: the same path and table always yield the same
// entry.
func (t *RouteTable) Match(path string) (RoutePolicy, bool) {
	for _, p := range t.policies {
		if strings.HasPrefix(path, p.Prefix) {
			return p, true
		}
	}
	return RoutePolicy{}, false
}

// Validate reports configuration mistakes: entries shadowed by an earlier,
// more general prefix (which can never match), empty prefixes, and unknown
// role names. Run once at startup; a non-empty result is a deploy-time bug,
// not a request-time condition.
func (t *RouteTable) Validate() []error {
	var errs []error
	for i, p := range t.policies {
		if p.Prefix == "" || !strings.HasPrefix(p.Prefix, "/") {
			errs = append(errs, fmt.Errorf("route policy %d: prefix %q must start with /", i, p.Prefix))
		}
		for _, r := range p.Roles {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("route policy %d (%s): unknown role %q", i, p.Prefix, r))
			}
		}
		for j := 0; j < i; j++ {
			if strings.HasPrefix(p.Prefix, t.policies[j].Prefix) {
				errs = append(errs, fmt.Errorf(
					"route policy %d (%s) is shadowed by earlier entry %d (%s) and can never match",
					i, p.Prefix, j, t.policies[j].Prefix))
			}
		}
	}
	return errs
}

// Policies returns the table entries in declaration order.
func (t *RouteTable) Policies() []RoutePolicy {
	return append([]RoutePolicy(nil), t.policies...)
}

// authPages are the authentication pages an already-authenticated caller is
// always redirected away from.
var authPages = []string{
	"/login",
	"/signup",
	"/forgot-password",
	"/reset-password",
}

// IsAuthPage reports whether path is one of the authentication pages.
func IsAuthPage(path string) bool {
	for _, p := range authPages {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// DefaultRoutePolicies is the dashboard's route table, most-specific-first.
//
// Anything that matches no entry (marketing pages, static assets, auth
// pages) passes through unprotected. That open default is deliberate and
// mirrors the observed behavior of the product; flip it only as a conscious
// policy change.
func DefaultRoutePolicies() []RoutePolicy {
	return []RoutePolicy{
		// API surface. Admin-scoped API routes before the general prefix.
		{Prefix: "/api/v1/admin", Protected: true, Roles: []GlobalRole{RoleAdmin, RoleSuperAdmin}},
		{Prefix: "/api/v1/auth", Protected: false},
		{Prefix: "/api/v1", Protected: true},

		// Dashboard pages, role-gated homes first.
		{Prefix: PathSuperAdminHome, Protected: true, Roles: []GlobalRole{RoleSuperAdmin}},
		{Prefix: PathAdminHome, Protected: true, Roles: []GlobalRole{RoleAdmin, RoleTeamAdmin}},
		{Prefix: PathUserHome, Protected: true},
		{Prefix: "/dashboard", Protected: true},
		{Prefix: "/settings", Protected: true},
		{Prefix: "/teams", Protected: true},

		// Inbound webhooks authenticate with provider signatures, not
		// sessions, so they stay outside the session gate.
		{Prefix: "/webhooks", Protected: false},
		{Prefix: "/health", Protected: false},
	}
}
