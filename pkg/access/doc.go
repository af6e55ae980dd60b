// Package access implements the request-time authorization engine for the
// dashboard.
//
// Every inbound request flows through a single decision pipeline: the route
// classifier matches the path against an ordered policy table, the identity
// resolver turns the session credential into an identity (possibly rotating
// the session token as a side effect), and the engine computes exactly one
// of Allow, Redirect, or Forbidden. All authorization decisions in the
// system flow through Engine.Authorize and Engine.RequireTeamRole; no
// handler makes its own decision. The admission checks themselves (role
// in route role set, team rank against minimum) are Cedar policies
// embedded from policies.cedar; the engine maps Cedar's permit/deny onto
// the redirect and refresh semantics.
//
// The engine is fail-closed: any lookup failure (identity provider error,
// role store error, timeout) resolves to a redirect to the login page,
// never to Allow. The one deliberate open default is routes that match no
// policy entry at all, which pass through unprotected; see
// DefaultRoutePolicies for the rationale.
//
// Session token rotation deserves a warning: a refreshed credential
// produced during identity resolution is carried on the Decision and must
// be written to the response on every exit path, including redirects and
// denials. Dropping it on a redirect silently logs the user out.
package access
