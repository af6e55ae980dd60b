package access

import (
	_ "embed"
	"fmt"

	"github.com/cedar-policy/cedar-go"
)

//go:embed policies.cedar
var policiesContent []byte

// Actions evaluated against the policy set.
const (
	actionRouteAccess = "route:access"
	actionTeamAccess  = "team:access"
)

// loadPolicies parses the embedded Cedar policy set.
func loadPolicies() (*cedar.PolicySet, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policiesContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access policies: %w", err)
	}
	return ps, nil
}

// routePermitted evaluates the role gate for a protected route. The route
// entity carries the policy's role set (and whether it is open to any
// authenticated caller); the principal carries the resolved global role.
// Cedar answers permit or deny; what a denial turns into (redirect target,
// reason) stays with the caller.
func (e *Engine) routePermitted(identity *Identity, role GlobalRole, p RoutePolicy) bool {
	userUID := cedar.NewEntityUID("User", cedar.String(identity.UserID))
	routeUID := cedar.NewEntityUID("Route", cedar.String(p.Prefix))

	roleSet := make([]cedar.Value, 0, len(p.Roles))
	for _, r := range p.Roles {
		roleSet = append(roleSet, cedar.String(string(r)))
	}

	entities := cedar.EntityMap{
		userUID: cedar.Entity{
			UID:     userUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"role": cedar.String(string(role)),
			}),
		},
		routeUID: cedar.Entity{
			UID:     routeUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"open":  cedar.Boolean(len(p.Roles) == 0),
				"roles": cedar.NewSet(roleSet...),
			}),
		},
	}

	req := cedar.Request{
		Principal: userUID,
		Action:    cedar.NewEntityUID("Action", actionRouteAccess),
		Resource:  routeUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, diag := cedar.Authorize(e.policies, entities, req)
	e.logPolicyErrors(diag)
	return decision == cedar.Allow
}

// teamPermitted evaluates the minimum-rank gate for a team resource.
func (e *Engine) teamPermitted(identity *Identity, teamID string, role TeamRole, min TeamRole) bool {
	userUID := cedar.NewEntityUID("User", cedar.String(identity.UserID))
	teamUID := cedar.NewEntityUID("Team", cedar.String(teamID))

	entities := cedar.EntityMap{
		userUID: cedar.Entity{
			UID:     userUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"team_rank": cedar.Long(int64(role.Rank())),
			}),
		},
		teamUID: cedar.Entity{
			UID:     teamUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"required_rank": cedar.Long(int64(min.Rank())),
			}),
		},
	}

	req := cedar.Request{
		Principal: userUID,
		Action:    cedar.NewEntityUID("Action", actionTeamAccess),
		Resource:  teamUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, diag := cedar.Authorize(e.policies, entities, req)
	e.logPolicyErrors(diag)
	return decision == cedar.Allow
}

// logPolicyErrors surfaces policy evaluation errors. The decision itself
// already fell through as deny, so this is diagnostics, not control flow.
func (e *Engine) logPolicyErrors(diag cedar.Diagnostic) {
	for _, err := range diag.Errors {
		e.logger.Error("policy evaluation error",
			"policy", err.PolicyID,
			"error", err.Message,
		)
	}
}
