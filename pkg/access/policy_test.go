package access

import (
	"testing"

	"github.com/cedar-policy/cedar-go"
)

func mustLoadPolicies(t *testing.T) *cedar.PolicySet {
	t.Helper()
	ps, err := loadPolicies()
	if err != nil {
		t.Fatalf("failed to parse policies.cedar: %v", err)
	}
	return ps
}

func routeRequest(role GlobalRole, routeRoles []GlobalRole) (cedar.EntityMap, cedar.Request) {
	userUID := cedar.NewEntityUID("User", "usr_test")
	routeUID := cedar.NewEntityUID("Route", "/gated")

	roleSet := make([]cedar.Value, 0, len(routeRoles))
	for _, r := range routeRoles {
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
				"open":  cedar.Boolean(len(routeRoles) == 0),
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
	return entities, req
}

func teamRequest(rank, requiredRank int64) (cedar.EntityMap, cedar.Request) {
	userUID := cedar.NewEntityUID("User", "usr_test")
	teamUID := cedar.NewEntityUID("Team", "team_test")

	entities := cedar.EntityMap{
		userUID: cedar.Entity{
			UID:     userUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"team_rank": cedar.Long(rank),
			}),
		},
		teamUID: cedar.Entity{
			UID:     teamUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"required_rank": cedar.Long(requiredRank),
			}),
		},
	}
	req := cedar.Request{
		Principal: userUID,
		Action:    cedar.NewEntityUID("Action", actionTeamAccess),
		Resource:  teamUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}
	return entities, req
}

func TestRouteAccessPolicies(t *testing.T) {
	t.Parallel()

	ps := mustLoadPolicies(t)

	t.Run("role in set permits", func(t *testing.T) {
		t.Log("Testing: role inside the route's role set is permitted")

		entities, req := routeRequest(RoleTeamAdmin, []GlobalRole{RoleAdmin, RoleTeamAdmin})
		decision, diag := cedar.Authorize(ps, entities, req)
		t.Logf("Decision: %v, Reasons: %v, Errors: %v", decision, diag.Reasons, diag.Errors)

		if decision != cedar.Allow {
			t.Error("expected permit for role inside the role set")
		}
	})

	t.Run("role outside set denies", func(t *testing.T) {
		t.Log("Testing: role outside the route's role set is denied")

		entities, req := routeRequest(RoleUser, []GlobalRole{RoleAdmin, RoleSuperAdmin})
		decision, diag := cedar.Authorize(ps, entities, req)
		t.Logf("Decision: %v, Reasons: %v", decision, diag.Reasons)

		if decision == cedar.Allow {
			t.Error("expected deny for role outside the role set")
		}
	})

	t.Run("open route permits any role", func(t *testing.T) {
		t.Log("Testing: a route without a role set admits any authenticated caller")

		entities, req := routeRequest("", nil)
		decision, diag := cedar.Authorize(ps, entities, req)
		t.Logf("Decision: %v, Reasons: %v", decision, diag.Reasons)

		if decision != cedar.Allow {
			t.Error("expected permit on an open route")
		}
	})

	t.Run("unknown role denies on gated route", func(t *testing.T) {
		entities, req := routeRequest(GlobalRole("intern"), []GlobalRole{RoleAdmin})
		decision, _ := cedar.Authorize(ps, entities, req)
		if decision == cedar.Allow {
			t.Error("expected deny for an unknown role")
		}
	})
}

func TestTeamAccessPolicies(t *testing.T) {
	t.Parallel()

	ps := mustLoadPolicies(t)

	t.Run("rank meets minimum permits", func(t *testing.T) {
		t.Log("Testing: owner rank passes an admin-minimum gate")

		entities, req := teamRequest(int64(TeamRoleOwner.Rank()), int64(TeamRoleAdmin.Rank()))
		decision, diag := cedar.Authorize(ps, entities, req)
		t.Logf("Decision: %v, Reasons: %v", decision, diag.Reasons)

		if decision != cedar.Allow {
			t.Error("expected permit when rank meets the minimum")
		}
	})

	t.Run("rank below minimum denies", func(t *testing.T) {
		entities, req := teamRequest(int64(TeamRoleMember.Rank()), int64(TeamRoleOwner.Rank()))
		decision, _ := cedar.Authorize(ps, entities, req)
		if decision == cedar.Allow {
			t.Error("expected deny when rank is below the minimum")
		}
	})

	t.Run("unknown rank never satisfies a minimum", func(t *testing.T) {
		// Unknown roles rank -1, below even the member minimum.
		entities, req := teamRequest(int64(TeamRole("ghost").Rank()), int64(TeamRoleMember.Rank()))
		decision, _ := cedar.Authorize(ps, entities, req)
		if decision == cedar.Allow {
			t.Error("expected deny for an unknown team role")
		}
	})
}
