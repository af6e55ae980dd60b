package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// setupTestStore creates a temporary SQLite database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, s *Store, id, email string, role access.GlobalRole) {
	t.Helper()
	if err := s.CreateUser(id, email, "x", "Test User", role); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
}

func TestUserCRUD(t *testing.T) {
	store := setupTestStore(t)

	t.Run("CreateAndGet", func(t *testing.T) {
		mustCreateUser(t, store, "usr_1", "alice@example.com", access.RoleUser)

		u, err := store.GetUser("usr_1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if u.Email != "alice@example.com" {
			t.Errorf("email = %s", u.Email)
		}
		if u.Status != "active" {
			t.Errorf("expected active status, got %s", u.Status)
		}

		byEmail, err := store.GetUserByEmail("alice@example.com")
		if err != nil || byEmail.ID != "usr_1" {
			t.Errorf("GetUserByEmail = %v, %v", byEmail, err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := store.CreateUser("usr_2", "alice@example.com", "x", "", access.RoleUser)
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := store.GetUser("usr_missing"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("GlobalRole", func(t *testing.T) {
		role, err := store.GlobalRole(context.Background(), "usr_1")
		if err != nil {
			t.Fatalf("GlobalRole failed: %v", err)
		}
		if role != access.RoleUser {
			t.Errorf("role = %s, want user", role)
		}

		if err := store.UpdateGlobalRole("usr_1", access.RoleAdmin); err != nil {
			t.Fatalf("UpdateGlobalRole failed: %v", err)
		}
		role, _ = store.GlobalRole(context.Background(), "usr_1")
		if role != access.RoleAdmin {
			t.Errorf("role after update = %s, want admin", role)
		}

		if _, err := store.GlobalRole(context.Background(), "usr_missing"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Suspend", func(t *testing.T) {
		if err := store.UpdateUserStatus("usr_1", "suspended"); err != nil {
			t.Fatalf("UpdateUserStatus failed: %v", err)
		}
		u, _ := store.GetUser("usr_1")
		if u.Status != "suspended" {
			t.Errorf("status = %s, want suspended", u.Status)
		}
	})

	t.Run("LastLogin", func(t *testing.T) {
		if err := store.UpdateLastLogin("usr_1"); err != nil {
			t.Fatalf("UpdateLastLogin failed: %v", err)
		}
		u, _ := store.GetUser("usr_1")
		if u.LastLogin == nil {
			t.Error("expected last_login to be set")
		}
	})
}

func TestTeamMembership(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, store, "usr_owner", "owner@example.com", access.RoleUser)
	mustCreateUser(t, store, "usr_member", "member@example.com", access.RoleUser)

	t.Run("CreateTeamEnrollsOwner", func(t *testing.T) {
		if err := store.CreateTeam("team_1", "Acme", "usr_owner"); err != nil {
			t.Fatalf("CreateTeam failed: %v", err)
		}

		role, err := store.TeamRole(ctx, "team_1", "usr_owner")
		if err != nil {
			t.Fatalf("TeamRole failed: %v", err)
		}
		if role != access.TeamRoleOwner {
			t.Errorf("creator role = %s, want owner", role)
		}
	})

	t.Run("NonMember", func(t *testing.T) {
		_, err := store.TeamRole(ctx, "team_1", "usr_member")
		if !errors.Is(err, access.ErrNotAMember) {
			t.Errorf("expected ErrNotAMember, got %v", err)
		}
	})

	t.Run("AddAndPromote", func(t *testing.T) {
		if err := store.AddTeamMember("team_1", "usr_member", access.TeamRoleMember); err != nil {
			t.Fatalf("AddTeamMember failed: %v", err)
		}
		if err := store.UpdateTeamMemberRole("team_1", "usr_member", access.TeamRoleAdmin); err != nil {
			t.Fatalf("UpdateTeamMemberRole failed: %v", err)
		}
		role, _ := store.TeamRole(ctx, "team_1", "usr_member")
		if role != access.TeamRoleAdmin {
			t.Errorf("role = %s, want admin", role)
		}
	})

	t.Run("LastOwnerGuard", func(t *testing.T) {
		if err := store.RemoveTeamMember("team_1", "usr_owner"); !errors.Is(err, ErrLastOwner) {
			t.Errorf("expected ErrLastOwner on removing sole owner, got %v", err)
		}
		if err := store.UpdateTeamMemberRole("team_1", "usr_owner", access.TeamRoleMember); !errors.Is(err, ErrLastOwner) {
			t.Errorf("expected ErrLastOwner on demoting sole owner, got %v", err)
		}

		// A second owner unblocks both operations.
		if err := store.UpdateTeamMemberRole("team_1", "usr_member", access.TeamRoleOwner); err != nil {
			t.Fatalf("promote to owner failed: %v", err)
		}
		if err := store.UpdateTeamMemberRole("team_1", "usr_owner", access.TeamRoleMember); err != nil {
			t.Errorf("demote with second owner present failed: %v", err)
		}
	})

	t.Run("ListTeamsForUser", func(t *testing.T) {
		teams, err := store.ListTeamsForUser("usr_member")
		if err != nil {
			t.Fatalf("ListTeamsForUser failed: %v", err)
		}
		if len(teams) != 1 || teams[0].TeamID != "team_1" {
			t.Errorf("teams = %+v", teams)
		}
	})

	t.Run("ListTeamMembers", func(t *testing.T) {
		members, err := store.ListTeamMembers("team_1")
		if err != nil {
			t.Fatalf("ListTeamMembers failed: %v", err)
		}
		if len(members) != 2 {
			t.Errorf("expected 2 members, got %d", len(members))
		}
	})
}

func TestTeamInvites(t *testing.T) {
	store := setupTestStore(t)

	mustCreateUser(t, store, "usr_owner", "owner@example.com", access.RoleUser)
	mustCreateUser(t, store, "usr_new", "new@example.com", access.RoleUser)
	if err := store.CreateTeam("team_1", "Acme", "usr_owner"); err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}

	t.Run("RedeemEnrollsInvitee", func(t *testing.T) {
		inv, code, err := NewTeamInvite("inv_1", "team_1", "usr_owner", access.TeamRoleMember, time.Hour)
		if err != nil {
			t.Fatalf("NewTeamInvite failed: %v", err)
		}
		if err := store.CreateTeamInvite(inv); err != nil {
			t.Fatalf("CreateTeamInvite failed: %v", err)
		}

		redeemed, err := store.RedeemTeamInvite(code, "usr_new")
		if err != nil {
			t.Fatalf("RedeemTeamInvite failed: %v", err)
		}
		if redeemed.TeamID != "team_1" {
			t.Errorf("team = %s", redeemed.TeamID)
		}

		role, err := store.TeamRole(context.Background(), "team_1", "usr_new")
		if err != nil || role != access.TeamRoleMember {
			t.Errorf("invitee role = %v, %v", role, err)
		}

		// Second redemption fails.
		if _, err := store.RedeemTeamInvite(code, "usr_new"); !errors.Is(err, ErrInviteUsed) {
			t.Errorf("expected ErrInviteUsed, got %v", err)
		}
	})

	t.Run("ConcurrentRedeemIsSingleUse", func(t *testing.T) {
		mustCreateUser(t, store, "usr_racer_a", "racer-a@example.com", access.RoleUser)
		mustCreateUser(t, store, "usr_racer_b", "racer-b@example.com", access.RoleUser)

		inv, code, err := NewTeamInvite("inv_race", "team_1", "usr_owner", access.TeamRoleMember, time.Hour)
		if err != nil {
			t.Fatalf("NewTeamInvite failed: %v", err)
		}
		if err := store.CreateTeamInvite(inv); err != nil {
			t.Fatalf("CreateTeamInvite failed: %v", err)
		}

		start := make(chan struct{})
		results := make(chan error, 2)
		for _, uid := range []string{"usr_racer_a", "usr_racer_b"} {
			go func(uid string) {
				<-start
				_, err := store.RedeemTeamInvite(code, uid)
				results <- err
			}(uid)
		}
		close(start)

		var wins, losses int
		for i := 0; i < 2; i++ {
			switch err := <-results; {
			case err == nil:
				wins++
			case errors.Is(err, ErrInviteUsed):
				losses++
			default:
				t.Errorf("unexpected redemption error: %v", err)
			}
		}
		if wins != 1 || losses != 1 {
			t.Errorf("wins = %d, losses = %d, want exactly one of each", wins, losses)
		}

		// Exactly one racer got enrolled.
		enrolled := 0
		for _, uid := range []string{"usr_racer_a", "usr_racer_b"} {
			if _, err := store.TeamRole(context.Background(), "team_1", uid); err == nil {
				enrolled++
			}
		}
		if enrolled != 1 {
			t.Errorf("enrolled = %d, want 1", enrolled)
		}
	})

	t.Run("ExpiredInvite", func(t *testing.T) {
		inv, code, err := NewTeamInvite("inv_2", "team_1", "usr_owner", access.TeamRoleMember, -time.Hour)
		if err != nil {
			t.Fatalf("NewTeamInvite failed: %v", err)
		}
		if err := store.CreateTeamInvite(inv); err != nil {
			t.Fatalf("CreateTeamInvite failed: %v", err)
		}
		if _, err := store.RedeemTeamInvite(code, "usr_owner"); !errors.Is(err, ErrInviteExpired) {
			t.Errorf("expected ErrInviteExpired, got %v", err)
		}
	})

	t.Run("UnknownCode", func(t *testing.T) {
		if _, err := store.RedeemTeamInvite("nope", "usr_new"); !errors.Is(err, ErrInviteNotFound) {
			t.Errorf("expected ErrInviteNotFound, got %v", err)
		}
	})

	t.Run("Revoke", func(t *testing.T) {
		inv, code, err := NewTeamInvite("inv_3", "team_1", "usr_owner", access.TeamRoleAdmin, time.Hour)
		if err != nil {
			t.Fatalf("NewTeamInvite failed: %v", err)
		}
		if err := store.CreateTeamInvite(inv); err != nil {
			t.Fatalf("CreateTeamInvite failed: %v", err)
		}
		if err := store.RevokeTeamInvite("inv_3"); err != nil {
			t.Fatalf("RevokeTeamInvite failed: %v", err)
		}
		if _, err := store.RedeemTeamInvite(code, "usr_new"); !errors.Is(err, ErrInviteUsed) {
			t.Errorf("expected revoked invite to be unredeemable, got %v", err)
		}
	})
}
