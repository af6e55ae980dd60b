package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

func init() {
	rootCmd.AddCommand(teamCmd)
	teamCmd.AddCommand(teamCreateCmd)
	teamCmd.AddCommand(teamMembersCmd)
	teamCmd.AddCommand(teamAddMemberCmd)
	teamCmd.AddCommand(teamSetRoleCmd)
	teamCmd.AddCommand(teamRemoveMemberCmd)

	teamAddMemberCmd.Flags().String("role", string(access.TeamRoleMember), "Team role (member, admin, owner)")
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams and memberships",
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <name> <owner-email>",
	Short: "Create a team owned by an existing account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := dashStore.GetUserByEmail(args[1])
		if err != nil {
			return err
		}

		id := "team_" + uuid.New().String()[:8]
		if err := dashStore.CreateTeam(id, args[0], owner.ID); err != nil {
			return err
		}

		color.Green("✓ Created team %s (%s), owner %s", args[0], id, owner.Email)
		return nil
	},
}

var teamMembersCmd = &cobra.Command{
	Use:   "members <team-id>",
	Short: "List a team's members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		members, err := dashStore.ListTeamMembers(args[0])
		if err != nil {
			return err
		}

		if done, err := printStructured(members); done {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tEMAIL\tNAME\tROLE")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.UserID, m.Email, m.DisplayName, m.Role)
		}
		return w.Flush()
	},
}

var teamAddMemberCmd = &cobra.Command{
	Use:   "add-member <team-id> <email>",
	Short: "Enroll an account in a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleStr, _ := cmd.Flags().GetString("role")
		role := access.TeamRole(roleStr)
		if !role.Valid() {
			return fmt.Errorf("invalid team role %q (valid: member, admin, owner)", roleStr)
		}

		user, err := dashStore.GetUserByEmail(args[1])
		if err != nil {
			return err
		}
		if err := dashStore.AddTeamMember(args[0], user.ID, role); err != nil {
			return err
		}

		color.Green("✓ Added %s to %s as %s", user.Email, args[0], role)
		return nil
	},
}

var teamSetRoleCmd = &cobra.Command{
	Use:   "set-role <team-id> <email> <role>",
	Short: "Change a member's team role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := access.TeamRole(args[2])
		if !role.Valid() {
			return fmt.Errorf("invalid team role %q (valid: member, admin, owner)", args[2])
		}

		user, err := dashStore.GetUserByEmail(args[1])
		if err != nil {
			return err
		}
		if err := dashStore.UpdateTeamMemberRole(args[0], user.ID, role); err != nil {
			return err
		}

		color.Green("✓ %s is now %s of %s", user.Email, role, args[0])
		return nil
	},
}

var teamRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <team-id> <email>",
	Short: "Remove an account from a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := dashStore.GetUserByEmail(args[1])
		if err != nil {
			return err
		}
		if err := dashStore.RemoveTeamMember(args[0], user.ID); err != nil {
			return err
		}

		color.Yellow("✓ Removed %s from %s", user.Email, args[0])
		return nil
	},
}
