package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSetRoleCmd)
	userCmd.AddCommand(userSuspendCmd)
	userCmd.AddCommand(userUnsuspendCmd)

	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("role", string(access.RoleUser), "Global role (user, team_admin, admin, super_admin)")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email> <password>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password := args[0], args[1]
		name, _ := cmd.Flags().GetString("name")
		roleStr, _ := cmd.Flags().GetString("role")

		role := access.GlobalRole(roleStr)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", roleStr)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		id := "usr_" + uuid.New().String()[:8]
		if err := dashStore.CreateUser(id, email, string(hash), name, role); err != nil {
			return err
		}

		color.Green("✓ Created %s (%s) with role %s", email, id, role)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := dashStore.ListUsers()
		if err != nil {
			return err
		}

		if done, err := printStructured(users); done {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS")
		for _, u := range users {
			status := u.Status
			if status == "suspended" {
				status = color.RedString(status)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.DisplayName, u.GlobalRole, status)
		}
		return w.Flush()
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change an account's global role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := access.GlobalRole(args[1])
		if !role.Valid() {
			return fmt.Errorf("invalid role %q (valid: user, team_admin, admin, super_admin)", args[1])
		}

		user, err := dashStore.GetUserByEmail(args[0])
		if err != nil {
			return err
		}
		if err := dashStore.UpdateGlobalRole(user.ID, role); err != nil {
			return err
		}

		color.Green("✓ %s is now %s", user.Email, role)
		return nil
	},
}

var userSuspendCmd = &cobra.Command{
	Use:   "suspend <email>",
	Short: "Suspend an account (takes effect on its next request)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := dashStore.GetUserByEmail(args[0])
		if err != nil {
			return err
		}
		if err := dashStore.UpdateUserStatus(user.ID, "suspended"); err != nil {
			return err
		}
		color.Yellow("✓ Suspended %s", user.Email)
		return nil
	},
}

var userUnsuspendCmd = &cobra.Command{
	Use:   "unsuspend <email>",
	Short: "Reactivate a suspended account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := dashStore.GetUserByEmail(args[0])
		if err != nil {
			return err
		}
		if err := dashStore.UpdateUserStatus(user.ID, "active"); err != nil {
			return err
		}
		color.Green("✓ Reactivated %s", user.Email)
		return nil
	},
}
