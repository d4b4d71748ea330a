package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// memberCmd represents the member command
var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manages the memberships of a team",
}

// managedMembership resolves the acting user, the team and the member, and
// checks that the acting user may manage the team.
func managedMembership(ctx context.Context, cmd *cobra.Command, teamName, username string) (*models.User, *models.Team, *models.User, error) {
	manager, err := actor(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	svc := teamService()
	team, err := svc.GetTeam(ctx, teamName)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := svc.Authorize(ctx, manager, team); err != nil {
		return nil, nil, nil, err
	}

	member, err := userService().GetUser(ctx, username)
	if err != nil {
		return nil, nil, nil, err
	}
	return manager, team, member, nil
}

var memberAddCmd = &cobra.Command{
	Use:   "add <team> <username>",
	Short: "Adds a user to a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		permission, err := permissionFlag(cmd)
		if err != nil {
			return err
		}

		manager, team, member, err := managedMembership(ctx, cmd, args[0], args[1])
		if err != nil {
			return err
		}

		membership, err := teamService().AddMember(ctx, manager, member, team, permission)
		if err != nil {
			return err
		}
		return render(cmd, membership, membershipTable(*membership))
	},
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove <team> <username>",
	Short: "Removes a user from a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, team, member, err := managedMembership(ctx, cmd, args[0], args[1])
		if err != nil {
			return err
		}
		return teamService().RemoveMember(ctx, member, team)
	},
}

var memberSetPermissionCmd = &cobra.Command{
	Use:   "set-permission <team> <username> <read|write|admin>",
	Short: "Changes the permissions of a team member",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		permission, err := models.ParsePermission(args[2])
		if err != nil {
			return err
		}

		_, team, member, err := managedMembership(ctx, cmd, args[0], args[1])
		if err != nil {
			return err
		}

		membership, err := teamService().SetPermission(ctx, member, team, permission)
		if err != nil {
			return err
		}
		return render(cmd, membership, membershipTable(*membership))
	},
}

func permissionFlag(cmd *cobra.Command) (models.Permission, error) {
	value, err := cmd.Flags().GetString("permission")
	if err != nil {
		return "", err
	}
	return models.ParsePermission(value)
}

func init() {
	memberAddCmd.Flags().StringP("permission", "p", "read", "Permission of the new member. One of: read|write|admin")

	memberCmd.AddCommand(memberAddCmd, memberRemoveCmd, memberSetPermissionCmd)
	rootCmd.AddCommand(memberCmd)
}
