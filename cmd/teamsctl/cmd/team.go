package cmd

import (
	"github.com/spf13/cobra"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// teamCmd represents the team command
var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Creates, deletes and inspects teams",
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Creates a team and makes the acting user its administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		creator, err := actor(cmd)
		if err != nil {
			return err
		}

		team, _, err := teamService().CreateTeamWithAdmin(ctx, creator, args[0])
		if err != nil {
			return err
		}
		return render(cmd, team, teamTable(*team))
	},
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Deletes a team together with its memberships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := actor(cmd)
		if err != nil {
			return err
		}

		svc := teamService()
		team, err := svc.GetTeam(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.Authorize(ctx, user, team); err != nil {
			return err
		}

		hard, _ := cmd.Flags().GetBool("hard")
		if err := svc.DeleteTeam(ctx, team, hard); err != nil {
			return err
		}
		if hard {
			return nil
		}
		return render(cmd, team, teamTable(*team))
	},
}

var teamShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Shows an active team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := teamService().GetTeam(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, team, teamTable(*team))
	},
}

var teamMembersCmd = &cobra.Command{
	Use:   "members <name>",
	Short: "Lists the active members of a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := teamService()
		team, err := svc.GetTeam(ctx, args[0])
		if err != nil {
			return err
		}

		members, err := svc.Members(ctx, team)
		if err != nil {
			return err
		}
		return render(cmd, members, userTable(members...))
	},
}

var teamAdminForCmd = &cobra.Command{
	Use:   "admin-for [username]",
	Short: "Lists the active teams a user administers",
	Long:  "Lists the active teams a user administers. Without a username the acting user is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var principal models.Principal = models.AnonymousUser{}
		if anonymous, _ := cmd.Flags().GetBool("anonymous"); !anonymous {
			var (
				user *models.User
				err  error
			)
			if len(args) == 1 {
				user, err = userService().GetUser(ctx, args[0])
			} else {
				user, err = actor(cmd)
			}
			if err != nil {
				return err
			}
			principal = user
		}

		administered, err := teamService().AdminTeams(ctx, principal)
		if err != nil {
			return err
		}
		return render(cmd, administered, teamTable(administered...))
	},
}

func init() {
	teamDeleteCmd.Flags().Bool("hard", false, "Removes the team and its memberships from the database instead of marking them deleted")
	teamAdminForCmd.Flags().Bool("anonymous", false, "Lists the teams an anonymous user administers")

	teamCmd.AddCommand(teamCreateCmd, teamDeleteCmd, teamShowCmd, teamMembersCmd, teamAdminForCmd)
	rootCmd.AddCommand(teamCmd)
}
