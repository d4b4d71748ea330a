package cmd

import (
	"github.com/spf13/cobra"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Creates and inspects users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Creates a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		staff, _ := cmd.Flags().GetBool("staff")
		superuser, _ := cmd.Flags().GetBool("superuser")

		user, err := userService().CreateUser(cmd.Context(), &models.User{
			Username:  args[0],
			Email:     email,
			Staff:     staff,
			Superuser: superuser,
		})
		if err != nil {
			return err
		}
		return render(cmd, user, userTable(*user))
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Shows a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := userService().GetUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, user, userTable(*user))
	},
}

func init() {
	userCreateCmd.Flags().String("email", "", "Email address of the user")
	userCreateCmd.Flags().Bool("staff", false, "Grants staff status, which administers every team")
	userCreateCmd.Flags().Bool("superuser", false, "Grants superuser status, which administers every team")

	userCmd.AddCommand(userCreateCmd, userShowCmd)
	rootCmd.AddCommand(userCmd)
}
