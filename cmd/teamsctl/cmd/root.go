package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/config"
	"github.com/waikato-ufdl/simple-teams/internal/database"
	"github.com/waikato-ufdl/simple-teams/internal/log"
	"github.com/waikato-ufdl/simple-teams/internal/models"
	"github.com/waikato-ufdl/simple-teams/internal/services"
)

var (
	cfg  *config.Config
	conn *gorm.DB
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "teamsctl",
	Short:        "Teamsctl manages users, teams and team memberships",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		log.Init(cfg.LogJSON, cfg.LogLevel)
		if err != nil {
			log.Log.WithError(err).Debug("no .env file loaded")
		}

		conn, err = database.Open(cfg)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if conn == nil {
			return nil
		}
		rawConn, err := conn.DB()
		if err != nil {
			return err
		}
		return rawConn.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Log.WithError(err).Error("command failed")
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("as", "", "Username to act as. Defaults to the configured superuser")
	rootCmd.PersistentFlags().StringP("output-format", "o", "text", "Output format. One of: text|json")
}

func userService() *services.UserService {
	return services.NewUserService(conn)
}

func teamService() *services.TeamService {
	return services.NewTeamService(conn)
}

// actor is the user the command runs on behalf of.
func actor(cmd *cobra.Command) (*models.User, error) {
	name, err := rootCmd.PersistentFlags().GetString("as")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.SuperuserName
	}
	return userService().GetUser(cmd.Context(), name)
}
