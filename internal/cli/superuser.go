package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidshelf/backend/internal/database"
)

var (
	flagUsername string
	flagPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create a superuser, or promote an existing user and reset its password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(flagUsername)
		if username == "" || flagPassword == "" {
			return fmt.Errorf("--username and --password are required")
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		user, created, err := database.EnsureSuperuser(db, username, flagPassword)
		if err != nil {
			return fmt.Errorf("creating superuser: %w", err)
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"id":       user.ID,
				"username": user.Username,
				"created":  created,
			})
		}
		verb := "Promoted"
		if created {
			verb = "Created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s superuser %q (id %d).\n", verb, user.Username, user.ID)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&flagUsername, "username", "", "Account username")
	createSuperuserCmd.Flags().StringVar(&flagPassword, "password", "", "Account password")
	rootCmd.AddCommand(createSuperuserCmd)
}
