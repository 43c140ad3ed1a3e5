package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/services"
	"gorm.io/gorm"
)

var flagSyncUser string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local video rows with the file host",
	Long: `Reconcile local video rows with the file host listing on behalf of a
user. A superuser account syncs every row.

  vidctl sync --user alice`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(flagSyncUser)
		if username == "" {
			return fmt.Errorf("--user is required")
		}

		var user models.User
		err := db.WithContext(cmd.Context()).Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}

		syncService := services.NewSyncService(db, fileHost(), nil, cfg.FileHost.UploadGrace)
		stats, err := syncService.Run(cmd.Context(), &user)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Remote files:\t%d\n", stats.FilesCount)
		fmt.Fprintf(tw, "Local videos:\t%d\n", stats.LocalVideos)
		fmt.Fprintf(tw, "Deleted:\t%d\n", stats.DeletedVideos)
		fmt.Fprintf(tw, "Completed:\t%d\n", stats.UpdatedVideos)
		for _, msg := range stats.Errors {
			fmt.Fprintf(tw, "Error:\t%s\n", msg)
		}
		return tw.Flush()
	},
}

func init() {
	syncCmd.Flags().StringVar(&flagSyncUser, "user", "", "Username to sync as")
	rootCmd.AddCommand(syncCmd)
}
