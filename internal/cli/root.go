package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vidshelf/backend/internal/config"
	"github.com/vidshelf/backend/internal/database"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/gorm"
)

var (
	flagJSON bool

	cfg *config.Config
	db  *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:   "vidctl",
	Short: "Administer a vidshelf installation",
	Long: `vidctl works directly against the vidshelf database and file host
using the same environment as the server.

  vidctl migrate                         Create or update the schema
  vidctl create-superuser --username X   Create or promote a superuser
  vidctl folders tree --counts           Show the folder hierarchy
  vidctl sync --user alice               Reconcile one user's videos`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetOutput(cmd.ErrOrStderr())

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		utils.ConfigureEncryption(cfg.Security.EncryptionSecret)

		db, err = database.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return nil
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// run executes one command line. Flag values survive between executions of
// the same command tree, so they are reset first.
func run(ctx context.Context, out io.Writer, args ...string) error {
	flagJSON, flagCounts = false, false
	flagUsername, flagPassword, flagSyncUser = "", "", ""
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(ctx)
}

// fileHost builds a provider client whose credentials follow the settings
// table, the same way the server resolves them.
func fileHost() *filehost.Client {
	settings := services.NewSettingsService(db, cfg.FileHost, cfg.Telegram)
	return filehost.NewClient(settings, cfg.FileHost.Timeout)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
