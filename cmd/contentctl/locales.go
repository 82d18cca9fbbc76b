package main

import (
	"context"
	"fmt"

	"github.com/ainews/newsroom/backend/content-services/internal/app"
	"github.com/spf13/cobra"
)

var localesMaster string

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "Maintain per-language views of the master collection",
	Long: `Available subcommands:
  sync   - Regenerate every language view set (existing sets are backed up first)
  check  - Report view sets that drifted from the master collection
  backup - Snapshot every existing view set`,
}

var localesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate every language view set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Locales.SyncCollection(ctx, master(a))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var localesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report inconsistencies between view sets and the master collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			found, err := a.Locales.CheckCollection(ctx, master(a))
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), map[string]any{"consistent": len(found) == 0, "inconsistencies": found}); err != nil {
				return err
			}
			if len(found) > 0 {
				return fmt.Errorf("%d inconsistencies", len(found))
			}
			return nil
		})
	},
}

var localesBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot every existing language view set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			backups, err := a.Locales.Backup(ctx, master(a))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"backups": backups})
		})
	},
}

func init() {
	localesCmd.PersistentFlags().StringVar(&localesMaster, "master", "", "Master collection (default CONTENT_MASTER_COLLECTION)")
	localesCmd.AddCommand(localesSyncCmd, localesCheckCmd, localesBackupCmd)
	rootCmd.AddCommand(localesCmd)
}

func master(a *app.App) string {
	if localesMaster != "" {
		return localesMaster
	}
	return a.Config.Content.MasterCollection
}
