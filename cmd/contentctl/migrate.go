package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ainews/newsroom/backend/content-services/internal/app"
	"github.com/ainews/newsroom/backend/content-services/internal/migration"
	"github.com/spf13/cobra"
)

var migrateStage string

var migrateCmd = &cobra.Command{
	Use:   "migrate <collection>",
	Short: "Migrate a content collection to the canonical document shape",
	Long: `Back up the collection, run every migration stage in order, validate the
result and store the report next to the backup.

With --stage only that stage runs, without backup or report.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	// Backup, Validate and Report only run as part of a full migration.
	names := []string{}
	for _, s := range migration.Stages {
		switch s {
		case migration.StageBackup, migration.StageValidate, migration.StageReport:
			continue
		}
		names = append(names, string(s))
	}
	migrateCmd.Flags().StringVar(&migrateStage, "stage", "", "Run a single stage ("+strings.Join(names, ", ")+")")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	collection := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if _, err := a.Fields.Collection(collection); err != nil {
			return err
		}
		if migrateStage != "" {
			res, err := a.Migrations.RunStage(ctx, collection, migration.Stage(migrateStage))
			if err != nil {
				return fmt.Errorf("stage %s: %w", migrateStage, err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		}
		report, err := a.Migrations.Run(ctx, collection)
		if report != nil {
			if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
		}
		if err != nil {
			return err
		}
		if !report.Clean() {
			return fmt.Errorf("migration of %s finished with validation issues, see %s", collection, report.ReportCollection)
		}
		return nil
	})
}
