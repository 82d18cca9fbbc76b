package main

import (
	"context"
	"fmt"

	"github.com/ainews/newsroom/backend/content-services/internal/app"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every master record against the canonical shape",
	Long: `Check identifier format, category, publication date, per-language locales,
counters and flags of every record in the master collection. Nothing is
repaired; the command fails when any record is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			sum, err := a.Content.Validate(ctx)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), sum); err != nil {
				return err
			}
			if sum.Invalid > 0 {
				return fmt.Errorf("%d of %d records invalid", sum.Invalid, sum.Total)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
