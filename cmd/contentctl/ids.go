package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/semid"
	"github.com/spf13/cobra"
)

var (
	idDate     string
	idSequence int
	idOverride semid.Overrides
	batchFile  string
)

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "Generate semantic content identifiers",
}

var idsGenCmd = &cobra.Command{
	Use:   "gen <title>",
	Short: "Generate the identifier for one title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := idDate
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		if idSequence <= 0 {
			return fmt.Errorf("--sequence must be positive")
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), semid.GenerateWith(args[0], date, idSequence, idOverride))
		return err
	},
}

var idsBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate identifiers for a JSON batch",
	Long: `Read {"items": [{"title": ..., "date": ...}], "overrides": {"<title>": {...}}}
from --file (or stdin) and print the identifiers in item order. Items sharing
a date are numbered 1, 2, 3...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, batchFile)
		if err != nil {
			return err
		}
		var in struct {
			Items     []semid.Item               `json:"items"`
			Overrides map[string]semid.Overrides `json:"overrides"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode batch: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"ids": semid.GenerateBatch(in.Items, in.Overrides)})
	},
}

func init() {
	idsGenCmd.Flags().StringVar(&idDate, "date", "", "Publication date, YYYY-MM-DD (default today, UTC)")
	idsGenCmd.Flags().IntVar(&idSequence, "sequence", 1, "Sequence number within the day")
	idsGenCmd.Flags().StringVar(&idOverride.Organization, "company", "", "Organization token override")
	idsGenCmd.Flags().StringVar(&idOverride.Product, "product", "", "Product token override")
	idsBatchCmd.Flags().StringVarP(&batchFile, "file", "f", "-", "Batch JSON file, - for stdin")
	idsCmd.AddCommand(idsGenCmd, idsBatchCmd)
	rootCmd.AddCommand(idsCmd)
}
