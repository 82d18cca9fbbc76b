// Command contentctl runs content maintenance tasks against the configured
// store: migrations, locale view sync and identifier generation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/app"
	"github.com/ainews/newsroom/backend/content-services/internal/config"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	timeout  time.Duration
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "contentctl",
	Short: "Content maintenance tool",
	Long: `contentctl runs maintenance tasks against the content store named by
MONGODB_URI (or .env). Results are printed as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, opens the services and runs fn under the
// --timeout deadline.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	if err := checkBackend(cfg, a.Backend); err != nil {
		return err
	}
	if a.Backend == app.BackendMemory {
		logger.Warnf("MONGODB_URI unset: running against an empty in-memory store")
	}
	return fn(ctx, a)
}

// checkBackend rejects the in-memory fallback when MongoDB was configured:
// a maintenance run must never report success on data it did not touch.
func checkBackend(cfg *config.Config, backend string) error {
	if cfg.MongoDB.URI != "" && backend == app.BackendMemory {
		return fmt.Errorf("MongoDB at MONGODB_URI is unreachable; refusing to run against the in-memory store")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
