package commands

import (
	"banks-etl/internal/pipeline"
	"banks-etl/lib/serviceutil"
	"banks-etl/lib/telemetry"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var configPath *string
var debug *bool

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "banks-etl.json5", "The config file to read, its settings override the defaults.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enables debug logging.")
}

var rootCmd = &cobra.Command{
	Use:           "banks-etl [--config <path/to/config.json5>]",
	Short:         "banks-etl scrapes the largest banks, converts their market cap and loads it into a csv file and a database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*debug)

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "banks-etl")
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		return run(cmd.Context(), tel, *configPath, cmd.OutOrStdout())
	},
}

// run executes the etl described by the config at `configPath`. tel is shut
// down before run returns, failed or not.
func run(ctx context.Context, tel telemetry.Telemetry, configPath string, out io.Writer) error {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	cfg, err := pipeline.ReadConfig(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	p, err := pipeline.New(cfg, out)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	return p.Run(ctx)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		serviceutil.Fatal("etl failed", err)
	}
}
