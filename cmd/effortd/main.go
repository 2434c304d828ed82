// Command effortd runs the Effort Economics wizard as an HTTP service or in
// the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/shutdown"
	"github.com/amp-labs/effort-economics/stage"
	"github.com/amp-labs/effort-economics/startup"
	"github.com/amp-labs/effort-economics/telemetry"
	"github.com/spf13/cobra"
)

const appName = "effortd"

var (
	// Global flags
	envFiles []string //nolint:gochecknoglobals
	verbose  bool     //nolint:gochecknoglobals
)

var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   appName,
	Short: "Effort Economics lead-capture wizard",
	Long: `effortd collects identity, birth and location details in three steps,
sends them to the Effort Economics calculation service and shows the report.

Run "effortd serve" for the HTTP API and result pages, or "effortd wizard"
to walk through the same steps in the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"env files to load (.env, .json or .yaml); overrides ENV_FILE")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, wizardCmd, resultCmd, usageCmd)
}

// setup loads configuration, logging and tracing into the command context.
func setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var err error

	if len(envFiles) > 0 {
		ctx, err = startup.ConfigureEnvironmentFromFiles(ctx, envFiles)
	} else {
		ctx, err = startup.ConfigureEnvironment(ctx)
	}

	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	if verbose {
		ctx = envutil.WithEnvOverride(ctx, "LOG_LEVEL", "debug")
	}

	var opts []logger.Option
	if cmd == wizardCmd {
		// Keep the prompts readable.
		opts = append(opts, logger.WithOutput(os.Stderr))
	}

	logger.ConfigureLogging(ctx, appName, opts...)

	runningStage, err := stage.Current(ctx)
	if err != nil {
		return err
	}

	logger.Get(ctx).Debug("configured stage", "stage", runningStage)

	tcfg, err := telemetry.LoadConfigFromEnv(ctx, string(runningStage))
	if err != nil {
		return fmt.Errorf("loading telemetry config: %w", err)
	}

	if err := telemetry.Initialize(ctx, tcfg); err != nil {
		logger.Get(ctx).Warn("tracing unavailable", "error", err)
	}

	shutdown.BeforeShutdown(func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Get(ctx).Warn("flushing traces", "error", err)
		}
	})

	cmd.SetContext(ctx)

	return nil
}

func main() {
	ctx := shutdown.SetupHandler()

	err := rootCmd.ExecuteContext(ctx)

	shutdown.RunHooks()

	if err != nil {
		os.Exit(1)
	}
}
