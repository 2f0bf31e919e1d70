// Command rlsgen generates one pgTAP test file per row level security policy of a Postgres database.
package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tigerroll/rlsgen/internal/app"
	"github.com/tigerroll/rlsgen/pkg/batch/core/job/runner"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// embeddedConfig embeds the default application configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

var opts app.Options

// exitCode is set by the root command and returned to the shell by main.
var exitCode = runner.ExitCodeSuccess

var rootCmd = &cobra.Command{
	Use:   "rlsgen",
	Short: "Generate pgTAP tests for row level security policies",
	Long: `rlsgen introspects the RLS policies and table schemas of a Postgres database,
asks a text-generation model for a pgTAP test per policy and writes each test to
the output directory.

Connection settings are read from PG_HOST, PG_PORT, PG_USER, PG_PASSWORD and
PG_DATABASE. The model API key is read from CLAUDE_API_KEY. Both may come from
.env.local or .env in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		go func() {
			select {
			case sig := <-sigChan:
				logger.Warnf("Received signal '%v'. Stopping in-flight generations...", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		exitCode = app.RunApplication(ctx, embeddedConfig, opts)
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringSliceVar(&opts.EnvFiles, "env-file", nil, "env files to load, in priority order (default .env.local,.env)")
	flags.StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory receiving the generated test files")
	flags.StringVar(&opts.CorpusDir, "corpus-dir", "", "local directory holding the reference guides")
	flags.IntVarP(&opts.MaxWorkers, "max-workers", "w", 0, "worker pool size limit (default: host parallelism)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR or SILENT")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		exitCode = runner.ExitCodeFailure
	}
	logger.Sync()
	os.Exit(exitCode)
}
