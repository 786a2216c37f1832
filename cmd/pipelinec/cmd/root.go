// Package cmd implements the CLI commands for pipelinec.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pipelineframework/corepipe/internal/observability"
	"github.com/pipelineframework/corepipe/internal/version"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "pipelinec",
	Short:   "Declarative reactive pipeline compiler",
	Version: version.Short(),
	Long: `pipelinec discovers declared pipeline steps and aspects, resolves their
runtime placement and schema bindings, and emits the transport-specific
server handlers, client steps, orchestrator wiring, and schema
fragments a pipeline module needs at runtime.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	mustBindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	viper.SetEnvPrefix("PIPELINEC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// initLogging configures the shared slog logger, redaction included,
// from the bound log.level/log.format configuration.
func initLogging() error {
	cfg := observability.LoggingConfig{
		Level:  strings.ToLower(viper.GetString("log.level")),
		Format: strings.ToLower(viper.GetString("log.format")),
	}
	observability.SetDefault(observability.NewLoggerWithWriter(cfg, os.Stderr))
	return nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
