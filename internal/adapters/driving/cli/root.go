// Package cli implements the askdoc command line interface.
// Each command lives in its own file and talks to the engine through
// the driving port. Services are injected by main before Execute.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driving"
	"github.com/lumina-labs/askdoc-cli/internal/logger"
)

// version is stamped by main at startup.
var version = "dev"

// Injected services. Commands check for nil so a misconfigured binary
// fails with a clear message instead of a panic.
var (
	engineService    driving.EngineService
	extractorService driven.TextExtractor
)

// Persistent flags.
var (
	verboseFlag bool
	configFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Index documents and ask questions about them",
	Long: `askdoc indexes text documents into a local vector store and answers
questions about them using semantic retrieval. No external services
are required with the default embedding backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)

		// Services are built lazily so the --config flag has been
		// parsed by the time the builder sees it.
		if engineService == nil && serviceBuilder != nil {
			engine, extractor, err := serviceBuilder(configFlag)
			if err != nil {
				return err
			}
			engineService = engine
			extractorService = extractor
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file (default ~/.askdoc/config.toml)")
}

// ServiceBuilder constructs the engine and extractor from the config
// file at configPath.
type ServiceBuilder func(configPath string) (driving.EngineService, driven.TextExtractor, error)

var serviceBuilder ServiceBuilder

// SetServiceBuilder registers the factory main uses to wire services
// once flags are parsed.
func SetServiceBuilder(b ServiceBuilder) {
	serviceBuilder = b
}

// SetServices injects the engine and extractor directly, bypassing the
// builder. Used by tests.
func SetServices(engine driving.EngineService, extractor driven.TextExtractor) {
	engineService = engine
	extractorService = extractor
}

// SetVersion records the build version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
