// Package cmd provides CLI command implementations for sandboxtest.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandboxtest/sandboxtest/internal/config"
	"github.com/sandboxtest/sandboxtest/internal/output"
	"github.com/sandboxtest/sandboxtest/internal/runtime"
)

var (
	configFlag   string
	rootDirFlag  string
	verboseFlag  bool
	automockFlag bool

	resolvedConfig *runtime.Config
)

// NewRootCmd creates the root command for the sandboxtest CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sandboxtest",
		Short:         "A sandboxed module loader and mocking engine for running tests",
		Long:          `sandboxtest loads modules into an isolated registry, resolves real-vs-mock per file, and drives tests against them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: SANDBOXTEST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root-dir", "", "Root directory to resolve modules from")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&automockFlag, "automock", false, "Automatically mock every required module by default")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging, mirroring
// the precedence the teacher's root command resolves (flag > env >
// file > default).
func initializeGlobals(cmd *cobra.Command) error {
	output.SetupLogging(output.LogConfig{Verbose: verboseFlag})

	var automockOverride *bool
	if cmd.Flags().Changed("automock") {
		automockOverride = &automockFlag
	}

	configPath := configFlag
	if configPath == "" {
		configPath = os.Getenv("SANDBOXTEST_CONFIG")
	}

	raw, err := config.Load(config.LoaderOptions{
		ConfigFlag:   configPath,
		RootDirFlag:  rootDirFlag,
		AutomockFlag: automockOverride,
		VerboseFlag:  verboseFlag,
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	compiled, err := runtime.Compile(*raw)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	resolvedConfig = compiled

	if verboseFlag {
		output.Debug("resolved configuration", "rootDir", compiled.RootDir, "automock", compiled.Automock)
	}

	return nil
}

// GetResolvedConfig returns the configuration resolved by initializeGlobals.
func GetResolvedConfig() *runtime.Config {
	return resolvedConfig
}
