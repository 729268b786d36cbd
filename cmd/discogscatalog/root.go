package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"discogscatalog/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	debug      bool
	quiet      bool
	noLogo     bool
)

var rootCmd = &cobra.Command{
	Use:   "discogscatalog",
	Short: "Render a Discogs collection folder as a static HTML catalog",
	Long: `discogscatalog fetches the releases of one folder of your Discogs
collection, enriches them with release details, marketplace price
suggestions and a thumbnail, and writes a static HTML catalog.

Enriched releases are cached on disk, so later runs only ask Discogs about
releases they have not seen before. Requests are spaced one second apart by
default to stay within the Discogs rate limit.

Running without a subcommand is the same as 'discogscatalog build'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if !noLogo && cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args)
	},
}

// Execute runs the root command and exits 1 on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./discogscatalog.yaml or ~/.config/discogscatalog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and print the effective configuration")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&noLogo, "no-logo", false, "do not print the banner")

	// build flags are also accepted without the subcommand
	addBuildFlags(rootCmd)

	rootCmd.SetVersionTemplate(`discogscatalog {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags config.MergeCommandLineFlags
// understands
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if debug {
		flags["debug"] = true
	}
	return flags
}
