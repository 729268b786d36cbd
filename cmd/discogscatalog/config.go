package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"discogscatalog/pkg/config"
	"discogscatalog/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage discogscatalog configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (DISCOGS_*)
  - .env files
  - Configuration file (YAML or TOML)
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file holding every option with its default value.

The file is written to --config, or discogscatalog.yaml in the current
directory. A .toml extension writes TOML instead of YAML.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The auth token is
masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it. Besides the
required values this checks that the cache and output directories can be
created.`,
	RunE: runConfigValidate,
}

var showTOML bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().BoolVar(&showTOML, "toml", false, "print TOML instead of YAML")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "discogscatalog.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	cfg := config.DefaultConfig()
	cfg.Collection.FolderName = "All"
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.Println("\nNext steps:")
	ui.Println("1. Set collection.folder_name to the folder you want to render")
	ui.Println("2. Run 'discogscatalog auth login' or set discogs.auth_token")
	ui.Println("3. Run 'discogscatalog config validate'")
	ui.Println("4. Build the catalog with 'discogscatalog build'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	data, err := marshalConfig(cfg.Masked(), showTOML)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	ui.Println(strings.TrimRight(string(data), "\n"))
	return nil
}

func marshalConfig(cfg *config.Config, asTOML bool) ([]byte, error) {
	if asTOML {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	problems, warnings := checkConfig(cfg)

	for _, w := range warnings {
		ui.PrintWarning("warning", w)
	}
	if len(problems) > 0 {
		for _, p := range problems {
			ui.PrintError("invalid", p)
		}
		return errors.New("configuration is invalid")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Folder", cfg.Collection.FolderName)
	ui.PrintInfo("Max releases", fmt.Sprint(cfg.Collection.MaxReleases))
	ui.PrintInfo("Request spacing", cfg.MinInterval().String())
	ui.PrintInfo("Cache", cfg.Cache.Dir)
	ui.PrintInfo("Report", cfg.ReportPath())
	return nil
}

// checkConfig runs Validate plus filesystem checks. A missing token is only
// a warning since it may come from the credential store at build time.
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	probe := *cfg
	if probe.Discogs.AuthToken == "" {
		probe.Discogs.AuthToken = "stored"
		warnings = append(warnings, "no auth token configured, 'auth login' credentials will be used")
	}
	if err := probe.Validate(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}

	if cfg.Collection.FolderName == "" {
		warnings = append(warnings, "collection.folder_name is empty, pass --folder or --pick-folder")
	}

	for _, dir := range []string{cfg.Cache.Dir, cfg.Output.Dir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s: %v", dir, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	return problems, warnings
}
