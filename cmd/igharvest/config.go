package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igharvest/pkg/config"
	"igharvest/pkg/ui"
)

const defaultConfigPath = ".igharvest.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igharvest configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (IGHARVEST_*)
  - .env and ~/.igharvest.env
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write every option with its default value to .igharvest.yaml, or to the
path given with --config. An existing file is never overwritten.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust budgets and timings in the file")
	fmt.Println("2. Run 'igharvest config validate' to check it")
	fmt.Println("3. Start a run with 'igharvest run <profile>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if path := config.Locate(configFile); path != "" {
		fmt.Printf("\nConfiguration file: %s\n", path)
	} else {
		fmt.Println("\nConfiguration file: (none, defaults in use)")
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := config.Locate(configFile)
	if path == "" {
		return fmt.Errorf("no configuration file found, specify one with --config")
	}
	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	if cfg.Browser.ControlURL == "" && cfg.Browser.Headless {
		ui.PrintWarning("Headless launches are usually shown the login wall; consider control_url")
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Mode: %s\n", cfg.Collection.Mode)
	fmt.Printf("  Target posts: %d (smart %d)\n", cfg.Collection.TargetPosts, cfg.Collection.SmartTargetPosts)
	fmt.Printf("  Classifier signals: %s\n", strings.Join(cfg.Carousel.Signals, ", "))
	fmt.Printf("  Export: %s to %s\n", strings.Join(cfg.Export.Formats, ", "), cfg.Export.OutputDir)
	fmt.Printf("  Fetch concurrency: %d\n", cfg.Export.Concurrency)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
