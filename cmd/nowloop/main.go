package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/nowloop/internal/config"
)

var version = "0.1.0"

var (
	argConfigPath string

	rootCmd = &cobra.Command{
		Use:           "nowloop",
		Short:         "Control plane of a live looping engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&argConfigPath, "config", "c", "", "YAML config file (overrides NOWLOOP_CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, keysCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, falling back to the
// environment.
func loadConfig() (config.Config, error) {
	if argConfigPath != "" {
		if err := os.Setenv("NOWLOOP_CONFIG_PATH", argConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}
