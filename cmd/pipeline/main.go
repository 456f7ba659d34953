package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ml-pipelines/internal/config"
	"ml-pipelines/pkg/logger"
)

var (
	configFile string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pipeline",
	Short:         "Compile ML training pipelines to Argo Workflows",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "optional config file (yaml, json or toml)")
	rootCmd.AddCommand(newCompileCmd(), newQueryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
