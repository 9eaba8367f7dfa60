package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "xsys",
	Short:         "xsys - event bus tooling",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(relayCmd)
}
