package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgFile is optional; without it configuration comes from the environment.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Generative AI gateway",
	Long: `gateway fronts a generative AI service for web clients.

It exposes two endpoints:
  - POST /generate-stream    relays generated text as a plain-text stream
  - POST /generate-subtasks  returns a validated JSON array of subtasks`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file path")
}
