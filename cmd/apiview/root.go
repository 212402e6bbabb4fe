package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apiview",
	Short: "Declarative JSON:API server over schemaless resource views",
	Long: `apiview maps resource graphs to JSON:API documents through declarative
view schemas and serves them over HTTP.

Quick start:
  apiview validate  # Validate configuration and view definitions
  apiview serve     # Start the server

Inspection:
  apiview views     # List registered views`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "apiview.yaml", "config file path")
}
