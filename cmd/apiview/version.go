package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/apiview/pkg/jsonapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apiview %s (commit: %s, built: %s)\n", version, commit, buildDate)
		fmt.Printf("jsonapi %s\n", jsonapi.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
