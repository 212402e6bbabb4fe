package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/apiview/config"
	"github.com/artpar/apiview/core/view"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and view definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		fmt.Println("config: ok")

		reg := view.NewRegistry()
		if err := view.LoadDir(cfg.Views.Dir, reg); err != nil {
			return fmt.Errorf("views: %w", err)
		}
		fmt.Printf("views: ok (%d registered)\n", len(reg.List()))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
