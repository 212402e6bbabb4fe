package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/apiview/config"
	"github.com/artpar/apiview/core/view"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List registered views",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return err
		}

		reg := view.NewRegistry()
		if err := view.LoadDir(cfg.Views.Dir, reg); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tPATH\tATTRIBUTES\tRELATIONSHIPS")
		for _, v := range reg.List() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				v.Type(), v.Path(), len(v.Attributes()), len(v.Relationships()))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
}
