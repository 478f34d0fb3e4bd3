// Command e2e runs the fixture demo site and inspects the suite configuration.
//
//	e2e serve [--addr :3000]
//	e2e config [--env NAME] [--dir DIR]
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kuitang/internet-e2e/internal/obs"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "e2e",
		Short: "Browser end-to-end suite utilities",
		Long: `e2e hosts the demo site the browser suite targets by default and prints
the configuration a suite run would resolve from env.<name> files and the
process environment.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func main() {
	obs.Init()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
