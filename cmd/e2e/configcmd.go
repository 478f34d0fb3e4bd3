package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	var envName, dir string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved suite configuration as YAML",
		Long: `Resolve the configuration the browser suite would use and print it as YAML.
Password, API key and cloud credentials are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(envName, dir)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg.Redacted())
		},
	}
	cmd.Flags().StringVar(&envName, "env", "", "environment name (default $NODE_ENV or local)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding env.<name> files")
	return cmd
}
