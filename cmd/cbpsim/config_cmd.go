package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cbpsim/timing/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration.",
		Long: "Print the default configuration as JSON. The output can be " +
			"edited and passed back with `run --config`.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out != "" {
				return config.DefaultConfig().Save(out)
			}

			data, err := json.MarshalIndent(config.DefaultConfig(), "", "  ")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
	cmd.Flags().StringP("out", "o", "", "write the configuration to this file")
	return cmd
}
