package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the classification service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		status, err := rt.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", rt.client.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rt.client.BaseURL(), status)
		return nil
	},
}
