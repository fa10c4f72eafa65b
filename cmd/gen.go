package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cocoonstack/macshift/mac"
)

func genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Print random locally administered MAC addresses without applying them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("count")
			if n <= 0 {
				return errors.New("--count must be positive")
			}
			for range n {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), mac.Generate())
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "number of addresses")
	return cmd
}
