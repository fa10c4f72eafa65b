package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cocoonstack/macshift/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version, git revision, and build timestamp",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.String())
		},
	}
}
