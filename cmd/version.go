package cmd

import (
	"fmt"

	"github.com/ndoemo02/Freeflow-Final/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "ff", version.Version)
			return err
		},
	}
}
