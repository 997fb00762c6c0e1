package main

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version := buildinfo.Version
			if version == "" {
				version = "dev"
			}
			printf(cmd.OutOrStdout(), "campusctl %s (commit %s)\n", version, buildinfo.Commit)
		},
	}
}
