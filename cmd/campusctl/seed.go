package main

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/campus"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var ifEmpty bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample campus into the store",
		Long:  `Replaces every location, corridor and staff record with the built-in sample campus.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if ifEmpty {
				seeded, err := db.SeedIfEmpty(ctx, campus.SampleDataset())
				if err != nil {
					return err
				}
				if !seeded {
					printf(cmd.OutOrStdout(), "Store %s already has data, nothing to do.\n", db.Path())
					return nil
				}
			} else if err := db.Seed(ctx, campus.SampleDataset()); err != nil {
				return err
			}

			counts, err := db.Counts(ctx)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Seeded %s: %d locations, %d edges, %d people\n",
				db.Path(), counts.Locations, counts.Edges, counts.People)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ifEmpty, "if-empty", false, "Only seed when the store has no locations")
	return cmd
}
