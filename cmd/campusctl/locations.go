package main

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/campus"
)

func newLocationsCmd(opts *rootOptions) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List locations, optionally filtered by ID, name or alias",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			var locations []campus.Location
			if search != "" {
				locations, err = db.SearchLocations(ctx, search)
			} else {
				var d campus.Dataset
				d, err = db.LoadDataset(ctx)
				locations = d.Locations
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(locations) == 0 {
				printf(out, "No locations found.\n")
				return nil
			}
			for _, loc := range locations {
				printf(out, "%-10s %-10s %s\n", loc.ID, loc.Role, loc.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Substring to match against ID, name and aliases")
	return cmd
}
