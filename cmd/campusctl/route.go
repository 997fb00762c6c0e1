package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/campus"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/navigation"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
)

func newRouteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route <origin> <destination>",
		Short: "Print the shortest route between two locations",
		Long:  `Origin and destination accept location IDs ("AB1_303", "ab1-303") or names and aliases ("library").`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			origin, err := resolveLocation(catalog, args[0])
			if err != nil {
				return err
			}
			destination, err := resolveLocation(catalog, args[1])
			if err != nil {
				return err
			}

			graph, err := pathgraph.FromCatalog(catalog)
			if err != nil {
				return err
			}
			path, err := graph.ShortestPath(cmd.Context(), origin.ID, destination.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "%s\n", navigation.Summary(path))
			steps := navigation.Plan(path)
			for _, s := range steps {
				printf(out, "  %d. %s\n", s.Index+1, navigation.Describe(s, len(steps)))
			}
			return nil
		},
	}
}

// resolveLocation accepts an ID in any spelling, or a phrase naming exactly
// one location.
func resolveLocation(catalog *campus.Catalog, arg string) (campus.Location, error) {
	if loc, ok := catalog.Location(campus.NormalizeID(arg)); ok {
		return loc, nil
	}
	matches := catalog.LocationsMatching(arg)
	switch len(matches) {
	case 0:
		return campus.Location{}, domerrors.LocationNotFound(arg)
	case 1:
		return matches[0], nil
	default:
		labels := make([]string, 0, len(matches))
		for _, m := range matches {
			labels = append(labels, m.Label())
		}
		return campus.Location{}, fmt.Errorf("%q is ambiguous: %s", arg, strings.Join(labels, ", "))
	}
}
