package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/storage"
)

type rootOptions struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "campusctl",
		Short:         "Campus navigator administration and local chat",
		Long:          `campusctl seeds the campus store, prints routes and talks to the assistant without any network transport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite path (defaults to $"+config.EnvDataDir+"/campus.db)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level for diagnostics on stderr")

	cmd.AddCommand(
		newSeedCmd(opts),
		newRouteCmd(opts),
		newLocationsCmd(opts),
		newChatCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// resolveDBPath falls back to the server's configured location.
func (o *rootOptions) resolveDBPath() (string, error) {
	if o.dbPath != "" {
		return o.dbPath, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.SQLitePath(), nil
}

func (o *rootOptions) openDB(ctx context.Context) (*storage.DB, error) {
	path, err := o.resolveDBPath()
	if err != nil {
		return nil, err
	}
	return storage.New(ctx, path)
}

// loadCatalog opens the store and reads the campus graph, closing the store
// before returning.
func (o *rootOptions) loadCatalog(ctx context.Context) (*campus.Catalog, error) {
	db, err := o.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	loadCtx, cancel := context.WithTimeout(ctx, config.CatalogLoad)
	defer cancel()
	catalog, err := db.LoadCatalog(loadCtx)
	if err != nil {
		return nil, fmt.Errorf("load campus graph from %s: %w", db.Path(), err)
	}
	return catalog, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
