package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Every table carries a seq column so a dataset loads back in the order it
// was written.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createLocationsTable(ctx, db); err != nil {
		return err
	}
	if err := createEdgesTable(ctx, db); err != nil {
		return err
	}
	return createPeopleTable(ctx, db)
}

func createLocationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT CHECK(role IN ('', 'room', 'junction', 'landmark', 'entrance')) NOT NULL DEFAULT '',
		building TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS location_aliases (
		location_id TEXT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		alias TEXT NOT NULL,
		PRIMARY KEY (location_id, alias)
	);
	CREATE INDEX IF NOT EXISTS idx_location_aliases_alias ON location_aliases(alias);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}
	return nil
}

func createEdgesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS edges (
		seq INTEGER PRIMARY KEY,
		from_id TEXT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		to_id TEXT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		weight REAL NOT NULL CHECK(weight > 0),
		instruction TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create edges table: %w", err)
	}
	return nil
}

func createPeopleTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		office TEXT REFERENCES locations(id) ON DELETE SET NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_people_first_name ON people(first_name COLLATE NOCASE);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create people table: %w", err)
	}
	return nil
}
