package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyellow/campus-navigator/internal/campus"
)

// ErrEmpty is returned by LoadCatalog when no campus has been seeded.
var ErrEmpty = errors.New("storage: campus graph is empty")

// Counts reports the number of rows per table.
type Counts struct {
	Locations int `json:"locations"`
	Edges     int `json:"edges"`
	People    int `json:"people"`
}

// Empty reports whether no locations are stored.
func (c Counts) Empty() bool {
	return c.Locations == 0
}

// Seed replaces the stored campus with d in a single transaction.
// The dataset is validated first; an invalid dataset leaves the store untouched.
func (db *DB) Seed(ctx context.Context, d campus.Dataset) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"people", "edges", "location_aliases", "locations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertLocations(ctx, tx, d.Locations); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, d.Edges); err != nil {
		return err
	}
	if err := insertPeople(ctx, tx, d.People); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

// SeedIfEmpty seeds d only when no locations are stored yet.
// It reports whether anything was written.
func (db *DB) SeedIfEmpty(ctx context.Context, d campus.Dataset) (bool, error) {
	counts, err := db.Counts(ctx)
	if err != nil {
		return false, err
	}
	if !counts.Empty() {
		return false, nil
	}
	if err := db.Seed(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}

func insertLocations(ctx context.Context, tx *sql.Tx, locations []campus.Location) error {
	locStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO locations (id, seq, name, role, building) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare location insert: %w", err)
	}
	defer func() { _ = locStmt.Close() }()

	aliasStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO location_aliases (location_id, seq, alias) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare alias insert: %w", err)
	}
	defer func() { _ = aliasStmt.Close() }()

	for i, loc := range locations {
		if _, err := locStmt.ExecContext(ctx, loc.ID, i, loc.Name, string(loc.Role), loc.Building); err != nil {
			return fmt.Errorf("failed to insert location %s: %w", loc.ID, err)
		}
		for j, alias := range loc.Aliases {
			if _, err := aliasStmt.ExecContext(ctx, loc.ID, j, alias); err != nil {
				return fmt.Errorf("failed to insert alias %q of %s: %w", alias, loc.ID, err)
			}
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, edges []campus.Edge) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (seq, from_id, to_id, weight, instruction) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, i, e.From, e.To, e.Weight, e.Instruction); err != nil {
			return fmt.Errorf("failed to insert edge %s -> %s: %w", e.From, e.To, err)
		}
	}
	return nil
}

func insertPeople(ctx context.Context, tx *sql.Tx, people []campus.Person) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO people (id, seq, first_name, last_name, department, office, email, phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare person insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, p := range people {
		office := sql.NullString{String: p.Office, Valid: p.Office != ""}
		if _, err := stmt.ExecContext(ctx, p.ID, i, p.FirstName, p.LastName, p.Department, office, p.Email, p.Phone); err != nil {
			return fmt.Errorf("failed to insert person %s: %w", p.ID, err)
		}
	}
	return nil
}

// LoadDataset reads the stored campus back in insertion order.
func (db *DB) LoadDataset(ctx context.Context) (campus.Dataset, error) {
	var d campus.Dataset

	locations, err := db.loadLocations(ctx)
	if err != nil {
		return d, err
	}
	edges, err := db.loadEdges(ctx)
	if err != nil {
		return d, err
	}
	people, err := db.loadPeople(ctx)
	if err != nil {
		return d, err
	}

	d.Locations, d.Edges, d.People = locations, edges, people
	return d, nil
}

// LoadCatalog reads the stored campus and builds the immutable catalog.
// It returns ErrEmpty when nothing has been seeded.
func (db *DB) LoadCatalog(ctx context.Context) (*campus.Catalog, error) {
	d, err := db.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}
	if len(d.Locations) == 0 {
		return nil, ErrEmpty
	}
	catalog, err := campus.NewCatalog(d)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return catalog, nil
}

func (db *DB) loadLocations(ctx context.Context) ([]campus.Location, error) {
	aliases, err := db.loadAliases(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, role, building FROM locations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []campus.Location
	for rows.Next() {
		var (
			loc  campus.Location
			role string
		)
		if err := rows.Scan(&loc.ID, &loc.Name, &role, &loc.Building); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		loc.Role = campus.Role(role)
		loc.Aliases = aliases[loc.ID]
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}
	return out, nil
}

func (db *DB) loadAliases(ctx context.Context) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT location_id, alias FROM location_aliases ORDER BY location_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var id, alias string
		if err := rows.Scan(&id, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		out[id] = append(out[id], alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}
	return out, nil
}

func (db *DB) loadEdges(ctx context.Context) ([]campus.Edge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT from_id, to_id, weight, instruction FROM edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []campus.Edge
	for rows.Next() {
		var e campus.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Weight, &e.Instruction); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}
	return out, nil
}

func (db *DB) loadPeople(ctx context.Context) ([]campus.Person, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, first_name, last_name, department, office, email, phone FROM people ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []campus.Person
	for rows.Next() {
		var (
			p      campus.Person
			office sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Department, &office, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		p.Office = office.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return out, nil
}

// Counts returns the number of stored locations, edges and people.
func (db *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	query := `SELECT
		(SELECT COUNT(*) FROM locations),
		(SELECT COUNT(*) FROM edges),
		(SELECT COUNT(*) FROM people)`
	if err := db.conn.QueryRowContext(ctx, query).Scan(&c.Locations, &c.Edges, &c.People); err != nil {
		return Counts{}, fmt.Errorf("failed to count campus rows: %w", err)
	}
	return c, nil
}

// SearchLocations returns locations whose ID, name or alias contains term,
// case-insensitively, in insertion order.
func (db *DB) SearchLocations(ctx context.Context, term string) ([]campus.Location, error) {
	pattern := "%" + sanitizeSearchTerm(term) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT l.id FROM locations l
		LEFT JOIN location_aliases a ON a.location_id = l.id
		WHERE l.id LIKE ? ESCAPE '\' OR l.name LIKE ? ESCAPE '\' OR a.alias LIKE ? ESCAPE '\'
		ORDER BY l.seq`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search locations: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan location id: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	all, err := db.loadLocations(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]campus.Location, 0, len(ids))
	for _, loc := range all {
		if _, ok := want[loc.ID]; ok {
			out = append(out, loc)
		}
	}
	return out, nil
}
