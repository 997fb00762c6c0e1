package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-navigator/internal/campus"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "sub1", "sub2", "campus.db")

	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
	assert.Equal(t, dbPath, db.Path())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestSeedAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	sample := campus.SampleDataset()

	require.NoError(t, db.Seed(ctx, sample))

	got, err := db.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample.Locations, got.Locations)
	assert.Equal(t, sample.Edges, got.Edges)
	assert.Equal(t, sample.People, got.People)
}

func TestSeedReplacesPreviousCampus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.Seed(ctx, campus.SampleDataset()))

	small := campus.Dataset{
		Locations: []campus.Location{
			{ID: "GATE", Name: "Gate", Role: campus.RoleEntrance},
			{ID: "HALL", Name: "Hall", Role: campus.RoleLandmark, Aliases: []string{"main hall"}},
		},
		Edges: []campus.Edge{{From: "GATE", To: "HALL", Weight: 3, Instruction: "walk in"}},
	}
	require.NoError(t, db.Seed(ctx, small))

	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Locations: 2, Edges: 1, People: 0}, counts)
}

func TestSeedRejectsInvalidDataset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.Seed(ctx, campus.SampleDataset()))
	before, err := db.Counts(ctx)
	require.NoError(t, err)

	bad := campus.Dataset{
		Locations: []campus.Location{{ID: "A"}},
		Edges:     []campus.Edge{{From: "A", To: "MISSING", Weight: 1}},
	}
	require.Error(t, db.Seed(ctx, bad))

	after, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed seed must leave the store untouched")
}

func TestSeedIfEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)

	seeded, err := db.SeedIfEmpty(ctx, campus.SampleDataset())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = db.SeedIfEmpty(ctx, campus.Dataset{Locations: []campus.Location{{ID: "X"}}})
	require.NoError(t, err)
	assert.False(t, seeded, "a populated store is never reseeded")

	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(campus.SampleDataset().Locations), counts.Locations)
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.LoadCatalog(ctx)
	require.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, db.Seed(ctx, campus.SampleDataset()))
	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)

	loc, ok := catalog.Location("CANTEEN")
	require.True(t, ok)
	assert.Equal(t, "Canteen", loc.Name)

	people := catalog.PeopleByFirstName("sneha")
	assert.NotEmpty(t, people)
}

func TestSearchLocations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.Seed(ctx, campus.SampleDataset()))

	tests := []struct {
		term string
		want []string
	}{
		{term: "cafeteria", want: []string{"CANTEEN"}},
		{term: "ab1_3", want: []string{"AB1_303", "AB1_310"}},
		{term: "LIFT", want: []string{"AB1_LIFT", "AB2_LIFT"}},
		{term: "%", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := db.SearchLocations(ctx, tt.term)
			require.NoError(t, err)
			var ids []string
			for _, loc := range got {
				ids = append(ids, loc.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
