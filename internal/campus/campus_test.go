package campus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ab1-303":      "AB1_303",
		"AB1 303":      "AB1_303",
		"AB1_303":      "AB1_303",
		" ab2--112 ":   "AB2_112",
		"canteen":      "CANTEEN",
		"crossroad_1_": "CROSSROAD_1",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeID(in), "NormalizeID(%q)", in)
	}
}

func TestBuildingOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AB1", BuildingOf("AB1_303"))
	assert.Equal(t, "AB2", BuildingOf("AB2_ENTRANCE"))
	assert.Empty(t, BuildingOf("CANTEEN"))
	assert.Empty(t, BuildingOf("LIBRARY_ENTRANCE"))
}

func TestLocationLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Canteen", Location{ID: "CANTEEN", Name: "Canteen"}.Label())
	assert.Equal(t, "AB1_303", Location{ID: "AB1_303", Name: "AB1_303"}.Label())
	assert.Equal(t, "AB1_303", Location{ID: "AB1_303"}.Label())
}

func TestDatasetValidate(t *testing.T) {
	t.Parallel()

	locs := []Location{{ID: "A"}, {ID: "B"}}
	tests := []struct {
		name    string
		data    Dataset
		wantErr string
	}{
		{name: "valid", data: Dataset{Locations: locs, Edges: []Edge{{From: "A", To: "B", Weight: 1}}}},
		{name: "duplicate location", data: Dataset{Locations: []Location{{ID: "A"}, {ID: "A"}}}, wantErr: "duplicate"},
		{name: "empty id", data: Dataset{Locations: []Location{{ID: ""}}}, wantErr: "empty id"},
		{name: "bad role", data: Dataset{Locations: []Location{{ID: "A", Role: "tower"}}}, wantErr: "role"},
		{name: "dangling edge", data: Dataset{Locations: locs, Edges: []Edge{{From: "A", To: "Z", Weight: 1}}}, wantErr: "unknown target"},
		{name: "zero weight", data: Dataset{Locations: locs, Edges: []Edge{{From: "A", To: "B", Weight: 0}}}, wantErr: "positive"},
		{name: "negative weight", data: Dataset{Locations: locs, Edges: []Edge{{From: "A", To: "B", Weight: -2}}}, wantErr: "positive"},
		{name: "unknown office", data: Dataset{Locations: locs, People: []Person{{ID: "P", FirstName: "X", Office: "Q"}}}, wantErr: "office"},
		{name: "duplicate person", data: Dataset{Locations: locs, People: []Person{{ID: "P", FirstName: "X"}, {ID: "P", FirstName: "Y"}}}, wantErr: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.data.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSampleDataset(t *testing.T) {
	t.Parallel()

	d := SampleDataset()
	require.NoError(t, d.Validate())
	assert.Len(t, d.Locations, 14)
	assert.Len(t, d.Edges, 28)

	// Every corridor has a generic reverse edge.
	var reverse int
	for _, e := range d.Edges {
		if e.Instruction == "go back towards "+e.To {
			reverse++
		}
	}
	assert.Equal(t, 14, reverse)
}

func TestCatalogLookups(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog(SampleDataset())
	require.NoError(t, err)

	locs, edges, people := c.Counts()
	assert.Equal(t, 14, locs)
	assert.Equal(t, 28, edges)
	assert.Equal(t, 4, people)

	loc, ok := c.Location("ab1-303")
	require.True(t, ok)
	assert.Equal(t, "AB1_303", loc.ID)
	assert.Equal(t, "AB1", loc.Building)

	_, ok = c.Location("AB9_999")
	assert.False(t, ok)

	snehas := c.PeopleByFirstName("SNEHA")
	require.Len(t, snehas, 2)
	assert.Equal(t, "T002", snehas[0].ID)
	assert.Equal(t, "T004", snehas[1].ID)
	assert.Empty(t, c.PeopleByFirstName("nobody"))

	matches := c.LocationsMatching("Cafeteria")
	require.Len(t, matches, 1)
	assert.Equal(t, "CANTEEN", matches[0].ID)

	matches = c.LocationsMatching("ab1 303")
	require.Len(t, matches, 1)
	assert.Equal(t, "AB1_303", matches[0].ID)

	phrases := c.Phrases()
	require.NotEmpty(t, phrases)
	for i := 1; i < len(phrases); i++ {
		assert.GreaterOrEqual(t, len(phrases[i-1]), len(phrases[i]), "phrases must be longest first")
	}
}

func TestCatalogSharedAlias(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog(Dataset{Locations: []Location{
		{ID: "AB1_LIFT", Aliases: []string{"lift"}},
		{ID: "AB2_LIFT", Aliases: []string{"lift"}},
	}})
	require.NoError(t, err)

	matches := c.LocationsMatching("Lift")
	require.Len(t, matches, 2)
	assert.Equal(t, "AB1_LIFT", matches[0].ID)
	assert.Equal(t, "AB2_LIFT", matches[1].ID)
}

func TestCatalogIsolatedFromInput(t *testing.T) {
	t.Parallel()

	d := Dataset{Locations: []Location{{ID: "A", Aliases: []string{"alpha"}}}}
	c, err := NewCatalog(d)
	require.NoError(t, err)

	d.Locations[0].Aliases[0] = "mutated"
	loc, _ := c.Location("A")
	assert.Equal(t, []string{"alpha"}, loc.Aliases)
}

func TestPersonFullName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "John Doe", Person{FirstName: "John", LastName: "Doe"}.FullName())
	assert.Equal(t, "Cher", Person{FirstName: "Cher"}.FullName())
}
