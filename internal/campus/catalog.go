package campus

import (
	"fmt"
	"slices"
	"strings"

	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// Catalog is an immutable snapshot of the campus with lookup helpers.
// It is safe for concurrent use. Slices inside returned values are shared
// and must not be modified.
type Catalog struct {
	locations   []Location
	byID        map[string]int
	edges       []Edge
	people      []Person
	personByID  map[string]int
	byFirstName map[string][]int
	byPhrase    map[string][]string
	phrases     []string
}

// NewCatalog validates d and builds the lookup indexes.
// Missing building codes are derived from the location ID.
func NewCatalog(d Dataset) (*Catalog, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("campus dataset: %w", err)
	}

	c := &Catalog{
		locations:   make([]Location, 0, len(d.Locations)),
		byID:        make(map[string]int, len(d.Locations)),
		edges:       slices.Clone(d.Edges),
		people:      slices.Clone(d.People),
		personByID:  make(map[string]int, len(d.People)),
		byFirstName: make(map[string][]int),
		byPhrase:    make(map[string][]string),
	}

	for _, loc := range d.Locations {
		loc.Aliases = slices.Clone(loc.Aliases)
		if loc.Building == "" {
			loc.Building = BuildingOf(loc.ID)
		}
		if loc.Role == "" {
			loc.Role = RoleRoom
		}
		c.locations = append(c.locations, loc)
	}
	slices.SortFunc(c.locations, func(a, b Location) int { return strings.Compare(a.ID, b.ID) })

	for i, loc := range c.locations {
		c.byID[loc.ID] = i
		c.addPhrase(loc.ID, loc.ID)
		c.addPhrase(strings.ReplaceAll(loc.ID, "_", " "), loc.ID)
		if loc.Name != "" {
			c.addPhrase(loc.Name, loc.ID)
		}
		for _, alias := range loc.Aliases {
			c.addPhrase(alias, loc.ID)
		}
	}
	for phrase := range c.byPhrase {
		c.phrases = append(c.phrases, phrase)
	}
	// Longest first so "ab1 entrance" wins over "ab1".
	slices.SortFunc(c.phrases, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	slices.SortFunc(c.people, func(a, b Person) int { return strings.Compare(a.ID, b.ID) })
	for i, p := range c.people {
		c.personByID[p.ID] = i
		key := stringutil.Fold(strings.TrimSpace(p.FirstName))
		c.byFirstName[key] = append(c.byFirstName[key], i)
	}

	return c, nil
}

func (c *Catalog) addPhrase(phrase, id string) {
	key := stringutil.Normalize(phrase)
	if key == "" {
		return
	}
	if !slices.Contains(c.byPhrase[key], id) {
		c.byPhrase[key] = append(c.byPhrase[key], id)
	}
}

// Location returns the location with the given ID. The ID is normalised first,
// so "ab1-303" finds "AB1_303".
func (c *Catalog) Location(id string) (Location, bool) {
	i, ok := c.byID[NormalizeID(id)]
	if !ok {
		return Location{}, false
	}
	return c.locations[i], true
}

// Locations returns all locations sorted by ID.
func (c *Catalog) Locations() []Location {
	return slices.Clone(c.locations)
}

// Edges returns all edges in load order.
func (c *Catalog) Edges() []Edge {
	return slices.Clone(c.edges)
}

// People returns all people sorted by ID.
func (c *Catalog) People() []Person {
	return slices.Clone(c.people)
}

// Person returns the person with the given ID.
func (c *Catalog) Person(id string) (Person, bool) {
	i, ok := c.personByID[id]
	if !ok {
		return Person{}, false
	}
	return c.people[i], true
}

// PeopleByFirstName returns everyone whose first name matches name,
// case-insensitively, sorted by ID.
func (c *Catalog) PeopleByFirstName(name string) []Person {
	idx := c.byFirstName[stringutil.Fold(strings.TrimSpace(name))]
	out := make([]Person, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.people[i])
	}
	return out
}

// LocationsMatching returns the locations whose ID, name or alias equals
// text after normalisation. More than one result means the phrase is shared.
func (c *Catalog) LocationsMatching(text string) []Location {
	ids := c.byPhrase[stringutil.Normalize(text)]
	if len(ids) == 0 {
		if loc, ok := c.Location(text); ok {
			return []Location{loc}
		}
		return nil
	}
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.locations[c.byID[id]])
	}
	return out
}

// Phrases returns every normalised ID, name and alias, longest first.
// The entity extractor scans messages for these.
func (c *Catalog) Phrases() []string {
	return slices.Clone(c.phrases)
}

// Dataset returns a copy of the catalog contents.
func (c *Catalog) Dataset() Dataset {
	return Dataset{Locations: c.Locations(), Edges: c.Edges(), People: c.People()}
}

// Counts reports the size of the catalog.
func (c *Catalog) Counts() (locations, edges, people int) {
	return len(c.locations), len(c.edges), len(c.people)
}
