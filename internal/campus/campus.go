// Package campus defines the campus knowledge model: locations, the directed
// corridors between them and the people who have offices there.
// Values are immutable once loaded into a Catalog.
package campus

import (
	"fmt"
	"strings"
	"unicode"
)

// Role classifies a location.
type Role string

// Location roles
const (
	RoleRoom     Role = "room"
	RoleJunction Role = "junction"
	RoleLandmark Role = "landmark"
	RoleEntrance Role = "entrance"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoom, RoleJunction, RoleLandmark, RoleEntrance:
		return true
	}
	return false
}

// Location is a node of the campus graph.
type Location struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Building string   `json:"building,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Label is the human-readable form used in replies: "Canteen" or "AB1_303".
func (l Location) Label() string {
	if l.Name != "" && l.Name != l.ID {
		return l.Name
	}
	return l.ID
}

// Edge is a directed corridor. An undirected corridor is two Edge values.
type Edge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Weight      float64 `json:"weight"`
	Instruction string  `json:"instruction"`
}

// Person is a staff member reachable through the assistant.
type Person struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department,omitempty"`
	Office     string `json:"office,omitempty"` // Location ID
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// NormalizeID maps user spellings of a location code to the canonical ID:
// "ab1-303", "ab1 303" and "AB1_303" all become "AB1_303".
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if b.Len() > 0 && !sep {
				b.WriteByte('_')
				sep = true
			}
		default:
			b.WriteRune(unicode.ToUpper(r))
			sep = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// BuildingOf derives the building code from a location ID: "AB1_303" → "AB1".
// IDs whose prefix carries no digit ("CANTEEN", "LIBRARY_ENTRANCE") have no building.
func BuildingOf(id string) string {
	prefix, _, found := strings.Cut(id, "_")
	if !found {
		return ""
	}
	if !strings.ContainsFunc(prefix, unicode.IsDigit) {
		return ""
	}
	return prefix
}

// Dataset is a complete, unvalidated campus description.
type Dataset struct {
	Locations []Location `json:"locations"`
	Edges     []Edge     `json:"edges"`
	People    []Person   `json:"people"`
}

// Validate checks referential integrity and edge weights.
func (d Dataset) Validate() error {
	ids := make(map[string]struct{}, len(d.Locations))
	for i, loc := range d.Locations {
		if loc.ID == "" {
			return fmt.Errorf("location %d: empty id", i)
		}
		if _, dup := ids[loc.ID]; dup {
			return fmt.Errorf("location %s: duplicate id", loc.ID)
		}
		if loc.Role != "" && !loc.Role.Valid() {
			return fmt.Errorf("location %s: unknown role %q", loc.ID, loc.Role)
		}
		ids[loc.ID] = struct{}{}
	}
	for i, e := range d.Edges {
		if _, ok := ids[e.From]; !ok {
			return fmt.Errorf("edge %d: unknown source %q", i, e.From)
		}
		if _, ok := ids[e.To]; !ok {
			return fmt.Errorf("edge %d: unknown target %q", i, e.To)
		}
		if !(e.Weight > 0) {
			return fmt.Errorf("edge %d (%s -> %s): weight must be positive, got %v", i, e.From, e.To, e.Weight)
		}
	}
	people := make(map[string]struct{}, len(d.People))
	for i, p := range d.People {
		if p.ID == "" || p.FirstName == "" {
			return fmt.Errorf("person %d: id and first name are required", i)
		}
		if _, dup := people[p.ID]; dup {
			return fmt.Errorf("person %s: duplicate id", p.ID)
		}
		if p.Office != "" {
			if _, ok := ids[p.Office]; !ok {
				return fmt.Errorf("person %s: unknown office %q", p.ID, p.Office)
			}
		}
		people[p.ID] = struct{}{}
	}
	return nil
}
