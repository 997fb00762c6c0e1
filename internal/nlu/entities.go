package nlu

// Role tells how a location mention relates to the requested route.
type Role int

// Mention roles
const (
	RoleNone        Role = iota
	RoleOrigin           // "from X"
	RoleDestination      // "to X"
	RoleCurrent          // "at X", "I'm in X"
)

func (r Role) String() string {
	switch r {
	case RoleOrigin:
		return "origin"
	case RoleDestination:
		return "destination"
	case RoleCurrent:
		return "current"
	default:
		return "none"
	}
}

// Mention is a location phrase found in the text. IDs holds every matching
// location: none for a code-like phrase the catalog does not know, several
// for a shared alias.
type Mention struct {
	Phrase string
	Role   Role
	IDs    []string
}

// Known reports whether the phrase matched at least one location.
func (m Mention) Known() bool { return len(m.IDs) > 0 }

// Ambiguous reports whether the phrase matched more than one location.
func (m Mention) Ambiguous() bool { return len(m.IDs) > 1 }

// Entities is everything the extractor recognised in one message.
type Entities struct {
	Text     string    // original message, used for choice selection and affirmation
	Mentions []Mention // location mentions in order of appearance
	People   []string  // first names present in the catalog, canonical spelling
	// PersonQuery is the word following a lookup phrase ("who is X") when it
	// names nobody in the catalog.
	PersonQuery string
}

// HasLocations reports whether any location phrase was found.
func (e Entities) HasLocations() bool { return len(e.Mentions) > 0 }

// HasPeople reports whether any known first name was found.
func (e Entities) HasPeople() bool { return len(e.People) > 0 }

// Empty reports whether nothing was recognised.
func (e Entities) Empty() bool {
	return len(e.Mentions) == 0 && len(e.People) == 0 && e.PersonQuery == ""
}

// WithRole returns the mentions carrying role r.
func (e Entities) WithRole(r Role) []Mention {
	var out []Mention
	for _, m := range e.Mentions {
		if m.Role == r {
			out = append(out, m)
		}
	}
	return out
}
