package storage

import "strings"

var likeEscaper = strings.NewReplacer(
	"\\", "\\\\", // backslash first
	"%", "\\%",
	"_", "\\_",
)

// sanitizeSearchTerm escapes the LIKE wildcards % and _ (and the escape
// character itself) so user input matches literally. Location IDs such as
// "AB1_303" contain underscores, which would otherwise match any character.
func sanitizeSearchTerm(term string) string {
	return likeEscaper.Replace(term)
}
