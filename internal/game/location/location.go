// Package location models the slash-separated location hierarchy recorded on
// player and NPC documents, e.g. "yangzhou/west-market/drunken-immortal-inn".
package location

import "strings"

// Segments splits a location path into its hierarchy segments, dropping
// empty entries produced by leading, trailing, or doubled separators.
//
// Postcondition: Returns a slice (may be empty); never nil for non-empty paths.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Deepest returns the most specific segment of path, or "" for an empty path.
func Deepest(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Overlaps reports whether two location hierarchies overlap: either the
// deepest segments are identical, or any segment is shared between the two
// paths. Two combatants must overlap to be considered co-located.
//
// Postcondition: Returns false when either path has no segments.
func Overlaps(a, b string) bool {
	segsA := Segments(a)
	segsB := Segments(b)
	if len(segsA) == 0 || len(segsB) == 0 {
		return false
	}
	if segsA[len(segsA)-1] == segsB[len(segsB)-1] {
		return true
	}
	seen := make(map[string]bool, len(segsA))
	for _, s := range segsA {
		seen[s] = true
	}
	for _, s := range segsB {
		if seen[s] {
			return true
		}
	}
	return false
}

// Data is the merged view of a location returned to clients after
// settlement: the path, a prose description, and the notable figures
// currently recorded there.
type Data struct {
	Path        string   `json:"path"`
	Description string   `json:"description,omitempty"`
	Figures     []string `json:"figures,omitempty"`
}
