package oracle

import (
	"encoding/json"
	"sort"
)

// CombatantDelta is one untrusted per-combatant payload. Pointer fields
// distinguish "absent" from an explicit zero; absent fields leave the
// authoritative value untouched during the merge.
type CombatantDelta struct {
	Name   string   `json:"name"`
	HP     *int     `json:"hp"`
	MaxHP  *int     `json:"maxHp"`
	MP     *int     `json:"mp"`
	MaxMP  *int     `json:"maxMp"`
	Skills []string `json:"skills"`
	Tags   []string `json:"tags"`
}

// DeltaList decodes a list of combatant deltas. The oracle may emit either a
// JSON array or a name-keyed object; both normalize to a slice. Object keys
// override any embedded name field and are ordered lexicographically so the
// result is deterministic.
type DeltaList []CombatantDelta

// UnmarshalJSON implements json.Unmarshaler.
func (l *DeltaList) UnmarshalJSON(data []byte) error {
	var arr []CombatantDelta
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var byName map[string]CombatantDelta
	if err := json.Unmarshal(data, &byName); err != nil {
		// Unusable shape. Treat as empty rather than failing the whole
		// response.
		*l = nil
		return nil
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(DeltaList, 0, len(byName))
	for _, name := range names {
		d := byName[name]
		d.Name = name
		out = append(out, d)
	}
	*l = out
	return nil
}

// Find returns the delta whose name matches exactly, or false.
func (l DeltaList) Find(name string) (CombatantDelta, bool) {
	for _, d := range l {
		if d.Name == name {
			return d, true
		}
	}
	return CombatantDelta{}, false
}

// NameList decodes a list of names. The oracle may emit plain strings or
// objects carrying a name field; both normalize to strings, and entries
// without a usable name are dropped.
type NameList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *NameList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	out := make(NameList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &named); err == nil && named.Name != "" {
			out = append(out, named.Name)
		}
	}
	*l = out
	return nil
}
