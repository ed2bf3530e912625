package model

import (
	"encoding/json"
	"strings"
)

// MaterialsDelimiter separates resource links in the stored materials column.
const MaterialsDelimiter = "|"

// Materials is the ordered, de-duplicated list of resource links attached to a session.
type Materials []string

// ParseMaterials splits the stored representation, dropping blanks and repeated links
// while keeping first-seen order.
func ParseMaterials(raw string) Materials {
	if strings.TrimSpace(raw) == "" {
		return Materials{}
	}
	return NewMaterials(strings.Split(raw, MaterialsDelimiter)...)
}

// NewMaterials builds a de-duplicated list from links.
func NewMaterials(links ...string) Materials {
	seen := make(map[string]struct{}, len(links))
	out := make(Materials, 0, len(links))
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// String renders the stored representation.
func (m Materials) String() string {
	return strings.Join(m, MaterialsDelimiter)
}

// MarshalJSON always emits an array, never null.
func (m Materials) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(m))
}
