package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed is returned when a stored map is not a JSON object.
var ErrMalformed = errors.New("annotation map is not a JSON object")

// Map assigns a tag to each annotated node id.
type Map map[string]string

// Clone returns an independent copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, tag := range m {
		out[id] = tag
	}
	return out
}

// IDs returns the node ids in sorted order.
func (m Map) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Equal reports whether both maps hold the same entries.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for id, tag := range m {
		if t, ok := other[id]; !ok || t != tag {
			return false
		}
	}
	return true
}

// Counts returns the number of nodes carrying each tag.
func (m Map) Counts() map[string]int {
	counts := make(map[string]int)
	for _, tag := range m {
		counts[tag]++
	}
	return counts
}

// Decode parses a stored annotation map. Empty input decodes to an empty map.
// Entries whose value is not a string are dropped; anything other than a JSON
// object yields ErrMalformed.
func Decode(data []byte) (Map, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Map{}, nil
	}
	if data[0] != '{' {
		return nil, ErrMalformed
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m := make(Map, len(raw))
	for id, v := range raw {
		if tag, ok := v.(string); ok {
			m[id] = tag
		}
	}
	return m, nil
}

// Encode serializes the map. A nil map encodes as {}.
func (m Map) Encode() ([]byte, error) {
	if m == nil {
		m = Map{}
	}
	return json.Marshal(map[string]string(m))
}
