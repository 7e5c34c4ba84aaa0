package db

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EncodeSet serializes an id set for a JSON array column. A nil set is
// stored as an empty array so json_each always sees valid JSON.
func EncodeSet(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding id set: %w", err)
	}
	return string(b), nil
}

// DecodeSet parses a JSON array column into an id set.
func DecodeSet(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding id set: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// SetWith returns ids with id appended, or ids unchanged if already present.
func SetWith(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(slices.Clone(ids), id)
}

// SetWithout returns ids with every occurrence of id removed.
func SetWithout(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
