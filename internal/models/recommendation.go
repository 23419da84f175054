package models

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// RecommendationResult holds identifiers returned by the recommendation service.
// The service may group them by internal category and repeat an identifier across groups.
type RecommendationResult struct {
	Groups map[string][]Identifier
}

// ungroupedKey holds identifiers sent as a flat list
const ungroupedKey = ""

// NewRecommendationResult builds an ungrouped result
func NewRecommendationResult(ids ...Identifier) RecommendationResult {
	return RecommendationResult{Groups: map[string][]Identifier{ungroupedKey: ids}}
}

// Empty reports whether the service returned no identifiers at all
func (r RecommendationResult) Empty() bool {
	for _, ids := range r.Groups {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// Unique returns each identifier once. Groups are walked in name order and identifiers
// in the order the service sent them, so the output is deterministic.
func (r RecommendationResult) Unique() []Identifier {
	names := make([]string, 0, len(r.Groups))
	for name := range r.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[Identifier]struct{})
	var out []Identifier
	for _, name := range names {
		for _, id := range r.Groups[name] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// UnmarshalJSON accepts either a flat list of identifiers or an object of named lists
func (r *RecommendationResult) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.Groups = map[string][]Identifier{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var ids []Identifier
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("decode recommendation list: %w", err)
		}
		r.Groups = map[string][]Identifier{ungroupedKey: ids}
	case '{':
		var groups map[string][]Identifier
		if err := json.Unmarshal(trimmed, &groups); err != nil {
			return fmt.Errorf("decode recommendation groups: %w", err)
		}
		r.Groups = groups
	default:
		return fmt.Errorf("unexpected recommendation payload starting with %q", trimmed[0])
	}
	return nil
}
