package models

import "sort"

// MinLikedForRecommendations is the smallest liked set that may be submitted for recommendations
const MinLikedForRecommendations = 5

// LikedSet is a set of liked identifiers. The zero value is an empty set.
type LikedSet struct {
	ids map[Identifier]struct{}
}

// NewLikedSet builds a set, dropping duplicates
func NewLikedSet(ids ...Identifier) LikedSet {
	s := LikedSet{ids: make(map[Identifier]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Len returns the cardinality of the set
func (s LikedSet) Len() int {
	return len(s.ids)
}

// Contains reports whether id is in the set
func (s LikedSet) Contains(id Identifier) bool {
	_, ok := s.ids[id]
	return ok
}

// With returns a copy of s that also contains id
func (s LikedSet) With(id Identifier) LikedSet {
	c := s.Clone()
	c.ids[id] = struct{}{}
	return c
}

// Without returns a copy of s without id
func (s LikedSet) Without(id Identifier) LikedSet {
	c := s.Clone()
	delete(c.ids, id)
	return c
}

// Clone returns an independent copy
func (s LikedSet) Clone() LikedSet {
	c := LikedSet{ids: make(map[Identifier]struct{}, len(s.ids))}
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}

// IDs returns the identifiers in ascending order
func (s LikedSet) IDs() []Identifier {
	out := make([]Identifier, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MeetsMinimum reports whether the set is large enough to request recommendations
func (s LikedSet) MeetsMinimum(min int) bool {
	return s.Len() >= min
}
