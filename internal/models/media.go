package models

import (
	"strconv"
	"strings"
)

// Identifier names a movie or TV item in the metadata service namespace
type Identifier int64

// String returns the decimal form used in upstream URLs
func (id Identifier) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseIdentifier parses a decimal identifier
func ParseIdentifier(s string) (Identifier, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return Identifier(v), nil
}

// MediaKind discriminates movies from TV series
type MediaKind int

const (
	MediaKindUnknown MediaKind = iota
	MediaKindMovie
	MediaKindTV
)

// String returns the path segment used by the metadata service ("movie" or "tv")
func (k MediaKind) String() string {
	switch k {
	case MediaKindMovie:
		return "movie"
	case MediaKindTV:
		return "tv"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a concrete media kind
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindTV
}

// ParseMediaKind converts "movie"/"tv" to a MediaKind
func ParseMediaKind(s string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return MediaKindMovie
	case "tv":
		return MediaKindTV
	default:
		return MediaKindUnknown
	}
}

// MarshalJSON implements json.Marshaler interface
func (k MediaKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (k *MediaKind) UnmarshalJSON(data []byte) error {
	*k = ParseMediaKind(strings.Trim(string(data), `"`))
	return nil
}

// MediaSummary is the list/search representation of a title. It is not enough to render a detail page.
type MediaSummary struct {
	ID           Identifier `json:"id"`
	Kind         MediaKind  `json:"kind"`
	Title        string     `json:"title"`
	PosterPath   string     `json:"poster_path,omitempty"`
	BackdropPath string     `json:"backdrop_path,omitempty"`
	Overview     string     `json:"overview,omitempty"`
	ReleaseDate  string     `json:"release_date,omitempty"`
	VoteAverage  float64    `json:"vote_average,omitempty"`
}

// Genre is a metadata genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited person, in billing order
type CastMember struct {
	PersonID    Identifier `json:"person_id"`
	Name        string     `json:"name"`
	Character   string     `json:"character,omitempty"`
	ProfilePath string     `json:"profile_path,omitempty"`
}

// Trailer points at a hosted trailer video
type Trailer struct {
	Site string `json:"site"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// MediaDetail is the full record used by detail views and resolved dashboard sections
type MediaDetail struct {
	ID             Identifier   `json:"id"`
	Kind           MediaKind    `json:"kind"`
	Title          string       `json:"title"`
	Overview       string       `json:"overview"`
	RuntimeMinutes *int         `json:"runtime_minutes,omitempty"` // movies only
	ReleaseDate    string       `json:"release_date,omitempty"`
	Genres         []Genre      `json:"genres"`
	PosterPath     string       `json:"poster_path,omitempty"`
	BackdropPath   string       `json:"backdrop_path,omitempty"`
	Credits        []CastMember `json:"credits"`
	Trailer        *Trailer     `json:"trailer,omitempty"`
}

// Summary reduces a detail record to its list representation
func (d MediaDetail) Summary() MediaSummary {
	return MediaSummary{
		ID:           d.ID,
		Kind:         d.Kind,
		Title:        d.Title,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		Overview:     d.Overview,
		ReleaseDate:  d.ReleaseDate,
	}
}

// WatchProvider is a streaming/rental offer for a title in one region
type WatchProvider struct {
	ProviderID int    `json:"provider_id"`
	Name       string `json:"name"`
	LogoPath   string `json:"logo_path,omitempty"`
	Offer      string `json:"offer"` // "flatrate", "rent" or "buy"
}
