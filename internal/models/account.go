package models

// Profile is the registration payload sent to the companion backend
type Profile struct {
	Username      string       `json:"username"`
	Password      string       `json:"password"`
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name,omitempty"`
	BirthDay      int          `json:"day"`
	BirthMonth    int          `json:"month"`
	BirthYear     int          `json:"year"`
	Country       string       `json:"country"`
	Gender        string       `json:"gender,omitempty"`
	LikedMovieIDs []Identifier `json:"liked_movie_ids,omitempty"`
}

// RegisterResult is returned by a successful registration
type RegisterResult struct {
	UserID        Identifier   `json:"user_id"`
	LikedMovieIDs []Identifier `json:"liked_movie_ids"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	UserID Identifier `json:"user_id"`
}

// Availability is the tri-state outcome of a username check
type Availability int

const (
	// AvailabilityUnknown means the check could not be completed
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityTaken
)

// String returns the representation used by the API
func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler interface
func (a Availability) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// WatchlistEntry is owned by the companion backend. Identity is (UserID, MediaID, MediaKind).
type WatchlistEntry struct {
	UserID     Identifier `json:"user_id"`
	MediaID    Identifier `json:"movie_id"`
	MediaKind  MediaKind  `json:"media_type"`
	Title      string     `json:"movie_title"`
	PosterPath string     `json:"poster_path"`
}

// AddOutcome reports whether a watchlist add created a new entry
type AddOutcome int

const (
	AddOutcomeAdded AddOutcome = iota + 1
	AddOutcomeAlreadyPresent
)

// String returns the representation used by the API
func (o AddOutcome) String() string {
	switch o {
	case AddOutcomeAdded:
		return "added"
	case AddOutcomeAlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler interface
func (o AddOutcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}
