package session

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/cache"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// storedState is the serialized form of State
type storedState struct {
	UserID *models.Identifier  `json:"user_id,omitempty"`
	Liked  []models.Identifier `json:"liked"`
}

// Store keeps session state between API calls, keyed by an opaque token.
// The core never persists sessions; this is the API layer's bookkeeping.
type Store struct {
	backend cache.Cache
}

// NewStore creates a store on top of a cache
func NewStore(backend cache.Cache) *Store {
	return &Store{backend: backend}
}

// Create starts an empty session and returns its token
func (s *Store) Create() string {
	token := uuid.NewString()
	s.Save(token, State{Liked: models.NewLikedSet()})
	return token
}

// Load returns the session for token, or *apperrors.ErrNotFound when it is unknown or expired
func (s *Store) Load(token string) (*Session, *Writer, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, nil, apperrors.NewNotFoundError("session", token)
	}
	raw, ok := s.backend.Get(token)
	if !ok {
		return nil, nil, apperrors.NewNotFoundError("session", token)
	}

	var stored storedState
	if err := json.Unmarshal(raw, &stored); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Msg("Discarding unreadable session")
		s.backend.Delete(token)
		return nil, nil, apperrors.NewNotFoundError("session", token)
	}

	sess, w := Restore(State{UserID: stored.UserID, Liked: models.NewLikedSet(stored.Liked...)})
	return sess, w, nil
}

// Save writes the current state for token
func (s *Store) Save(token string, state State) {
	data, err := json.Marshal(storedState{UserID: state.UserID, Liked: state.Liked.IDs()})
	if err != nil {
		logger := config.GetLogger()
		logger.Error().Err(err).Msg("Failed to encode session")
		return
	}
	s.backend.Set(token, data)
}

// Delete forgets token
func (s *Store) Delete(token string) {
	s.backend.Delete(token)
}
