package session

import (
	"sync"

	"github.com/Belphemur/MovieMatch/internal/models"
)

// State is an immutable view of a session. Readers such as the dashboard only ever see State.
type State struct {
	UserID *models.Identifier
	Liked  models.LikedSet
}

// SignedIn reports whether a user is attached to the session
func (s State) SignedIn() bool {
	return s.UserID != nil
}

// Session holds the current user and liked set for one client.
// It is created empty and only changed through its Writer.
type Session struct {
	mu    sync.RWMutex
	state State
}

// Writer is the only handle allowed to change a Session. New returns exactly one per Session.
type Writer struct {
	s *Session
}

// New creates an empty session and its single writer
func New() (*Session, *Writer) {
	s := &Session{state: State{Liked: models.NewLikedSet()}}
	return s, &Writer{s: s}
}

// Restore creates a session from a previously taken snapshot
func Restore(state State) (*Session, *Writer) {
	s, w := New()
	s.state = copyState(state)
	return s, w
}

// Snapshot returns a copy that later writes do not affect
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// SignIn attaches userID and replaces the liked set
func (w *Writer) SignIn(userID models.Identifier, liked models.LikedSet) {
	w.update(func(st *State) {
		id := userID
		st.UserID = &id
		st.Liked = liked.Clone()
	})
}

// SetLiked replaces the liked set
func (w *Writer) SetLiked(liked models.LikedSet) {
	w.update(func(st *State) {
		st.Liked = liked.Clone()
	})
}

// Like adds one identifier to the liked set
func (w *Writer) Like(id models.Identifier) {
	w.update(func(st *State) {
		st.Liked = st.Liked.With(id)
	})
}

// Unlike removes one identifier from the liked set
func (w *Writer) Unlike(id models.Identifier) {
	w.update(func(st *State) {
		st.Liked = st.Liked.Without(id)
	})
}

// Clear signs out and empties the liked set
func (w *Writer) Clear() {
	w.update(func(st *State) {
		*st = State{Liked: models.NewLikedSet()}
	})
}

func (w *Writer) update(fn func(*State)) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	fn(&w.s.state)
}

func copyState(s State) State {
	out := State{Liked: s.Liked.Clone()}
	if s.UserID != nil {
		id := *s.UserID
		out.UserID = &id
	}
	return out
}
