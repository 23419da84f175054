package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Belphemur/MovieMatch/internal/models"
)

// FakeBackend is an in-process stand-in for the companion backend: accounts, watchlists and
// the recommendation endpoint. The watchlist add is idempotent by (user, media, kind).
// This is a test helper and should not be used in production code.
type FakeBackend struct {
	Server *httptest.Server

	// Recommendations is the raw JSON sent as the "recommendations" field
	Recommendations string

	mu        sync.Mutex
	nextID    models.Identifier
	users     map[string]fakeUser
	watchlist map[models.Identifier][]models.WatchlistEntry
	calls     map[string]int
	failures  map[string]int
	lastLiked []models.Identifier
}

type fakeUser struct {
	id       models.Identifier
	password string
	liked    []models.Identifier
}

// NewFakeBackend starts a fake companion backend that is closed with the test
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		Recommendations: `[]`,
		nextID:          1,
		users:           make(map[string]fakeUser),
		watchlist:       make(map[models.Identifier][]models.WatchlistEntry),
		calls:           make(map[string]int),
		failures:        make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake backend
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// AddUser registers an account directly
func (f *FakeBackend) AddUser(username, password string, liked ...models.Identifier) models.Identifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.users[username] = fakeUser{id: id, password: password, liked: liked}
	return id
}

// AddWatchlistEntry seeds a watchlist
func (f *FakeBackend) AddWatchlistEntry(e models.WatchlistEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchlist[e.UserID] = append(f.watchlist[e.UserID], e)
}

// Fail makes every request to path answer with status
func (f *FakeBackend) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// Calls returns how many requests hit path
func (f *FakeBackend) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// LastLiked returns the liked identifiers of the last recommendation request
func (f *FakeBackend) LastLiked() []models.Identifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Identifier(nil), f.lastLiked...)
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[r.URL.Path]++
	if status, ok := f.failures[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/register/":
		f.register(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/login/":
		f.login(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/check-username/":
		_, taken := f.users[r.URL.Query().Get("username")]
		writeJSON(w, http.StatusOK, map[string]bool{"available": !taken})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/watchlist/"):
		id, err := models.ParseIdentifier(strings.Trim(strings.TrimPrefix(r.URL.Path, "/watchlist/"), "/"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		entries := f.watchlist[id]
		if entries == nil {
			entries = []models.WatchlistEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	case r.Method == http.MethodPost && r.URL.Path == "/add-to-watchlist/":
		f.addToWatchlist(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/recommend/":
		var req struct {
			LikedIDs []models.Identifier `json:"liked_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "liked_ids is required"})
			return
		}
		f.lastLiked = req.LikedIDs
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recommendations":` + f.Recommendations + `}`))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (f *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Invalid payload."}})
		return
	}
	errs := map[string][]string{}
	if _, taken := f.users[p.Username]; taken {
		errs["username"] = append(errs["username"], "A user with that username already exists.")
	}
	if p.BirthYear < 1900 {
		errs["year"] = append(errs["year"], "Enter a valid year.")
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	id := f.nextID
	f.nextID++
	f.users[p.Username] = fakeUser{id: id, password: p.Password, liked: p.LikedMovieIDs}
	liked := p.LikedMovieIDs
	if liked == nil {
		liked = []models.Identifier{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": id, "liked_movie_ids": liked})
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}
	u, ok := f.users[req.Username]
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.id, "liked_movie_ids": u.liked})
}

func (f *FakeBackend) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	var e models.WatchlistEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil || e.UserID == 0 || e.MediaID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and movie_id are required"})
		return
	}
	for _, existing := range f.watchlist[e.UserID] {
		if existing.MediaID == e.MediaID && existing.MediaKind == e.MediaKind {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Movie is already in the watchlist"})
			return
		}
	}
	f.watchlist[e.UserID] = append(f.watchlist[e.UserID], e)
	writeJSON(w, http.StatusCreated, e)
}
