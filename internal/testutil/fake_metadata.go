package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// FakeAPIKey is the key the fake metadata service accepts
const FakeAPIKey = "test-key"

// FakeMetadata is an in-process stand-in for the metadata service. Detail records are
// synthesized from the requested identifier so any id resolves.
// This is a test helper and should not be used in production code.
type FakeMetadata struct {
	Server *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]failure
}

type failure struct {
	status    int
	remaining int // < 0 means always
}

// NewFakeMetadata starts a fake metadata service that is closed with the test
func NewFakeMetadata(t testing.TB) *FakeMetadata {
	t.Helper()
	f := &FakeMetadata{
		calls:    make(map[string]int),
		failures: make(map[string]failure),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake service
func (f *FakeMetadata) URL() string {
	return f.Server.URL
}

// Fail makes every request to path answer with status
func (f *FakeMetadata) Fail(path string, status int) {
	f.FailTimes(path, status, -1)
}

// FailTimes makes the next n requests to path answer with status
func (f *FakeMetadata) FailTimes(path string, status, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = failure{status: status, remaining: n}
}

// Calls returns how many requests hit path
func (f *FakeMetadata) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// DetailCalls returns how many base detail requests were served, for any id
func (f *FakeMetadata) DetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for path, n := range f.calls {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "movie" || parts[0] == "tv") && isNumber(parts[1]) {
			total += n
		}
	}
	return total
}

func (f *FakeMetadata) record(path string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++

	fail, ok := f.failures[path]
	if !ok || fail.remaining == 0 {
		return 0, false
	}
	if fail.remaining > 0 {
		fail.remaining--
		f.failures[path] = fail
	}
	return fail.status, true
}

func (f *FakeMetadata) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("api_key") != FakeAPIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status_code": 7, "status_message": "Invalid API key: You must be granted a valid key."})
		return
	}
	if status, failed := f.record(r.URL.Path); failed {
		w.WriteHeader(status)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/trending/movie/week":
		writeJSON(w, http.StatusOK, page(movieItem(100, "Trending One"), movieItem(101, "Trending Two")))
	case r.URL.Path == "/movie/upcoming":
		writeJSON(w, http.StatusOK, page(movieItem(200, "Upcoming One"), movieItem(201, "Upcoming Two")))
	case r.URL.Path == "/tv/popular":
		writeJSON(w, http.StatusOK, page(tvItem(300, "Popular Show"), tvItem(301, "Another Show")))
	case r.URL.Path == "/search/multi":
		q := r.URL.Query().Get("query")
		movie := movieItem(550, "Result for "+q)
		movie["media_type"] = "movie"
		show := tvItem(1399, "Show for "+q)
		show["media_type"] = "tv"
		person := map[string]any{"id": 287, "media_type": "person", "name": "Brad Pitt"}
		writeJSON(w, http.StatusOK, page(movie, person, show))
	case len(parts) == 2 && parts[0] == "discover":
		genre := r.URL.Query().Get("with_genres")
		if parts[1] == "tv" {
			writeJSON(w, http.StatusOK, page(tvItem(400, "Genre "+genre+" Show")))
			return
		}
		writeJSON(w, http.StatusOK, page(movieItem(401, "Genre "+genre+" Movie"), movieItem(402, "Genre "+genre+" Sequel")))
	case len(parts) == 3 && parts[0] == "genre" && parts[2] == "list":
		writeJSON(w, http.StatusOK, map[string]any{"genres": []map[string]any{
			{"id": 28, "name": "Action"},
			{"id": 35, "name": "Comedy"},
			{"id": 10749, "name": "Romance"},
		}})
	case len(parts) >= 2 && (parts[0] == "movie" || parts[0] == "tv") && isNumber(parts[1]):
		f.serveTitle(w, parts)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34, "status_message": "The resource you requested could not be found."})
	}
}

func (f *FakeMetadata) serveTitle(w http.ResponseWriter, parts []string) {
	kind, id := parts[0], parts[1]
	sub := strings.Join(parts[2:], "/")

	switch sub {
	case "":
		detail := map[string]any{
			"id":            mustInt(id),
			"overview":      "Overview of " + id,
			"poster_path":   "/poster-" + id + ".jpg",
			"backdrop_path": "/backdrop-" + id + ".jpg",
			"genres":        []map[string]any{{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}},
		}
		if kind == "movie" {
			detail["title"] = "Movie " + id
			detail["runtime"] = 120
			detail["release_date"] = "1999-10-15"
		} else {
			detail["name"] = "Show " + id
			detail["first_air_date"] = "2011-04-17"
		}
		writeJSON(w, http.StatusOK, detail)
	case "credits":
		writeJSON(w, http.StatusOK, map[string]any{"id": mustInt(id), "cast": []map[string]any{
			{"id": 819, "name": "Edward Norton", "character": "Narrator", "profile_path": "/norton.jpg", "order": 0},
			{"id": 287, "name": "Brad Pitt", "character": "Tyler Durden", "profile_path": nil, "order": 1},
		}})
	case "videos":
		writeJSON(w, http.StatusOK, map[string]any{"id": mustInt(id), "results": []map[string]any{
			{"site": "YouTube", "key": "teaser-" + id, "name": "Teaser", "type": "Teaser"},
			{"site": "Vimeo", "key": "vimeo-" + id, "name": "Trailer", "type": "Trailer"},
			{"site": "YouTube", "key": "trailer-" + id, "name": "Official Trailer", "type": "Trailer"},
		}})
	case "watch/providers":
		writeJSON(w, http.StatusOK, map[string]any{"id": mustInt(id), "results": map[string]any{
			"US": map[string]any{
				"link":     "https://www.themoviedb.org/" + kind + "/" + id + "/watch",
				"flatrate": []map[string]any{{"provider_id": 8, "provider_name": "Netflix", "logo_path": "/netflix.jpg"}},
				"rent":     []map[string]any{{"provider_id": 2, "provider_name": "Apple TV", "logo_path": "/apple.jpg"}},
				"buy":      []map[string]any{{"provider_id": 3, "provider_name": "Google Play Movies", "logo_path": "/play.jpg"}},
			},
		}})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34, "status_message": "The resource you requested could not be found."})
	}
}

func page(items ...map[string]any) map[string]any {
	return map[string]any{"page": 1, "results": items, "total_pages": 1, "total_results": len(items)}
}

func movieItem(id int, title string) map[string]any {
	return map[string]any{
		"id":           id,
		"title":        title,
		"poster_path":  fmt.Sprintf("/poster-%d.jpg", id),
		"release_date": "2024-05-01",
		"vote_average": 7.5,
	}
}

func tvItem(id int, name string) map[string]any {
	return map[string]any{
		"id":             id,
		"name":           name,
		"poster_path":    nil,
		"first_air_date": "2019-01-01",
	}
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mustInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
