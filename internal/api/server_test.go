package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Belphemur/MovieMatch/internal/account"
	"github.com/Belphemur/MovieMatch/internal/cache"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/dashboard"
	"github.com/Belphemur/MovieMatch/internal/metadata"
	"github.com/Belphemur/MovieMatch/internal/recommend"
	"github.com/Belphemur/MovieMatch/internal/services"
	"github.com/Belphemur/MovieMatch/internal/session"
	"github.com/Belphemur/MovieMatch/internal/testutil"
)

type testEnv struct {
	server   *httptest.Server
	metadata *testutil.FakeMetadata
	backend  *testutil.FakeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fakeMD := testutil.NewFakeMetadata(t)
	fakeBackend := testutil.NewFakeBackend(t)

	cfg := &config.Config{ClientTimeout: "5s"}
	cfg.Metadata.URL = fakeMD.URL()
	cfg.Metadata.APIKey = testutil.FakeAPIKey
	cfg.Backend.URL = fakeBackend.URL()
	httpClient := &http.Client{Timeout: 5 * time.Second}

	metadataClient := metadata.NewClient(cfg, httpClient)
	accountClient := account.NewClient(cfg, httpClient)
	recommendClient := recommend.NewClient(cfg, httpClient)

	backend, err := cache.New("memory", cache.ProviderConfig{Size: 100, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	h := NewHandler(Deps{
		Metadata:    metadataClient,
		Recommender: recommendClient,
		Dashboard:   dashboard.NewAggregator(metadataClient, accountClient, recommendClient, dashboard.Options{RetryDelay: time.Millisecond}),
		Accounts:    services.NewAccountService(accountClient),
		Assistant:   services.NewAssistant(metadataClient),
		Sessions:    session.NewStore(backend),
	})
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	return &testEnv{server: server, metadata: fakeMD, backend: fakeBackend}
}

// do sends a request and returns the response, its body and the session token it carried
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data, resp.Header.Get(SessionHeader)
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

type sectionBody struct {
	Status string `json:"status"`
	Items  []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"items"`
}

type dashboardBody struct {
	Trending        sectionBody `json:"trending"`
	Upcoming        sectionBody `json:"upcoming"`
	PopularTV       sectionBody `json:"popular_tv"`
	Watchlist       sectionBody `json:"watchlist"`
	Recommendations sectionBody `json:"recommendations"`
}

func registration(username string) map[string]any {
	return map[string]any{
		"username":        username,
		"password":        "hunter22",
		"retype_password": "hunter22",
		"first_name":      "Ada",
		"day":             10,
		"month":           12,
		"year":            1990,
		"country":         "UK",
		"gender":          "female",
		"liked_movie_ids": []int{1, 2, 3, 4, 5},
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, body, token := env.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK || string(body) != `{"status":"ok"}` {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}
	if token != "" {
		t.Error("healthz should not start a session")
	}
}

func TestSessionToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, token := env.do(t, http.MethodGet, "/v1/assistant/prompts", "", nil)
	if token == "" {
		t.Fatal("expected a session token")
	}
	_, _, again := env.do(t, http.MethodGet, "/v1/assistant/prompts", token, nil)
	if again != token {
		t.Errorf("token changed from %s to %s", token, again)
	}
	_, _, fresh := env.do(t, http.MethodGet, "/v1/assistant/prompts", "not-a-token", nil)
	if fresh == "" || fresh == "not-a-token" {
		t.Errorf("unknown token should be replaced, got %q", fresh)
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Recommendations = `{"a":[10,20],"b":[20,30]}`

	resp, body, token := env.do(t, http.MethodPost, "/v1/auth/register", "", registration("ada"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register = %d %s", resp.StatusCode, body)
	}

	resp, body, _ = env.do(t, http.MethodGet, "/v1/dashboard", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard = %d %s", resp.StatusCode, body)
	}
	view := decode[dashboardBody](t, body)

	if view.Recommendations.Status != "ready" || len(view.Recommendations.Items) != 3 {
		t.Fatalf("recommendations = %+v", view.Recommendations)
	}
	for i, want := range []int64{10, 20, 30} {
		if view.Recommendations.Items[i].ID != want {
			t.Errorf("recommendations[%d] = %d, want %d", i, view.Recommendations.Items[i].ID, want)
		}
	}
	if n := env.metadata.DetailCalls(); n != 3 {
		t.Errorf("detail fetches = %d, want 3", n)
	}
	if n := env.backend.Calls("/api/recommend/"); n != 1 {
		t.Errorf("recommend calls = %d, want 1", n)
	}
	if view.Trending.Status != "ready" || len(view.Trending.Items) != 2 {
		t.Errorf("trending = %+v", view.Trending)
	}
	if view.Watchlist.Status != "ready" || len(view.Watchlist.Items) != 0 {
		t.Errorf("watchlist = %+v", view.Watchlist)
	}
}

func TestDashboard_AnonymousWithFailingUpcoming(t *testing.T) {
	env := newTestEnv(t)
	env.metadata.Fail("/movie/upcoming", http.StatusServiceUnavailable)

	resp, body, _ := env.do(t, http.MethodGet, "/v1/dashboard", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard = %d %s", resp.StatusCode, body)
	}
	view := decode[dashboardBody](t, body)

	if view.Upcoming.Status != "failed" || len(view.Upcoming.Items) != 0 {
		t.Errorf("upcoming = %+v", view.Upcoming)
	}
	if view.PopularTV.Status != "ready" || view.Trending.Status != "ready" {
		t.Errorf("trending=%s popular_tv=%s", view.Trending.Status, view.PopularTV.Status)
	}
	if view.Watchlist.Status != "skipped" || view.Recommendations.Status != "skipped" {
		t.Errorf("watchlist=%s recommendations=%s", view.Watchlist.Status, view.Recommendations.Status)
	}
	if env.backend.Calls("/api/recommend/") != 0 {
		t.Error("recommendations must not be requested with an empty liked set")
	}
}

func TestLikesAndRecommendations(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Recommendations = `[12,12,7]`

	resp, body, token := env.do(t, http.MethodGet, "/v1/recommendations", "", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("recommendations without likes = %d %s", resp.StatusCode, body)
	}
	if decode[errorResponse](t, body).Code != "precondition_failed" {
		t.Errorf("body = %s", body)
	}

	resp, body, _ = env.do(t, http.MethodPut, "/v1/likes", token, map[string]any{"liked_ids": []int{5, 4, 3, 2, 1}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("likes = %d %s", resp.StatusCode, body)
	}
	likes := decode[likesResponse](t, body)
	if !likes.RecommendationsEnabled || len(likes.LikedIDs) != 5 || likes.LikedIDs[0] != 1 {
		t.Errorf("likes = %+v", likes)
	}

	resp, body, _ = env.do(t, http.MethodGet, "/v1/recommendations", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recommendations = %d %s", resp.StatusCode, body)
	}
	recs := decode[recommendationsResponse](t, body)
	if len(recs.IDs) != 2 || recs.IDs[0] != 12 || recs.IDs[1] != 7 {
		t.Errorf("ids = %v, want [12 7]", recs.IDs)
	}

	resp, _, _ = env.do(t, http.MethodPut, "/v1/likes", token, map[string]any{"liked_ids": []int{-1}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative id = %d, want 400", resp.StatusCode)
	}
}

func TestWatchlistFlow(t *testing.T) {
	env := newTestEnv(t)
	env.backend.AddUser("ada", "secret")
	item := map[string]any{"id": 550, "kind": "movie", "title": "Fight Club"}

	resp, _, token := env.do(t, http.MethodPost, "/v1/watchlist", "", item)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous add = %d, want 401", resp.StatusCode)
	}

	resp, body, _ := env.do(t, http.MethodPost, "/v1/auth/login", token, map[string]string{"username": "ada", "password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login = %d %s", resp.StatusCode, body)
	}
	resp, body, _ = env.do(t, http.MethodPost, "/v1/auth/login", token, map[string]string{"username": "ada", "password": "secret"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d %s", resp.StatusCode, body)
	}

	resp, body, _ = env.do(t, http.MethodPost, "/v1/watchlist", token, item)
	if resp.StatusCode != http.StatusCreated || string(body) != `{"outcome":"added"}` {
		t.Errorf("first add = %d %s", resp.StatusCode, body)
	}
	resp, body, _ = env.do(t, http.MethodPost, "/v1/watchlist", token, item)
	if resp.StatusCode != http.StatusOK || string(body) != `{"outcome":"already_present"}` {
		t.Errorf("second add = %d %s", resp.StatusCode, body)
	}

	resp, body, _ = env.do(t, http.MethodGet, "/v1/watchlist", token, nil)
	if resp.StatusCode != http.StatusOK || len(decode[[]map[string]any](t, body)) != 1 {
		t.Errorf("watchlist = %d %s", resp.StatusCode, body)
	}

	resp, _, _ = env.do(t, http.MethodPost, "/v1/auth/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("logout = %d", resp.StatusCode)
	}
	resp, _, _ = env.do(t, http.MethodGet, "/v1/watchlist", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("watchlist after logout = %d, want 401", resp.StatusCode)
	}
}

func TestRegister_ValidationFields(t *testing.T) {
	env := newTestEnv(t)
	form := registration("ada")
	form["retype_password"] = "different"
	form["month"] = 13

	resp, body, _ := env.do(t, http.MethodPost, "/v1/auth/register", "", form)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("register = %d %s", resp.StatusCode, body)
	}
	got := decode[errorResponse](t, body)
	if got.Code != "validation_failed" || len(got.Fields["retype_password"]) != 1 || len(got.Fields["month"]) != 1 {
		t.Errorf("body = %+v", got)
	}
	if env.backend.Calls("/api/register/") != 0 {
		t.Error("backend must not be called")
	}

	resp, _, _ = env.do(t, http.MethodPost, "/v1/auth/register", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty body = %d, want 400", resp.StatusCode)
	}
}

func TestUsernameAvailability(t *testing.T) {
	env := newTestEnv(t)
	env.backend.AddUser("taken", "pw")

	_, body, _ := env.do(t, http.MethodGet, "/v1/usernames/taken/availability", "", nil)
	if string(body) != `{"status":"taken"}` {
		t.Errorf("taken = %s", body)
	}

	env.backend.Fail("/api/check-username/", http.StatusInternalServerError)
	resp, body, _ := env.do(t, http.MethodGet, "/v1/usernames/fresh/availability", "", nil)
	if resp.StatusCode != http.StatusOK || string(body) != `{"status":"unknown"}` {
		t.Errorf("backend down = %d %s", resp.StatusCode, body)
	}
}

func TestTitles(t *testing.T) {
	env := newTestEnv(t)
	env.metadata.Fail("/movie/404", http.StatusNotFound)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"movie", "/v1/titles/movie/550", http.StatusOK},
		{"tv", "/v1/titles/tv/1399", http.StatusOK},
		{"missing title", "/v1/titles/movie/404", http.StatusNotFound},
		{"bad id", "/v1/titles/movie/abc", http.StatusBadRequest},
		{"bad kind", "/v1/titles/person/1", http.StatusBadRequest},
		{"providers", "/v1/titles/movie/550/providers", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body, _ := env.do(t, http.MethodGet, tt.path, "", nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("GET %s = %d %s, want %d", tt.path, resp.StatusCode, body, tt.wantStatus)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t)

	resp, body, _ := env.do(t, http.MethodGet, "/v1/search?q=fight", "", nil)
	if resp.StatusCode != http.StatusOK || len(decode[[]map[string]any](t, body)) != 2 {
		t.Errorf("search = %d %s", resp.StatusCode, body)
	}

	resp, body, _ = env.do(t, http.MethodGet, "/v1/genres/movie", "", nil)
	if resp.StatusCode != http.StatusOK || len(decode[[]map[string]any](t, body)) != 3 {
		t.Errorf("genres = %d %s", resp.StatusCode, body)
	}

	resp, body, _ = env.do(t, http.MethodGet, "/v1/discover/tv?genre=35", "", nil)
	if resp.StatusCode != http.StatusOK || len(decode[[]map[string]any](t, body)) != 1 {
		t.Errorf("discover = %d %s", resp.StatusCode, body)
	}

	resp, _, _ = env.do(t, http.MethodGet, "/v1/discover/tv?genre=x", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("discover with bad genre = %d, want 400", resp.StatusCode)
	}

	env.metadata.Fail("/search/multi", http.StatusInternalServerError)
	resp, _, _ = env.do(t, http.MethodGet, "/v1/search?q=fight", "", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("search with upstream down = %d, want 502", resp.StatusCode)
	}
}

func TestAssistant(t *testing.T) {
	env := newTestEnv(t)

	_, body, _ := env.do(t, http.MethodGet, "/v1/assistant/prompts", "", nil)
	if len(decode[map[string][]string](t, body)["prompts"]) != 10 {
		t.Errorf("prompts = %s", body)
	}

	resp, body, _ := env.do(t, http.MethodPost, "/v1/assistant/messages", "", map[string]string{"message": "horror"})
	reply := decode[services.AssistantReply](t, body)
	if resp.StatusCode != http.StatusOK || reply.Text != `Looking into "Horror" movies and shows for you!` {
		t.Errorf("reply = %d %+v", resp.StatusCode, reply)
	}

	resp, _, _ = env.do(t, http.MethodPost, "/v1/assistant/messages", "", map[string]string{"message": " "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank message = %d, want 400", resp.StatusCode)
	}
}
