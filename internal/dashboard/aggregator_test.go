package dashboard

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Belphemur/MovieMatch/internal/account"
	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metadata"
	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/recommend"
	"github.com/Belphemur/MovieMatch/internal/session"
	"github.com/Belphemur/MovieMatch/internal/testutil"
)

var errTransport = apperrors.NewUpstreamTransportError("metadata", "test", errors.New("connection reset by peer"))

// fakeMetadata counts calls and can fail lists or individual details
type fakeMetadata struct {
	mu          sync.Mutex
	listErr     map[string]error
	detailCalls map[models.Identifier]int
	// detailErr returns the error for the nth attempt (1-based) of id, or nil
	detailErr func(id models.Identifier, attempt int) error
	// gate, when set, blocks list calls until closed or ctx ends
	gate chan struct{}
	// lists and details, when set, hold each call until every expected caller is in flight
	lists   *barrier
	details *barrier
}

// barrier releases its callers only once n of them have arrived
type barrier struct {
	mu      sync.Mutex
	n       int
	arrived int
	all     chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, all: make(chan struct{})}
}

var errBarrierTimeout = errors.New("not every caller arrived at the barrier")

func (b *barrier) wait(ctx context.Context) error {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.all)
	}
	b.mu.Unlock()

	select {
	case <-b.all:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Second):
		return errBarrierTimeout
	}
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		listErr:     make(map[string]error),
		detailCalls: make(map[models.Identifier]int),
	}
}

func (f *fakeMetadata) list(ctx context.Context, name string, ids ...models.Identifier) ([]models.MediaSummary, error) {
	if f.lists != nil {
		if err := f.lists.wait(ctx); err != nil {
			return nil, err
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	err := f.listErr[name]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]models.MediaSummary, len(ids))
	for i, id := range ids {
		out[i] = models.MediaSummary{ID: id, Kind: models.MediaKindMovie, Title: name}
	}
	return out, nil
}

func (f *fakeMetadata) ListTrending(ctx context.Context) ([]models.MediaSummary, error) {
	return f.list(ctx, "trending", 1, 2)
}

func (f *fakeMetadata) ListUpcoming(ctx context.Context) ([]models.MediaSummary, error) {
	return f.list(ctx, "upcoming", 3)
}

func (f *fakeMetadata) ListPopularTV(ctx context.Context) ([]models.MediaSummary, error) {
	return f.list(ctx, "popular_tv", 4, 5, 6)
}

func (f *fakeMetadata) GetDetail(ctx context.Context, id models.Identifier, kind models.MediaKind) (*models.MediaDetail, error) {
	f.mu.Lock()
	f.detailCalls[id]++
	attempt := f.detailCalls[id]
	detailErr := f.detailErr
	f.mu.Unlock()

	if f.details != nil {
		if err := f.details.wait(ctx); err != nil {
			return nil, err
		}
	}

	if detailErr != nil {
		if err := detailErr(id, attempt); err != nil {
			return nil, err
		}
	}
	return &models.MediaDetail{ID: id, Kind: kind, Title: "detail"}, nil
}

func (f *fakeMetadata) totalDetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.detailCalls {
		total += n
	}
	return total
}

func (f *fakeMetadata) detailIDs() []models.Identifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]models.Identifier, 0, len(f.detailCalls))
	for id := range f.detailCalls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeWatchlists struct {
	entries []models.WatchlistEntry
	err     error
	calls   int
	arrive  *barrier
}

func (f *fakeWatchlists) GetWatchlist(ctx context.Context, userID models.Identifier) ([]models.WatchlistEntry, error) {
	f.calls++
	if f.arrive != nil {
		if err := f.arrive.wait(ctx); err != nil {
			return nil, err
		}
	}
	return f.entries, f.err
}

type fakeRecommender struct {
	mu     sync.Mutex
	result models.RecommendationResult
	err    error
	calls  int
}

func (f *fakeRecommender) Recommend(ctx context.Context, liked models.LikedSet) (models.RecommendationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryDelay = time.Millisecond
	return opts
}

func signedIn(userID models.Identifier, liked ...models.Identifier) session.State {
	s, w := session.New()
	w.SignIn(userID, models.NewLikedSet(liked...))
	return s.Snapshot()
}

func TestLoad_FewLikedSkipsRecommendations(t *testing.T) {
	for _, liked := range [][]models.Identifier{nil, {1}, {1, 2, 3, 4}} {
		md, rec := newFakeMetadata(), &fakeRecommender{}
		agg := NewAggregator(md, &fakeWatchlists{}, rec, testOptions())

		view, err := agg.Load(context.Background(), signedIn(1, liked...))
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if rec.calls != 0 {
			t.Errorf("liked=%v: Recommend called %d times, want 0", liked, rec.calls)
		}
		if view.Recommendations.Status != models.SectionSkipped || view.Recommendations.Err != nil {
			t.Errorf("liked=%v: recommendations = %+v, want skipped", liked, view.Recommendations)
		}
	}
}

func TestLoad_RecommendationsDeduplicated(t *testing.T) {
	md := newFakeMetadata()
	rec := &fakeRecommender{result: models.NewRecommendationResult(12, 12, 7)}
	agg := NewAggregator(md, &fakeWatchlists{}, rec, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("Recommend calls = %d, want 1", rec.calls)
	}
	if got := md.totalDetailCalls(); got != 2 {
		t.Errorf("detail fetches = %d, want 2", got)
	}
	if got := md.detailIDs(); !reflect.DeepEqual(got, []models.Identifier{7, 12}) {
		t.Errorf("detail ids = %v, want [7 12]", got)
	}
	if view.Recommendations.Status != models.SectionReady || len(view.Recommendations.Items) != 2 {
		t.Errorf("recommendations = %+v", view.Recommendations)
	}
	if view.Recommendations.Items[0].ID != 12 || view.Recommendations.Items[1].ID != 7 {
		t.Errorf("order = %d, %d; want 12, 7", view.Recommendations.Items[0].ID, view.Recommendations.Items[1].ID)
	}
}

func TestLoad_PartialFailureIsolation(t *testing.T) {
	md := newFakeMetadata()
	md.listErr["upcoming"] = errTransport
	wl := &fakeWatchlists{entries: []models.WatchlistEntry{{UserID: 1, MediaID: 550, MediaKind: models.MediaKindMovie}}}
	agg := NewAggregator(md, wl, &fakeRecommender{}, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if view.Upcoming.Status != models.SectionFailed || len(view.Upcoming.Items) != 0 {
		t.Errorf("upcoming = %+v, want failed and empty", view.Upcoming)
	}
	if !errors.Is(view.Upcoming.Err, &apperrors.ErrUpstream{}) {
		t.Errorf("upcoming err = %v", view.Upcoming.Err)
	}
	if view.Trending.Status != models.SectionReady || len(view.Trending.Items) != 2 {
		t.Errorf("trending = %+v", view.Trending)
	}
	if view.PopularTV.Status != models.SectionReady || len(view.PopularTV.Items) != 3 {
		t.Errorf("popular tv = %+v", view.PopularTV)
	}
	if view.Watchlist.Status != models.SectionReady || len(view.Watchlist.Items) != 1 {
		t.Errorf("watchlist = %+v", view.Watchlist)
	}
}

func TestLoad_WatchlistItemFailureDropsOnlyThatItem(t *testing.T) {
	md := newFakeMetadata()
	md.detailErr = func(id models.Identifier, attempt int) error {
		if id == 2 {
			return apperrors.NewUpstreamStatusError("metadata", "detail", http.StatusNotFound, "404 Not Found")
		}
		return nil
	}
	wl := &fakeWatchlists{entries: []models.WatchlistEntry{
		{UserID: 1, MediaID: 10, MediaKind: models.MediaKindTV},
		{UserID: 1, MediaID: 1, MediaKind: models.MediaKindMovie},
		{UserID: 1, MediaID: 2, MediaKind: models.MediaKindMovie},
	}}
	agg := NewAggregator(md, wl, &fakeRecommender{}, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if view.Watchlist.Status != models.SectionReady {
		t.Fatalf("watchlist status = %s", view.Watchlist.Status)
	}
	var got []models.Identifier
	for _, d := range view.Watchlist.Items {
		got = append(got, d.ID)
	}
	// Movies first, then series; the 404 item is dropped
	if !reflect.DeepEqual(got, []models.Identifier{1, 10}) {
		t.Errorf("watchlist ids = %v, want [1 10]", got)
	}
	if tv := view.WatchlistByKind(models.MediaKindTV); len(tv) != 1 || tv[0].ID != 10 {
		t.Errorf("tv partition = %+v", tv)
	}

	md.mu.Lock()
	defer md.mu.Unlock()
	if md.detailCalls[2] != 1 {
		t.Errorf("404 item attempts = %d, want 1 (not retryable)", md.detailCalls[2])
	}
}

func TestLoad_TransientDetailFailureRetried(t *testing.T) {
	md := newFakeMetadata()
	md.detailErr = func(id models.Identifier, attempt int) error {
		if attempt == 1 {
			return apperrors.NewUpstreamStatusError("metadata", "detail", http.StatusServiceUnavailable, "503 Service Unavailable")
		}
		return nil
	}
	wl := &fakeWatchlists{entries: []models.WatchlistEntry{{UserID: 1, MediaID: 77, MediaKind: models.MediaKindMovie}}}
	agg := NewAggregator(md, wl, &fakeRecommender{}, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(view.Watchlist.Items) != 1 {
		t.Fatalf("watchlist = %+v, want the retried item", view.Watchlist)
	}
	if got := md.totalDetailCalls(); got != 2 {
		t.Errorf("detail attempts = %d, want 2", got)
	}
}

func TestLoad_WatchlistFailureAndAnonymous(t *testing.T) {
	md := newFakeMetadata()
	wl := &fakeWatchlists{err: errTransport}
	agg := NewAggregator(md, wl, &fakeRecommender{}, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if view.Watchlist.Status != models.SectionFailed {
		t.Errorf("watchlist status = %s, want failed", view.Watchlist.Status)
	}

	anon, _ := session.New()
	wl.calls = 0
	view, err = agg.Load(context.Background(), anon.Snapshot())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if view.Watchlist.Status != models.SectionSkipped || wl.calls != 0 {
		t.Errorf("anonymous watchlist = %s with %d calls, want skipped with 0", view.Watchlist.Status, wl.calls)
	}
}

func TestLoad_RecommendFailureIsUnavailable(t *testing.T) {
	md := newFakeMetadata()
	rec := &fakeRecommender{err: apperrors.NewUpstreamStatusError("recommend", "recommend", 500, "500 Internal Server Error")}
	agg := NewAggregator(md, &fakeWatchlists{}, rec, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() must not fail when recommendations fail: %v", err)
	}
	if view.Recommendations.Status != models.SectionUnavailable || len(view.Recommendations.Items) != 0 {
		t.Errorf("recommendations = %+v, want unavailable", view.Recommendations)
	}
	if view.Trending.Status != models.SectionReady {
		t.Errorf("trending = %s, want ready", view.Trending.Status)
	}
}

func TestLoad_EmptyRecommendationsAreReady(t *testing.T) {
	rec := &fakeRecommender{result: models.NewRecommendationResult()}
	agg := NewAggregator(newFakeMetadata(), &fakeWatchlists{}, rec, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if view.Recommendations.Status != models.SectionReady || len(view.Recommendations.Items) != 0 {
		t.Errorf("recommendations = %+v, want ready and empty", view.Recommendations)
	}
}

func TestLoad_RecommendationsCapped(t *testing.T) {
	ids := make([]models.Identifier, 50)
	for i := range ids {
		ids[i] = models.Identifier(1000 + i)
	}
	md := newFakeMetadata()
	rec := &fakeRecommender{result: models.NewRecommendationResult(ids...)}
	opts := testOptions()
	opts.MaxRecommendations = 5
	agg := NewAggregator(md, &fakeWatchlists{}, rec, opts)

	view, err := agg.Load(context.Background(), signedIn(1, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(view.Recommendations.Items) != 5 || md.totalDetailCalls() != 5 {
		t.Errorf("items = %d, detail calls = %d; want 5 and 5", len(view.Recommendations.Items), md.totalDetailCalls())
	}
	if view.Recommendations.Items[0].ID != 1000 || view.Recommendations.Items[4].ID != 1004 {
		t.Errorf("kept ids should be the first five in service order")
	}
}

func TestLoad_CancelledReturnsNoPartialView(t *testing.T) {
	md := newFakeMetadata()
	md.gate = make(chan struct{})
	agg := NewAggregator(md, &fakeWatchlists{}, &fakeRecommender{}, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	view, err := agg.Load(ctx, signedIn(1))
	if view != nil {
		t.Errorf("expected no view after cancellation, got %+v", view)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	md := newFakeMetadata()
	rec := &fakeRecommender{result: models.NewRecommendationResult(3, 4)}
	wl := &fakeWatchlists{entries: []models.WatchlistEntry{{UserID: 1, MediaID: 9, MediaKind: models.MediaKindMovie}}}
	agg := NewAggregator(md, wl, rec, testOptions())
	state := signedIn(1, 1, 2, 3, 4, 5)

	first, err := agg.Load(context.Background(), state)
	if err != nil {
		t.Fatalf("first Load() unexpected error: %v", err)
	}
	second, err := agg.Load(context.Background(), state)
	if err != nil {
		t.Fatalf("second Load() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("loads differ:\n%+v\n%+v", first, second)
	}
	if state.Liked.Len() != 5 || *state.UserID != 1 {
		t.Error("Load must not mutate the session state")
	}
}

func TestLoad_SectionsFetchedConcurrently(t *testing.T) {
	// Three lists plus the watchlist: each call blocks until all four are in flight
	sections := newBarrier(4)
	md := newFakeMetadata()
	md.lists = sections
	wl := &fakeWatchlists{
		entries: []models.WatchlistEntry{{UserID: 1, MediaID: 550, MediaKind: models.MediaKindMovie}},
		arrive:  sections,
	}
	agg := NewAggregator(md, wl, &fakeRecommender{}, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	for name, status := range map[string]models.SectionStatus{
		"trending":   view.Trending.Status,
		"upcoming":   view.Upcoming.Status,
		"popular_tv": view.PopularTV.Status,
		"watchlist":  view.Watchlist.Status,
	} {
		if status != models.SectionReady {
			t.Errorf("%s = %s, want ready; a fetch waited on another to finish", name, status)
		}
	}
}

func TestLoad_DetailsResolvedConcurrently(t *testing.T) {
	md := newFakeMetadata()
	md.details = newBarrier(3)
	rec := &fakeRecommender{result: models.NewRecommendationResult(30, 20, 10)}
	agg := NewAggregator(md, &fakeWatchlists{}, rec, testOptions())

	view, err := agg.Load(context.Background(), signedIn(1, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(view.Recommendations.Items) != 3 {
		t.Fatalf("recommendations = %+v, want all three resolved together", view.Recommendations)
	}
	if got := md.totalDetailCalls(); got != 3 {
		t.Errorf("detail fetches = %d, want 3", got)
	}
}

func TestLoad_MalformedDetailNotRetried(t *testing.T) {
	md := newFakeMetadata()
	md.detailErr = func(id models.Identifier, attempt int) error {
		return apperrors.NewUpstreamDecodeError("metadata", "detail", errors.New("unexpected end of JSON input"))
	}
	opts := testOptions()
	opts.DetailAttempts = 3
	wl := &fakeWatchlists{entries: []models.WatchlistEntry{{UserID: 1, MediaID: 550, MediaKind: models.MediaKindMovie}}}
	agg := NewAggregator(md, wl, &fakeRecommender{}, opts)

	view, err := agg.Load(context.Background(), signedIn(1))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got := md.totalDetailCalls(); got != 1 {
		t.Errorf("detail fetches = %d, want 1", got)
	}
	if view.Watchlist.Status != models.SectionReady || len(view.Watchlist.Items) != 0 {
		t.Errorf("watchlist = %+v, want ready and empty", view.Watchlist)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", errTransport, true},
		{"503", apperrors.NewUpstreamStatusError("metadata", "detail", 503, "503"), true},
		{"429", apperrors.NewUpstreamStatusError("metadata", "detail", 429, "429"), true},
		{"404", apperrors.NewUpstreamStatusError("metadata", "detail", 404, "404"), false},
		{"malformed", apperrors.NewUpstreamDecodeError("metadata", "detail", errors.New("unexpected end of JSON input")), false},
		{"validation", apperrors.NewValidationError("kind", "bad"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dashboard.MaxRecommendations = 3
	cfg.Dashboard.RetryDelay = "1s"

	opts := OptionsFromConfig(cfg)
	if opts.MaxRecommendations != 3 || opts.RetryDelay != time.Second {
		t.Errorf("opts = %+v", opts)
	}
	if opts.MinLiked != models.MinLikedForRecommendations || opts.DetailAttempts != 2 {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

// End to end through the real HTTP clients against fake upstream services
func TestLoad_EndToEnd(t *testing.T) {
	fakeMD := testutil.NewFakeMetadata(t)
	fakeBackend := testutil.NewFakeBackend(t)
	fakeBackend.Recommendations = `{"a":[10,20],"b":[20,30]}`

	cfg := &config.Config{ClientTimeout: "5s"}
	cfg.Metadata.URL = fakeMD.URL()
	cfg.Metadata.APIKey = testutil.FakeAPIKey
	cfg.Backend.URL = fakeBackend.URL()
	httpClient := &http.Client{Timeout: 5 * time.Second}

	agg := NewAggregator(
		metadata.NewClient(cfg, httpClient),
		account.NewClient(cfg, httpClient),
		recommend.NewClient(cfg, httpClient),
		testOptions(),
	)

	view, err := agg.Load(context.Background(), signedIn(99, 1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if n := fakeBackend.Calls("/api/recommend/"); n != 1 {
		t.Errorf("recommend calls = %d, want 1", n)
	}
	if got := fakeBackend.LastLiked(); !reflect.DeepEqual(got, []models.Identifier{1, 2, 3, 4, 5}) {
		t.Errorf("liked sent = %v", got)
	}
	if n := fakeMD.DetailCalls(); n != 3 {
		t.Errorf("detail fetches = %d, want 3", n)
	}
	for _, id := range []string{"10", "20", "30"} {
		if fakeMD.Calls("/movie/"+id) != 1 {
			t.Errorf("/movie/%s fetched %d times, want 1", id, fakeMD.Calls("/movie/"+id))
		}
	}

	recs := view.Recommendations
	if recs.Status != models.SectionReady || len(recs.Items) != 3 {
		t.Fatalf("recommendations = %+v", recs)
	}
	for i, want := range []models.Identifier{10, 20, 30} {
		if recs.Items[i].ID != want || recs.Items[i].Title != "Movie "+want.String() {
			t.Errorf("recommendations[%d] = %d %q", i, recs.Items[i].ID, recs.Items[i].Title)
		}
	}
	if view.Trending.Status != models.SectionReady || view.Watchlist.Status != models.SectionReady {
		t.Errorf("trending=%s watchlist=%s", view.Trending.Status, view.Watchlist.Status)
	}
}
