package dashboard

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metrics"
	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/session"
)

// MetadataSource is the part of the metadata client the dashboard reads
type MetadataSource interface {
	ListTrending(ctx context.Context) ([]models.MediaSummary, error)
	ListUpcoming(ctx context.Context) ([]models.MediaSummary, error)
	ListPopularTV(ctx context.Context) ([]models.MediaSummary, error)
	GetDetail(ctx context.Context, id models.Identifier, kind models.MediaKind) (*models.MediaDetail, error)
}

// WatchlistSource reads a user's watchlist
type WatchlistSource interface {
	GetWatchlist(ctx context.Context, userID models.Identifier) ([]models.WatchlistEntry, error)
}

// Recommender turns a liked set into recommended identifiers
type Recommender interface {
	Recommend(ctx context.Context, liked models.LikedSet) (models.RecommendationResult, error)
}

// Options tunes fan-out and recommendation policy
type Options struct {
	MinLiked           int
	MaxRecommendations int
	DetailConcurrency  int
	DetailAttempts     uint
	RetryDelay         time.Duration
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		MinLiked:           models.MinLikedForRecommendations,
		MaxRecommendations: 20,
		DetailConcurrency:  8,
		DetailAttempts:     2,
		RetryDelay:         200 * time.Millisecond,
	}
}

// OptionsFromConfig reads dashboard.* settings, falling back to defaults for unset values
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	d := cfg.Dashboard
	if d.MinLiked > 0 {
		opts.MinLiked = d.MinLiked
	}
	if d.MaxRecommendations > 0 {
		opts.MaxRecommendations = d.MaxRecommendations
	}
	if d.DetailConcurrency > 0 {
		opts.DetailConcurrency = d.DetailConcurrency
	}
	if d.DetailAttempts > 0 {
		opts.DetailAttempts = uint(d.DetailAttempts)
	}
	opts.RetryDelay = config.ParseDuration(d.RetryDelay, opts.RetryDelay)
	return opts
}

// Aggregator composes the metadata, account and recommendation clients into one DashboardView
type Aggregator struct {
	metadata    MetadataSource
	watchlists  WatchlistSource
	recommender Recommender
	opts        Options
}

// NewAggregator creates an aggregator. Zero option values are replaced by defaults.
func NewAggregator(metadata MetadataSource, watchlists WatchlistSource, recommender Recommender, opts Options) *Aggregator {
	def := DefaultOptions()
	if opts.MinLiked <= 0 {
		opts.MinLiked = def.MinLiked
	}
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = def.MaxRecommendations
	}
	if opts.DetailConcurrency <= 0 {
		opts.DetailConcurrency = def.DetailConcurrency
	}
	if opts.DetailAttempts == 0 {
		opts.DetailAttempts = def.DetailAttempts
	}
	return &Aggregator{
		metadata:    metadata,
		watchlists:  watchlists,
		recommender: recommender,
		opts:        opts,
	}
}

// Load builds the dashboard for one session snapshot. Every section is fetched concurrently
// and fails on its own; Load itself only fails when ctx ends before all sections settle,
// in which case no partial view is returned.
func (a *Aggregator) Load(ctx context.Context, state session.State) (*models.DashboardView, error) {
	logger := config.GetLogger()
	start := time.Now()

	view := &models.DashboardView{}
	var wg conc.WaitGroup
	wg.Go(func() { view.Trending = a.listSection(ctx, "trending", a.metadata.ListTrending) })
	wg.Go(func() { view.Upcoming = a.listSection(ctx, "upcoming", a.metadata.ListUpcoming) })
	wg.Go(func() { view.PopularTV = a.listSection(ctx, "popular_tv", a.metadata.ListPopularTV) })
	wg.Go(func() { view.Watchlist = a.watchlistSection(ctx, state) })
	wg.Go(func() { view.Recommendations = a.recommendationSection(ctx, state.Liked) })
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.Debug().Err(err).Msg("Dashboard load abandoned")
		return nil, err
	}

	logger.Debug().
		Dur("elapsed", time.Since(start)).
		Str("trending", string(view.Trending.Status)).
		Str("upcoming", string(view.Upcoming.Status)).
		Str("popular_tv", string(view.PopularTV.Status)).
		Str("watchlist", string(view.Watchlist.Status)).
		Str("recommendations", string(view.Recommendations.Status)).
		Msg("Dashboard loaded")
	return view, nil
}

func (a *Aggregator) listSection(ctx context.Context, name string, fetch func(context.Context) ([]models.MediaSummary, error)) models.Section[models.MediaSummary] {
	items, err := fetch(ctx)
	if err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("section", name).Msg("Dashboard section failed")
		return settle(name, models.FailedSection[models.MediaSummary](models.SectionFailed, err))
	}
	return settle(name, models.ReadySection(items))
}

func (a *Aggregator) watchlistSection(ctx context.Context, state session.State) models.Section[models.MediaDetail] {
	const name = "watchlist"
	if !state.SignedIn() {
		return settle(name, models.FailedSection[models.MediaDetail](models.SectionSkipped, nil))
	}

	entries, err := a.watchlists.GetWatchlist(ctx, *state.UserID)
	if err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Int64("userID", int64(*state.UserID)).Msg("Watchlist fetch failed")
		return settle(name, models.FailedSection[models.MediaDetail](models.SectionFailed, err))
	}

	// Movies first, then series; backend order within each kind
	refs := make([]ref, 0, len(entries))
	for _, kind := range []models.MediaKind{models.MediaKindMovie, models.MediaKindTV} {
		for _, e := range entries {
			if e.MediaKind == kind {
				refs = append(refs, ref{id: e.MediaID, kind: kind})
			}
		}
	}
	return settle(name, models.ReadySection(a.resolve(ctx, name, refs)))
}

func (a *Aggregator) recommendationSection(ctx context.Context, liked models.LikedSet) models.Section[models.MediaDetail] {
	const name = "recommendations"
	logger := config.GetLogger()

	if !liked.MeetsMinimum(a.opts.MinLiked) {
		metrics.RecommendationRequestsTotal.WithLabelValues("skipped").Inc()
		return settle(name, models.FailedSection[models.MediaDetail](models.SectionSkipped, nil))
	}

	result, err := a.recommender.Recommend(ctx, liked)
	if err != nil {
		logger.Warn().Err(err).Int("liked", liked.Len()).Msg("Recommendations unavailable")
		return settle(name, models.FailedSection[models.MediaDetail](models.SectionUnavailable, err))
	}

	ids := result.Unique()
	if len(ids) > a.opts.MaxRecommendations {
		logger.Debug().Int("received", len(ids)).Int("cap", a.opts.MaxRecommendations).Msg("Capping recommendations")
		ids = ids[:a.opts.MaxRecommendations]
	}

	refs := make([]ref, len(ids))
	for i, id := range ids {
		// The recommendation engine only ranks movies
		refs[i] = ref{id: id, kind: models.MediaKindMovie}
	}
	return settle(name, models.ReadySection(a.resolve(ctx, name, refs)))
}

func settle[T any](name string, s models.Section[T]) models.Section[T] {
	metrics.DashboardSectionsTotal.WithLabelValues(name, string(s.Status)).Inc()
	return s
}
