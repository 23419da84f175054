package metadata

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// SearchMulti searches movies and TV series by free text. People in the results are skipped.
// A blank query returns no results without calling the service.
func (c *tmdbClient) SearchMulti(ctx context.Context, query string) ([]models.MediaSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.MediaSummary{}, nil
	}

	var page pagedResponse
	params := url.Values{"query": {query}, "include_adult": {"false"}}
	if err := c.requester.GetJSON(ctx, "search", "/search/multi", params, &page); err != nil {
		return nil, err
	}

	results := page.summaries(models.MediaKindUnknown)
	logger := config.GetLogger()
	logger.Debug().Str("query", query).Int("results", len(results)).Int("raw", len(page.Results)).Msg("Search completed")
	return results, nil
}

// DiscoverByGenre lists titles of one kind tagged with genreID
func (c *tmdbClient) DiscoverByGenre(ctx context.Context, genreID int, kind models.MediaKind) ([]models.MediaSummary, error) {
	if err := requireKind(kind); err != nil {
		return nil, err
	}
	params := url.Values{"with_genres": {strconv.Itoa(genreID)}}
	return c.list(ctx, "discover", "/discover/"+kind.String(), params, kind)
}

// ListTrending lists movies trending this week
func (c *tmdbClient) ListTrending(ctx context.Context) ([]models.MediaSummary, error) {
	return c.list(ctx, "trending", "/trending/movie/week", nil, models.MediaKindMovie)
}

// ListUpcoming lists upcoming movie releases
func (c *tmdbClient) ListUpcoming(ctx context.Context) ([]models.MediaSummary, error) {
	return c.list(ctx, "upcoming", "/movie/upcoming", nil, models.MediaKindMovie)
}

// ListPopularTV lists popular TV series
func (c *tmdbClient) ListPopularTV(ctx context.Context) ([]models.MediaSummary, error) {
	return c.list(ctx, "popular_tv", "/tv/popular", nil, models.MediaKindTV)
}

func (c *tmdbClient) list(ctx context.Context, operation, path string, params url.Values, kind models.MediaKind) ([]models.MediaSummary, error) {
	var page pagedResponse
	if err := c.requester.GetJSON(ctx, operation, path, params, &page); err != nil {
		return nil, err
	}
	return page.summaries(kind), nil
}
