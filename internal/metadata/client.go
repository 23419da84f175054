package metadata

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/client"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

const serviceName = "metadata"

// Client wraps the external movie/TV metadata service. Every operation is a single
// request/response against the service (GetDetail issues its three parts concurrently),
// with no local caching and no internal retries.
type Client interface {
	SearchMulti(ctx context.Context, query string) ([]models.MediaSummary, error)
	DiscoverByGenre(ctx context.Context, genreID int, kind models.MediaKind) ([]models.MediaSummary, error)
	ListTrending(ctx context.Context) ([]models.MediaSummary, error)
	ListUpcoming(ctx context.Context) ([]models.MediaSummary, error)
	ListPopularTV(ctx context.Context) ([]models.MediaSummary, error)

	// GetDetail fetches base detail, credits and trailer concurrently. A trailer failure
	// degrades to a detail without trailer; base or credits failures fail the call.
	GetDetail(ctx context.Context, id models.Identifier, kind models.MediaKind) (*models.MediaDetail, error)

	ListGenres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error)
	GetWatchProviders(ctx context.Context, id models.Identifier, kind models.MediaKind, region string) ([]models.WatchProvider, error)
}

type tmdbClient struct {
	requester *client.Requester
}

// NewClient creates a metadata client authenticated with the configured API key
func NewClient(cfg *config.Config, httpClient *http.Client) Client {
	defaults := url.Values{}
	if cfg.Metadata.APIKey != "" {
		defaults.Set("api_key", cfg.Metadata.APIKey)
	} else {
		logger := config.GetLogger()
		logger.Warn().Msg("No metadata API key configured, requests will be rejected upstream")
	}

	return &tmdbClient{
		requester: client.NewRequester(httpClient, serviceName, cfg.Metadata.URL, defaults),
	}
}

func requireKind(kind models.MediaKind) error {
	if !kind.Valid() {
		return apperrors.NewValidationError("kind", "must be movie or tv")
	}
	return nil
}
