package account

import (
	"context"
	"net/http"

	"github.com/Belphemur/MovieMatch/internal/client"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

const serviceName = "backend"

// Client wraps the companion backend's account and watchlist endpoints
type Client interface {
	Register(ctx context.Context, profile models.Profile) (*models.RegisterResult, error)
	Login(ctx context.Context, username, password string) (*models.LoginResult, error)

	// CheckUsernameAvailable is best effort: any failure yields AvailabilityUnknown
	CheckUsernameAvailable(ctx context.Context, username string) models.Availability

	GetWatchlist(ctx context.Context, userID models.Identifier) ([]models.WatchlistEntry, error)
	// AddToWatchlist is idempotent by (user, media, kind); a duplicate reports AddOutcomeAlreadyPresent
	AddToWatchlist(ctx context.Context, entry models.WatchlistEntry) (models.AddOutcome, error)
}

type backendClient struct {
	requester *client.Requester
}

// NewClient creates an account client for the configured backend
func NewClient(cfg *config.Config, httpClient *http.Client) Client {
	return &backendClient{
		requester: client.NewRequester(httpClient, serviceName, cfg.Backend.URL, nil),
	}
}
