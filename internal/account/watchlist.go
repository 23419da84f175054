package account

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// GetWatchlist returns the user's watchlist in backend order
func (c *backendClient) GetWatchlist(ctx context.Context, userID models.Identifier) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := c.requester.GetJSON(ctx, "watchlist", fmt.Sprintf("/watchlist/%d/", userID), nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	for i := range entries {
		// Older rows were stored before TV support and carry no kind
		if !entries[i].MediaKind.Valid() {
			entries[i].MediaKind = models.MediaKindMovie
		}
		if entries[i].UserID == 0 {
			entries[i].UserID = userID
		}
	}
	return entries, nil
}

// AddToWatchlist appends entry; 201 means created and 200 means it was already there
func (c *backendClient) AddToWatchlist(ctx context.Context, entry models.WatchlistEntry) (models.AddOutcome, error) {
	logger := config.GetLogger()

	resp, err := c.requester.Do(ctx, "add_to_watchlist", http.MethodPost, "/add-to-watchlist/", nil, entry)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		logger.Info().Int64("userID", int64(entry.UserID)).Int64("mediaID", int64(entry.MediaID)).Msg("Added to watchlist")
		return models.AddOutcomeAdded, nil
	case http.StatusOK:
		logger.Debug().Int64("userID", int64(entry.UserID)).Int64("mediaID", int64(entry.MediaID)).Msg("Already in watchlist")
		return models.AddOutcomeAlreadyPresent, nil
	default:
		return 0, apperrors.NewUpstreamStatusError(serviceName, "add_to_watchlist", resp.StatusCode, resp.Status)
	}
}
