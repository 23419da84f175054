package account

import (
	"context"
	"net/url"

	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

type usernameResponse struct {
	Available *bool `json:"available"`
}

// CheckUsernameAvailable never guesses: transport, status and decoding failures all map to unknown
func (c *backendClient) CheckUsernameAvailable(ctx context.Context, username string) models.Availability {
	logger := config.GetLogger()

	var resp usernameResponse
	if err := c.requester.GetJSON(ctx, "check_username", "/api/check-username/", url.Values{"username": {username}}, &resp); err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("Username check failed, availability unknown")
		return models.AvailabilityUnknown
	}

	switch {
	case resp.Available == nil:
		return models.AvailabilityUnknown
	case *resp.Available:
		return models.AvailabilityAvailable
	default:
		return models.AvailabilityTaken
	}
}
