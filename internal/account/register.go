package account

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// Register creates an account. A 400 from the backend is a field-level rejection.
func (c *backendClient) Register(ctx context.Context, profile models.Profile) (*models.RegisterResult, error) {
	logger := config.GetLogger()

	resp, err := c.requester.Do(ctx, "register", http.MethodPost, "/api/register/", nil, profile)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusBadRequest {
		verr := parseFieldErrors(resp.Body)
		logger.Info().Str("username", profile.Username).Str("reason", verr.Error()).Msg("Registration rejected by backend")
		return nil, verr
	}

	var result models.RegisterResult
	if err := c.requester.Expect("register", resp, &result); err != nil {
		return nil, err
	}
	if result.LikedMovieIDs == nil {
		result.LikedMovieIDs = []models.Identifier{}
	}

	logger.Info().Str("username", profile.Username).Int64("userID", int64(result.UserID)).Msg("Registered new account")
	return &result, nil
}

// parseFieldErrors reads a {"field": ["msg", ...]} or {"field": "msg"} body
func parseFieldErrors(body []byte) *apperrors.ErrValidation {
	verr := &apperrors.ErrValidation{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		verr.Add("non_field_errors", "registration rejected")
		return verr
	}

	for field, value := range raw {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, msg := range list {
				verr.Add(field, msg)
			}
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			verr.Add(field, single)
			continue
		}
		verr.Add(field, "invalid value")
	}
	return verr
}
