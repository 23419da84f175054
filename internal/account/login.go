package account

import (
	"context"
	"net/http"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a user identifier
func (c *backendClient) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	logger := config.GetLogger()

	resp, err := c.requester.Do(ctx, "login", http.MethodPost, "/api/login/", nil, loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		logger.Info().Str("username", username).Int("status", resp.StatusCode).Msg("Login rejected")
		return nil, &apperrors.ErrAuth{Username: username}
	}

	var result models.LoginResult
	if err := c.requester.Expect("login", resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
