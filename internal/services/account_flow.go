package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Belphemur/MovieMatch/internal/account"
	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/session"
	"github.com/Belphemur/MovieMatch/internal/validation"
)

// RegistrationForm is what the sign up screens collect. LastName and Gender are optional.
type RegistrationForm struct {
	Username       string              `json:"username" validate:"nonblank"`
	Password       string              `json:"password" validate:"required"`
	RetypePassword string              `json:"retype_password" validate:"required,eqfield=Password"`
	FirstName      string              `json:"first_name" validate:"nonblank"`
	LastName       string              `json:"last_name"`
	Day            int                 `json:"day" validate:"required,min=1,max=31"`
	Month          int                 `json:"month" validate:"required,min=1,max=12"`
	Year           int                 `json:"year" validate:"required,min=1000,max=9999"`
	Country        string              `json:"country" validate:"nonblank"`
	Gender         string              `json:"gender"`
	LikedMovieIDs  []models.Identifier `json:"liked_movie_ids"`
}

func (f RegistrationForm) profile() models.Profile {
	return models.Profile{
		Username:      f.Username,
		Password:      f.Password,
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		BirthDay:      f.Day,
		BirthMonth:    f.Month,
		BirthYear:     f.Year,
		Country:       f.Country,
		Gender:        f.Gender,
		LikedMovieIDs: models.NewLikedSet(f.LikedMovieIDs...).IDs(),
	}
}

// validateForm runs the struct rules and the liked set minimum, which counts distinct titles.
func validateForm(form *RegistrationForm) error {
	verr := &apperrors.ErrValidation{}
	if err := validation.Struct(form); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}

	if !models.NewLikedSet(form.LikedMovieIDs...).MeetsMinimum(models.MinLikedForRecommendations) {
		verr.Add("liked_movie_ids", fmt.Sprintf("must contain at least %d distinct titles", models.MinLikedForRecommendations))
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// AccountService runs the sign up, sign in and watchlist flows and keeps the session in step
type AccountService struct {
	accounts account.Client
}

// NewAccountService creates an AccountService
func NewAccountService(accounts account.Client) *AccountService {
	return &AccountService{accounts: accounts}
}

// Register validates the form locally, registers with the backend and signs the session in.
// Local validation failures never reach the backend.
func (s *AccountService) Register(ctx context.Context, w *session.Writer, form RegistrationForm) (*models.RegisterResult, error) {
	logger := config.GetLogger()

	if err := validateForm(&form); err != nil {
		return nil, err
	}

	profile := form.profile()
	result, err := s.accounts.Register(ctx, profile)
	if err != nil {
		return nil, err
	}

	liked := result.LikedMovieIDs
	if len(liked) == 0 {
		liked = profile.LikedMovieIDs
	}
	w.SignIn(result.UserID, models.NewLikedSet(liked...))

	logger.Info().Int64("userID", int64(result.UserID)).Msg("User registered")
	return result, nil
}

// Login checks credentials with the backend and signs the session in, keeping the
// liked set the session already holds.
func (s *AccountService) Login(ctx context.Context, w *session.Writer, current session.State, username, password string) (*models.LoginResult, error) {
	if username == "" || password == "" {
		verr := &apperrors.ErrValidation{}
		if username == "" {
			verr.Add("username", "is required")
		}
		if password == "" {
			verr.Add("password", "is required")
		}
		return nil, verr
	}

	result, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	w.SignIn(result.UserID, current.Liked)
	return result, nil
}

// Logout clears the session
func (s *AccountService) Logout(w *session.Writer) {
	w.Clear()
}

// UpdateLikes replaces the session's liked set
func (s *AccountService) UpdateLikes(w *session.Writer, liked models.LikedSet) {
	w.SetLiked(liked)
}

// CheckUsername is best effort and never fails
func (s *AccountService) CheckUsername(ctx context.Context, username string) models.Availability {
	return s.accounts.CheckUsernameAvailable(ctx, username)
}

// Watchlist returns the signed-in user's watchlist
func (s *AccountService) Watchlist(ctx context.Context, state session.State) ([]models.WatchlistEntry, error) {
	if !state.SignedIn() {
		return nil, &apperrors.ErrAuth{Reason: "sign in required"}
	}
	return s.accounts.GetWatchlist(ctx, *state.UserID)
}

// AddToWatchlist adds media for the signed-in user
func (s *AccountService) AddToWatchlist(ctx context.Context, state session.State, media models.MediaSummary) (models.AddOutcome, error) {
	if !state.SignedIn() {
		return 0, &apperrors.ErrAuth{Reason: "sign in required"}
	}
	if !media.Kind.Valid() {
		return 0, apperrors.NewValidationError("kind", "must be movie or tv")
	}

	return s.accounts.AddToWatchlist(ctx, models.WatchlistEntry{
		UserID:     *state.UserID,
		MediaID:    media.ID,
		MediaKind:  media.Kind,
		Title:      media.Title,
		PosterPath: media.PosterPath,
	})
}
