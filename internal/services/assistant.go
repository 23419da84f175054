package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// MaxSuggestions bounds the titles attached to a genre reply
const MaxSuggestions = 5

var prompts = []string{
	"Action",
	"Adventure",
	"Animation",
	"Mystery",
	"Biography",
	"Comedy",
	"Crime",
	"Fantasy",
	"Horror",
	"Romance",
}

// GenreSource is the part of the metadata client the assistant uses
type GenreSource interface {
	ListGenres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error)
	DiscoverByGenre(ctx context.Context, genreID int, kind models.MediaKind) ([]models.MediaSummary, error)
}

// AssistantReply is one scripted answer
type AssistantReply struct {
	Text        string                `json:"text"`
	Genre       string                `json:"genre,omitempty"`
	Suggestions []models.MediaSummary `json:"suggestions"`
}

// Assistant is the scripted chat helper. It recognises genre prompts and otherwise echoes.
type Assistant struct {
	genres GenreSource
}

// NewAssistant creates an Assistant
func NewAssistant(genres GenreSource) *Assistant {
	return &Assistant{genres: genres}
}

// Prompts returns the fixed genre prompts offered to the user
func (a *Assistant) Prompts() []string {
	return append([]string(nil), prompts...)
}

// Reply answers one message. Blank messages are rejected; suggestion lookups never fail the reply.
func (a *Assistant) Reply(ctx context.Context, message string) (*AssistantReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message", "must not be blank")
	}

	genre, ok := a.matchPrompt(message)
	if !ok {
		return &AssistantReply{
			Text:        fmt.Sprintf("You asked about: \"%s\". Here's what I found!", message),
			Suggestions: []models.MediaSummary{},
		}, nil
	}

	return &AssistantReply{
		Text:        fmt.Sprintf("Looking into \"%s\" movies and shows for you!", genre),
		Genre:       genre,
		Suggestions: a.suggest(ctx, genre),
	}, nil
}

func (a *Assistant) matchPrompt(message string) (string, bool) {
	folded := fold(message)
	for _, p := range prompts {
		if fold(p) == folded {
			return p, true
		}
	}
	return "", false
}

// suggest looks the genre up in the metadata catalogue and returns a few movies for it
func (a *Assistant) suggest(ctx context.Context, genre string) []models.MediaSummary {
	logger := config.GetLogger()
	out := []models.MediaSummary{}

	genres, err := a.genres.ListGenres(ctx, models.MediaKindMovie)
	if err != nil {
		logger.Warn().Err(err).Str("genre", genre).Msg("Genre lookup failed, replying without suggestions")
		return out
	}

	folded := fold(genre)
	for _, g := range genres {
		if fold(g.Name) != folded {
			continue
		}
		items, err := a.genres.DiscoverByGenre(ctx, g.ID, models.MediaKindMovie)
		if err != nil {
			logger.Warn().Err(err).Str("genre", genre).Msg("Discover failed, replying without suggestions")
			return out
		}
		if len(items) > MaxSuggestions {
			items = items[:MaxSuggestions]
		}
		return append(out, items...)
	}

	logger.Debug().Str("genre", genre).Msg("Prompt has no matching catalogue genre")
	return out
}

// fold case-folds s. Casers are stateful and not shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}
