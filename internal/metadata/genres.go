package metadata

import (
	"context"

	"github.com/Belphemur/MovieMatch/internal/models"
)

// ListGenres returns the official genre list for a media kind
func (c *tmdbClient) ListGenres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if err := requireKind(kind); err != nil {
		return nil, err
	}
	var resp tmdbGenres
	if err := c.requester.GetJSON(ctx, "genres", "/genre/"+kind.String()+"/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []models.Genre{}, nil
	}
	return resp.Genres, nil
}
