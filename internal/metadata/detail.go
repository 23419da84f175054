package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/models"
)

// GetDetail resolves one title. Base detail, credits and videos are requested concurrently.
func (c *tmdbClient) GetDetail(ctx context.Context, id models.Identifier, kind models.MediaKind) (*models.MediaDetail, error) {
	if err := requireKind(kind); err != nil {
		return nil, err
	}
	logger := config.GetLogger()
	prefix := fmt.Sprintf("/%s/%d", kind, id)

	// Base or credits failing makes the other parts useless
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		base      tmdbDetail
		credits   tmdbCredits
		videos    tmdbVideos
		videosErr error
		mu        sync.Mutex
		firstErr  error
		wg        conc.WaitGroup
	)
	// The first required failure wins; siblings cancelled after it report context errors
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	wg.Go(func() {
		if err := c.requester.GetJSON(ctx, "detail", prefix, nil, &base); err != nil {
			fail(err)
		}
	})
	wg.Go(func() {
		if err := c.requester.GetJSON(ctx, "credits", prefix+"/credits", nil, &credits); err != nil {
			fail(err)
		}
	})
	wg.Go(func() {
		videosErr = c.requester.GetJSON(ctx, "videos", prefix+"/videos", nil, &videos)
	})
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	detail := base.toModel(id, kind)
	detail.Credits = credits.toModel()
	if videosErr != nil {
		logger.Warn().Err(videosErr).Str("kind", kind.String()).Int64("id", int64(id)).Msg("Trailer lookup failed, continuing without trailer")
	} else {
		detail.Trailer = videos.trailer()
	}

	return detail, nil
}

func (d tmdbDetail) toModel(id models.Identifier, kind models.MediaKind) *models.MediaDetail {
	detail := &models.MediaDetail{
		ID:           id,
		Kind:         kind,
		Overview:     d.Overview,
		Genres:       d.Genres,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
	}
	if detail.Genres == nil {
		detail.Genres = []models.Genre{}
	}
	if kind == models.MediaKindMovie {
		detail.Title = firstNonEmpty(d.Title, d.Name)
		detail.ReleaseDate = d.ReleaseDate
		detail.RuntimeMinutes = d.Runtime
	} else {
		detail.Title = firstNonEmpty(d.Name, d.Title)
		detail.ReleaseDate = d.FirstAirDate
	}
	return detail
}

// toModel keeps billing order as sent by the service
func (c tmdbCredits) toModel() []models.CastMember {
	cast := make([]models.CastMember, 0, len(c.Cast))
	for _, m := range c.Cast {
		cast = append(cast, models.CastMember{
			PersonID:    m.ID,
			Name:        m.Name,
			Character:   m.Character,
			ProfilePath: m.ProfilePath,
		})
	}
	return cast
}
