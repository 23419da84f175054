package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/Belphemur/MovieMatch/internal/models"
)

// DefaultRegion is used when no watch region is requested
const DefaultRegion = "US"

// GetWatchProviders lists where a title can be streamed, rented or bought in region.
// Offers are returned flatrate first, then rent, then buy. An unknown region yields no offers.
func (c *tmdbClient) GetWatchProviders(ctx context.Context, id models.Identifier, kind models.MediaKind, region string) ([]models.WatchProvider, error) {
	if err := requireKind(kind); err != nil {
		return nil, err
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}

	var resp tmdbProviders
	path := fmt.Sprintf("/%s/%d/watch/providers", kind, id)
	if err := c.requester.GetJSON(ctx, "watch_providers", path, nil, &resp); err != nil {
		return nil, err
	}

	out := []models.WatchProvider{}
	entry, ok := resp.Results[region]
	if !ok {
		return out, nil
	}
	for _, group := range []struct {
		offer  string
		offers []tmdbProviderOffer
	}{
		{"flatrate", entry.Flatrate},
		{"rent", entry.Rent},
		{"buy", entry.Buy},
	} {
		for _, o := range group.offers {
			out = append(out, models.WatchProvider{
				ProviderID: o.ProviderID,
				Name:       o.ProviderName,
				LogoPath:   o.LogoPath,
				Offer:      group.offer,
			})
		}
	}
	return out, nil
}
