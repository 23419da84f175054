package recommend

import (
	"context"
	"net/http"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/client"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metrics"
	"github.com/Belphemur/MovieMatch/internal/models"
)

const serviceName = "recommend"

// Client turns a liked set into recommended identifiers. Ranking happens upstream.
type Client interface {
	// Recommend sends one request. An empty result is valid and is not an error.
	// Callers enforce the minimum liked set size with CheckPrecondition first.
	Recommend(ctx context.Context, liked models.LikedSet) (models.RecommendationResult, error)
}

type recommendRequest struct {
	LikedIDs []models.Identifier `json:"liked_ids"`
}

type recommendResponse struct {
	Recommendations models.RecommendationResult `json:"recommendations"`
}

type backendClient struct {
	requester *client.Requester
}

// NewClient creates a recommendation client against the companion backend
func NewClient(cfg *config.Config, httpClient *http.Client) Client {
	return &backendClient{
		requester: client.NewRequester(httpClient, serviceName, cfg.Backend.URL, nil),
	}
}

func (c *backendClient) Recommend(ctx context.Context, liked models.LikedSet) (models.RecommendationResult, error) {
	logger := config.GetLogger()

	var resp recommendResponse
	if err := c.requester.PostJSON(ctx, "recommend", "/api/recommend/", recommendRequest{LikedIDs: liked.IDs()}, &resp); err != nil {
		metrics.RecommendationRequestsTotal.WithLabelValues("error").Inc()
		return models.RecommendationResult{}, err
	}

	if resp.Recommendations.Empty() {
		metrics.RecommendationRequestsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.RecommendationRequestsTotal.WithLabelValues("success").Inc()
	}
	if resp.Recommendations.Groups == nil {
		resp.Recommendations.Groups = map[string][]models.Identifier{}
	}

	logger.Debug().Int("liked", liked.Len()).Int("groups", len(resp.Recommendations.Groups)).Msg("Received recommendations")
	return resp.Recommendations, nil
}

// CheckPrecondition returns *apperrors.ErrPrecondition when liked has fewer than min identifiers
func CheckPrecondition(liked models.LikedSet, min int) error {
	if !liked.MeetsMinimum(min) {
		return apperrors.NewMinLikedError(min, liked.Len())
	}
	return nil
}
