package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metrics"
	"github.com/Belphemur/MovieMatch/internal/models"
)

type ref struct {
	id   models.Identifier
	kind models.MediaKind
}

// resolve fetches MediaDetail for every ref concurrently, retrying each item on its own.
// Items that still fail are dropped; the output keeps the input order of the survivors.
func (a *Aggregator) resolve(ctx context.Context, section string, refs []ref) []models.MediaDetail {
	if len(refs) == 0 {
		return []models.MediaDetail{}
	}
	logger := config.GetLogger()

	// Each goroutine writes only its own slot
	results := make([]models.Result[*models.MediaDetail], len(refs))
	p := pool.New().WithMaxGoroutines(a.opts.DetailConcurrency)
	for i, r := range refs {
		p.Go(func() {
			detail, err := retry.DoWithData(
				func() (*models.MediaDetail, error) {
					return a.metadata.GetDetail(ctx, r.id, r.kind)
				},
				retry.Context(ctx),
				retry.Attempts(a.opts.DetailAttempts),
				retry.Delay(a.opts.RetryDelay),
				retry.DelayType(retry.FixedDelay),
				retry.LastErrorOnly(true),
				retry.RetryIf(isRetryable),
			)
			results[i] = models.Result[*models.MediaDetail]{Value: detail, Err: err}
		})
	}
	p.Wait()

	out := make([]models.MediaDetail, 0, len(refs))
	for i, res := range results {
		if res.Err != nil || res.Value == nil {
			metrics.DetailResolutionsTotal.WithLabelValues("dropped").Inc()
			logger.Warn().Err(res.Err).
				Str("section", section).
				Str("kind", refs[i].kind.String()).
				Int64("id", int64(refs[i].id)).
				Msg("Dropping item that could not be resolved")
			continue
		}
		metrics.DetailResolutionsTotal.WithLabelValues("success").Inc()
		out = append(out, *res.Value)
	}
	return out
}

// isRetryable retries transport failures, throttling and 5xx answers.
// Client errors such as 404 and undecodable bodies will not change on a second attempt.
// Cancellation of the caller's context is handled by retry.Context.
func isRetryable(err error) bool {
	var upstream *apperrors.ErrUpstream
	if !errors.As(err, &upstream) {
		return false
	}
	switch {
	case upstream.Malformed:
		return false
	case upstream.StatusCode == 0:
		return true
	case upstream.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return upstream.StatusCode >= http.StatusInternalServerError
	}
}
