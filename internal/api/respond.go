package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
)

// maxRequestBody bounds JSON request bodies
const maxRequestBody = 1 << 20

type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger := config.GetLogger()
		logger.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps err to a status and a JSON body. Server side failures are reported to Sentry.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorResponse) {
	var (
		validation   *apperrors.ErrValidation
		auth         *apperrors.ErrAuth
		notFound     *apperrors.ErrNotFound
		precondition *apperrors.ErrPrecondition
		upstream     *apperrors.ErrUpstream
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Code: "validation_failed", Message: validation.Error(), Fields: validation.Fields}
	case errors.As(err, &auth):
		return http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: auth.Error()}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorResponse{Code: "not_found", Message: notFound.Error()}
	case errors.As(err, &precondition):
		return http.StatusUnprocessableEntity, errorResponse{Code: "precondition_failed", Message: precondition.Error()}
	// Checked before upstream errors, which wrap the context error of an abandoned call
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Code: "timeout", Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		// The client went away; the status is only seen in logs
		return 499, errorResponse{Code: "canceled", Message: "request canceled"}
	case errors.As(err, &upstream):
		// A 404 from the metadata service means the title does not exist
		if upstream.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, errorResponse{Code: "not_found", Message: upstream.Error()}
		}
		return http.StatusBadGateway, errorResponse{Code: "upstream_failed", Message: upstream.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: "internal error"}
	}
}

// decodeBody reads a JSON request body into out
func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apperrors.NewValidationError("body", "must be a valid JSON document")
	}
	return nil
}
