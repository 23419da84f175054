package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metrics"
)

// maxBodySize bounds how much of an upstream response body is read
const maxBodySize = 8 << 20

// Response is a fully read upstream response
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Success reports whether the status is 2xx
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Requester issues JSON requests against one upstream service and maps every
// failure to *apperrors.ErrUpstream tagged with the service name.
type Requester struct {
	httpClient *http.Client
	service    string
	baseURL    string
	defaults   url.Values
}

// NewRequester creates a Requester. defaults are added to the query string of every request.
func NewRequester(httpClient *http.Client, service, baseURL string, defaults url.Values) *Requester {
	return &Requester{
		httpClient: httpClient,
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaults:   defaults,
	}
}

// Do sends one request and reads the whole body. Only transport failures return an error;
// callers decide what each status means.
func (r *Requester) Do(ctx context.Context, operation, method, path string, query url.Values, body any) (*Response, error) {
	logger := config.GetLogger()

	endpoint := r.buildURL(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(r.service).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(r.service, "error").Inc()
		logger.Debug().Err(err).Str("service", r.service).Str("operation", operation).Msg("Upstream request failed")
		return nil, apperrors.NewUpstreamTransportError(r.service, operation, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues(r.service, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.NewUpstreamTransportError(r.service, operation, fmt.Errorf("failed to read body: %w", err))
	}

	logger.Debug().
		Str("service", r.service).
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Upstream request completed")

	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: data}, nil
}

// GetJSON sends a GET and decodes a 2xx body into out
func (r *Requester) GetJSON(ctx context.Context, operation, path string, query url.Values, out any) error {
	resp, err := r.Do(ctx, operation, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return r.Expect(operation, resp, out)
}

// PostJSON sends body as JSON and decodes a 2xx body into out, which may be nil
func (r *Requester) PostJSON(ctx context.Context, operation, path string, body, out any) error {
	resp, err := r.Do(ctx, operation, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return r.Expect(operation, resp, out)
}

// Expect turns a non-2xx response into an upstream status error and decodes the body otherwise
func (r *Requester) Expect(operation string, resp *Response, out any) error {
	if !resp.Success() {
		return apperrors.NewUpstreamStatusError(r.service, operation, resp.StatusCode, resp.Status)
	}
	if out == nil {
		return nil
	}
	return r.Decode(operation, resp.Body, out)
}

// Decode unmarshals data into out; a malformed payload is an upstream failure
func (r *Requester) Decode(operation string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewUpstreamDecodeError(r.service, operation, fmt.Errorf("failed to decode JSON response: %w", err))
	}
	return nil
}

func (r *Requester) buildURL(path string, query url.Values) string {
	merged := url.Values{}
	for k, v := range r.defaults {
		merged[k] = append([]string(nil), v...)
	}
	for k, v := range query {
		merged[k] = append([]string(nil), v...)
	}

	endpoint := r.baseURL + path
	if encoded := merged.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint
}
