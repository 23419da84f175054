package client

import (
	"net/http"
	"net/url"

	"github.com/Belphemur/MovieMatch/internal/config"
)

// NewHTTPClient creates the HTTP client shared by every upstream client.
// Each call is bounded by the configured client timeout; a proxy is used when configured.
func NewHTTPClient(cfg *config.Config) *http.Client {
	// Clone DefaultTransport to preserve its pooling, HTTP/2 and dial timeouts
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: newCompressionTransport(baseTransport),
	}
}
