package client

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, br, zstd"

// decoderFunc wraps a compressed body in a decompressing reader
type decoderFunc func(body io.Reader) (io.ReadCloser, error)

var decoders = map[string]decoderFunc{
	"gzip": func(body io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(body)
	},
	"br": func(body io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(body)), nil
	},
	"zstd": func(body io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	},
}

// compressionTransport advertises gzip, brotli and zstd to upstream services and
// transparently decodes whichever one the response uses.
type compressionTransport struct {
	next http.RoundTripper
}

func newCompressionTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &compressionTransport{next: next}
}

// RoundTrip implements http.RoundTripper
func (t *compressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	decode, ok := decoders[outermostEncoding(resp.Header.Get("Content-Encoding"))]
	if !ok {
		return resp, nil
	}

	reader, err := decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	resp.Body = &decodedBody{ReadCloser: reader, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodedBody closes both the decoder and the raw connection body
type decodedBody struct {
	io.ReadCloser
	raw io.ReadCloser
}

func (b *decodedBody) Close() error {
	decErr := b.ReadCloser.Close()
	rawErr := b.raw.Close()
	if decErr != nil {
		return decErr
	}
	return rawErr
}

// outermostEncoding returns the last coding listed in a Content-Encoding header, lowercased.
// The last coding was applied last and has to be removed first.
func outermostEncoding(header string) string {
	codings := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(codings[len(codings)-1]))
}
