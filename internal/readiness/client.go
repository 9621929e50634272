package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// Fetcher defines how the engine retrieves the primary page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body io.ReadCloser, statusCode int, err error)
}

// limitedReadCloser reads from a decoded, size-limited reader but closes the
// original body.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// HTTPClient implements Fetcher using a real HTTP client.
type HTTPClient struct {
	client *http.Client
}

const (
	maxRedirects = 5
	userAgent    = "Mozilla/5.0 (compatible; LLM-Readiness-Checker/1.0)"

	primaryTimeout  = 10 * time.Second
	maxResponseBody = 10 << 20
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// NewHTTPClient returns a Fetcher backed by an http.Client with a 10s timeout,
// a dedicated transport that blocks connections to private/reserved IP ranges,
// and redirect validation that prevents SSRF via redirect chains.
func NewHTTPClient() *HTTPClient {
	return newHTTPClient(safeTransport(safeDialer(primaryTimeout), 10))
}

func newHTTPClient(transport http.RoundTripper) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:       primaryTimeout,
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// safeRedirectPolicy validates redirect targets and follows at most
// maxRedirects hops. via holds every request already sent, so the fifth hop
// arrives with len(via) == 5.
func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) > maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch retrieves the page at the given URL and returns its body decoded to
// UTF-8 according to the declared or sniffed charset.
func (c *HTTPClient) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := c.client.Do(req) //nolint:bodyclose // body is returned to caller via limitedReadCloser
	if err != nil {
		return nil, 0, err
	}

	// Limit response body to 10 MB to prevent memory exhaustion from
	// extremely large or infinite responses.
	var r io.Reader = io.LimitReader(resp.Body, maxResponseBody)
	if decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type")); err == nil {
		r = decoded
	}

	return &limitedReadCloser{Reader: r, Closer: resp.Body}, resp.StatusCode, nil
}
