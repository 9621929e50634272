package readiness

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	probeTimeout      = 5 * time.Second
	maxProbeBody      = 1 << 20
	maxConnsPerTarget = 4
)

// ProbeResponse is the part of an auxiliary response the detectors inspect.
type ProbeResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Prober issues the requests against a site's well-known paths.
type Prober interface {
	Probe(ctx context.Context, method, url, accept string) (*ProbeResponse, error)
}

// ProbeClient implements Prober with a short-timeout HTTP client.
type ProbeClient struct {
	client *http.Client
}

// NewProbeClient returns a ProbeClient with a 5s timeout that follows up to
// five redirects and blocks connections to private/reserved IP ranges.
func NewProbeClient() *ProbeClient {
	return newProbeClient(safeTransport(safeDialer(probeTimeout), maxConnsPerTarget))
}

func newProbeClient(transport http.RoundTripper) *ProbeClient {
	return &ProbeClient{
		client: &http.Client{
			Timeout:       probeTimeout,
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// Probe performs a single request. Any status code is returned to the caller;
// only transport failures are errors. Bodies are read up to 1 MB and not at
// all for HEAD requests.
func (p *ProbeClient) Probe(ctx context.Context, method, targetURL, accept string) (*ProbeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out := &ProbeResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if method == http.MethodHead {
		return out, nil
	}

	out.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return nil, err
	}
	return out, nil
}
