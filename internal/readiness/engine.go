package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/errs"
)

// Engine fetches a website, runs every detector against it and scores the
// outcome. It keeps no state between calls.
type Engine struct {
	fetcher          Fetcher
	prober           Prober
	probeConcurrency int
}

// NewEngine returns an Engine that fetches the primary page with fetcher and
// sends the well-known-path probes through prober, at most probeConcurrency
// at a time. A concurrency of 1 runs the probes strictly in order.
func NewEngine(fetcher Fetcher, prober Prober, probeConcurrency int) *Engine {
	return &Engine{
		fetcher:          fetcher,
		prober:           prober,
		probeConcurrency: max(probeConcurrency, 1),
	}
}

type probeCheck func(ctx context.Context, p Prober, base *url.URL) finding

// Analyze normalizes targetURL, fetches it and returns the scored result.
// Only a failure to fetch the primary page is an error; every other probe
// degrades to "not found".
func (e *Engine) Analyze(ctx context.Context, targetURL string) (*model.AnalysisResult, error) {
	base, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}

	html, err := e.fetchPrimary(ctx, base.String())
	if err != nil {
		return nil, err
	}

	// Slots follow the documented detector order; each probe goroutine
	// writes only its own slot.
	findings := []finding{
		nil, // llms.txt
		detectFeeds(html, base),
		detectJSONLD(html),
		detectSemanticHTML(html),
		detectServerSideRendering(html),
		detectMetaTags(html),
		nil, // sitemap
		nil, // API endpoints
		nil, // MCP server
	}
	probes := []struct {
		slot  int
		check probeCheck
	}{
		{0, func(ctx context.Context, p Prober, b *url.URL) finding { return checkLlmsTxt(ctx, p, b) }},
		{6, func(ctx context.Context, p Prober, b *url.URL) finding { return checkSitemap(ctx, p, b) }},
		{7, func(ctx context.Context, p Prober, b *url.URL) finding { return checkAPIEndpoints(ctx, p, b) }},
		{8, func(ctx context.Context, p Prober, b *url.URL) finding { return checkMCPServer(ctx, p, b) }},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probeConcurrency)
	for _, probe := range probes {
		g.Go(func() error {
			findings[probe.slot] = probe.check(gctx, e.prober, base)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	result := model.NewAnalysisResult()
	for _, f := range findings {
		f.apply(result)
	}
	result.Score = Score(result)
	result.Details.Recommendations = Recommendations(result)

	return result, nil
}

func (e *Engine) fetchPrimary(ctx context.Context, target string) (string, error) {
	body, statusCode, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		return "", fetchError(err)
	}
	defer func() { _ = body.Close() }()

	if statusCode < 200 || statusCode > 299 {
		return "", &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: statusCode,
			Message:        fmt.Sprintf("The provided URL returned an error status (%d).", statusCode),
		}
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fetchError(err)
	}
	return string(raw), nil
}

func fetchError(err error) error {
	if errors.Is(err, context.Canceled) {
		return contextError(err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &errs.AppError{
			Kind:    errs.Timeout,
			Message: "The website took too long to respond.",
			Cause:   err,
		}
	}
	return &errs.AppError{
		Kind:    errs.Unreachable,
		Message: "The provided URL could not be reached. Check the address.",
		Cause:   err,
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &errs.AppError{
			Kind:    errs.Timeout,
			Message: "Analysis timed out. The target URL may be slow to respond.",
			Cause:   err,
		}
	}
	return &errs.AppError{
		Kind:    errs.Unknown,
		Message: "Analysis was cancelled.",
		Cause:   err,
	}
}
