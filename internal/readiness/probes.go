package readiness

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

// Well-known paths probed relative to the target's origin.
const (
	llmsTxtPath      = "/llms.txt"
	sitemapPath      = "/sitemap.xml"
	sitemapIndexPath = "/sitemap_index.xml"
	mcpManifestPath  = "/.well-known/mcp.json"
)

var apiPaths = []string{"/api", "/api/v1", "/graphql"}

const llmsTxtExcerptLen = 500

func wellKnownURL(base *url.URL, path string) string {
	return base.ResolveReference(&url.URL{Path: path}).String()
}

type llmsTxtFinding struct {
	excerpt *string
}

func (f llmsTxtFinding) apply(r *model.AnalysisResult) {
	r.HasLlmsTxt = f.excerpt != nil
	r.Details.LlmsTxtContent = f.excerpt
}

func checkLlmsTxt(ctx context.Context, p Prober, base *url.URL) llmsTxtFinding {
	resp, err := p.Probe(ctx, http.MethodGet, wellKnownURL(base, llmsTxtPath), "")
	if err != nil || resp.StatusCode != http.StatusOK || len(resp.Body) == 0 {
		return llmsTxtFinding{}
	}
	excerpt := truncateRunes(string(resp.Body), llmsTxtExcerptLen)
	return llmsTxtFinding{excerpt: &excerpt}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

type sitemapFinding struct {
	url *string
}

func (f sitemapFinding) apply(r *model.AnalysisResult) {
	r.HasSitemap = f.url != nil
	r.Details.SitemapURL = f.url
}

// checkSitemap tries the sitemap candidates in order and stops at the first
// one answering 200 to a HEAD request.
func checkSitemap(ctx context.Context, p Prober, base *url.URL) sitemapFinding {
	for _, path := range []string{sitemapPath, sitemapIndexPath} {
		sitemapURL := wellKnownURL(base, path)
		resp, err := p.Probe(ctx, http.MethodHead, sitemapURL, "")
		if err == nil && resp.StatusCode == http.StatusOK {
			return sitemapFinding{url: &sitemapURL}
		}
	}
	return sitemapFinding{}
}

type apiFinding struct {
	json, text, markdown bool
	endpoints            []string
}

func (f apiFinding) apply(r *model.AnalysisResult) {
	r.HasJSONAPI = f.json
	r.HasTextAPI = f.text
	r.HasMarkdownAPI = f.markdown
	r.Details.APIEndpoints = append(r.Details.APIEndpoints, f.endpoints...)
}

// checkAPIEndpoints probes every API path. Any status below 500 is inspected,
// so an error page served as JSON still counts as a JSON API.
func checkAPIEndpoints(ctx context.Context, p Prober, base *url.URL) apiFinding {
	var f apiFinding
	for _, path := range apiPaths {
		apiURL := wellKnownURL(base, path)
		resp, err := p.Probe(ctx, http.MethodGet, apiURL, "")
		if err != nil || resp.StatusCode >= http.StatusInternalServerError {
			continue
		}

		contentType := strings.ToLower(resp.ContentType)
		switch {
		case strings.Contains(contentType, "application/json"):
			f.json = true
			f.endpoints = append(f.endpoints, apiURL+" (JSON)")
		case strings.Contains(contentType, "text/plain"):
			f.text = true
			f.endpoints = append(f.endpoints, apiURL+" (Text)")
		case strings.Contains(contentType, "text/markdown"):
			f.markdown = true
			f.endpoints = append(f.endpoints, apiURL+" (Markdown)")
		}
	}
	return f
}

type mcpFinding struct {
	info *model.MCPServerInfo
}

func (f mcpFinding) apply(r *model.AnalysisResult) {
	r.HasMCPServer = f.info != nil
	r.Details.MCPServerInfo = f.info
}

// checkMCPServer reads the MCP discovery manifest. The advertised endpoint
// falls back to the manifest URL itself.
func checkMCPServer(ctx context.Context, p Prober, base *url.URL) mcpFinding {
	manifestURL := wellKnownURL(base, mcpManifestPath)
	resp, err := p.Probe(ctx, http.MethodGet, manifestURL, "application/json")
	if err != nil || resp.StatusCode != http.StatusOK {
		return mcpFinding{}
	}

	var manifest any
	if err := json.Unmarshal(resp.Body, &manifest); err != nil || manifest == nil {
		return mcpFinding{}
	}

	info := &model.MCPServerInfo{Endpoint: manifestURL}
	if fields, ok := manifest.(map[string]any); ok {
		if endpoint, ok := fields["endpoint"].(string); ok && endpoint != "" {
			info.Endpoint = endpoint
		}
		if name, ok := fields["name"].(string); ok {
			info.Name = name
		}
	}
	return mcpFinding{info: info}
}
