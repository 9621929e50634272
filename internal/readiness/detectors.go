package readiness

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

// The HTML detectors match patterns against the raw markup instead of
// building a DOM. Known blind spots: attributes split across lines in odd
// orders, attribute values without quotes, and tag names that merely start
// with a vocabulary word (<navbar> counts as <nav>).

// SSR thresholds, in bytes of decoded HTML.
const (
	ssrMinContentLength = 5000
	spaShellMaxLength   = 3000
	semanticMinTags     = 4
)

// semanticVocabulary is the fixed set of HTML5 sectioning tags we look for.
var semanticVocabulary = []string{"header", "nav", "main", "article", "section", "aside", "footer"}

var (
	hrefPattern = regexp.MustCompile(`href=["']([^"']+)["']`)

	rssLinkPattern      = regexp.MustCompile(`(?i)<link[^>]*type=["']application/rss\+xml["'][^>]*>`)
	atomLinkPattern     = regexp.MustCompile(`(?i)<link[^>]*type=["']application/atom\+xml["'][^>]*>`)
	jsonFeedLinkPattern = regexp.MustCompile(`(?i)<link[^>]*type=["']application/feed\+json["'][^>]*>`)

	jsonLDPattern = regexp.MustCompile(`(?i)<script[^>]*type=["']application/ld\+json["'][^>]*>([\s\S]*?)</script>`)

	paragraphPattern = regexp.MustCompile(`(?i)<p[^>]*>[\s\S]*?</p>`)
	headingPattern   = regexp.MustCompile(`(?i)<h[1-6][^>]*>[\s\S]*?</h[1-6]>`)
	spaShellPattern  = regexp.MustCompile(`(?i)<div id=["']root["'][^>]*></div>`)

	titlePattern         = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)
	descriptionPattern   = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']+)["']`)
	ogTitlePattern       = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:title["'][^>]*content=["']([^"']+)["']`)
	ogDescriptionPattern = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:description["'][^>]*content=["']([^"']+)["']`)

	semanticPatterns = compileSemanticPatterns()
)

func compileSemanticPatterns() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(semanticVocabulary))
	for _, tag := range semanticVocabulary {
		m[tag] = regexp.MustCompile(`(?i)<` + tag + `[^>]*>`)
	}
	return m
}

// finding is the outcome of one detector. apply writes only the fields owned
// by that detector.
type finding interface {
	apply(r *model.AnalysisResult)
}

type feedFinding struct {
	rss, atom, jsonFeed bool
	urls                []string
}

func (f feedFinding) apply(r *model.AnalysisResult) {
	r.HasRSSFeed = f.rss
	r.HasAtomFeed = f.atom
	r.HasJSONFeed = f.jsonFeed
	r.Details.Feeds = append(r.Details.Feeds, f.urls...)
}

// detectFeeds looks for RSS, Atom and JSON feed <link> tags. The first tag of
// each type counts; its href is resolved against base.
func detectFeeds(html string, base *url.URL) feedFinding {
	var f feedFinding

	for _, kind := range []struct {
		pattern *regexp.Regexp
		flag    *bool
	}{
		{rssLinkPattern, &f.rss},
		{atomLinkPattern, &f.atom},
		{jsonFeedLinkPattern, &f.jsonFeed},
	} {
		tag := kind.pattern.FindString(html)
		if tag == "" {
			continue
		}
		*kind.flag = true
		if feedURL, ok := resolveHref(tag, base); ok {
			f.urls = append(f.urls, feedURL)
		}
	}

	return f
}

func resolveHref(tag string, base *url.URL) (string, bool) {
	m := hrefPattern.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	ref, err := url.Parse(m[1])
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

type jsonLDFinding struct {
	blocks []json.RawMessage
}

func (f jsonLDFinding) apply(r *model.AnalysisResult) {
	r.HasJSONLD = len(f.blocks) > 0
	r.Details.JSONLDData = append(r.Details.JSONLDData, f.blocks...)
}

// detectJSONLD collects every ld+json script block that parses as JSON.
func detectJSONLD(html string) jsonLDFinding {
	var f jsonLDFinding
	for _, m := range jsonLDPattern.FindAllStringSubmatch(html, -1) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(m[1])); err != nil {
			continue
		}
		f.blocks = append(f.blocks, json.RawMessage(buf.Bytes()))
	}
	return f
}

type semanticFinding struct {
	tags []string
}

func (f semanticFinding) apply(r *model.AnalysisResult) {
	r.HasSemanticHTML = len(f.tags) >= semanticMinTags
	r.Details.SemanticTags = append(r.Details.SemanticTags, f.tags...)
}

func detectSemanticHTML(html string) semanticFinding {
	var f semanticFinding
	for _, tag := range semanticVocabulary {
		if semanticPatterns[tag].MatchString(html) {
			f.tags = append(f.tags, tag)
		}
	}
	return f
}

type ssrFinding bool

func (f ssrFinding) apply(r *model.AnalysisResult) {
	r.HasServerSideRendering = bool(f)
}

// detectServerSideRendering reports whether the initial HTML already carries
// readable content rather than an empty client-side shell.
func detectServerSideRendering(html string) ssrFinding {
	hasContent := len(html) > ssrMinContentLength
	hasText := paragraphPattern.MatchString(html) || headingPattern.MatchString(html)
	isShell := spaShellPattern.MatchString(html) && len(html) < spaShellMaxLength

	return ssrFinding(hasContent && hasText && !isShell)
}

type metaFinding struct {
	tags map[model.MetaKey]string
}

func (f metaFinding) apply(r *model.AnalysisResult) {
	for k, v := range f.tags {
		r.Details.MetaTags[k] = v
	}
	r.HasMetaTags = f.tags[model.MetaTitle] != "" && f.tags[model.MetaDescription] != ""
}

func detectMetaTags(html string) metaFinding {
	f := metaFinding{tags: map[model.MetaKey]string{}}

	for _, meta := range []struct {
		key     model.MetaKey
		pattern *regexp.Regexp
	}{
		{model.MetaTitle, titlePattern},
		{model.MetaDescription, descriptionPattern},
		{model.MetaOGTitle, ogTitlePattern},
		{model.MetaOGDescription, ogDescriptionPattern},
	} {
		if m := meta.pattern.FindStringSubmatch(html); m != nil {
			f.tags[meta.key] = m[1]
		}
	}

	return f
}
