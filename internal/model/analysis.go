package model

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// MetaKey names one of the meta values captured from a page.
type MetaKey string

// Meta keys recorded in Details.MetaTags.
const (
	MetaTitle         MetaKey = "title"
	MetaDescription   MetaKey = "description"
	MetaOGTitle       MetaKey = "ogTitle"
	MetaOGDescription MetaKey = "ogDescription"
)

// AnalysisResult holds the readiness score, the capability flags and the
// evidence collected for a single website.
type AnalysisResult struct {
	Score int `json:"score"`

	HasJSONAPI             bool `json:"hasJsonApi"`
	HasTextAPI             bool `json:"hasTextApi"`
	HasMarkdownAPI         bool `json:"hasMarkdownApi"`
	HasRSSFeed             bool `json:"hasRssFeed"`
	HasAtomFeed            bool `json:"hasAtomFeed"`
	HasJSONFeed            bool `json:"hasJsonFeed"`
	HasLlmsTxt             bool `json:"hasLlmsTxt"`
	HasJSONLD              bool `json:"hasJsonLd"`
	HasSemanticHTML        bool `json:"hasSemanticHtml"`
	HasServerSideRendering bool `json:"hasServerSideRendering"`
	HasMetaTags            bool `json:"hasMetaTags"`
	HasSitemap             bool `json:"hasSitemap"`
	HasMCPServer           bool `json:"hasMcpServer"`

	Details Details `json:"details"`
}

// Details is the supporting evidence behind the flags.
type Details struct {
	APIEndpoints    []string           `json:"apiEndpoints"`
	Feeds           []string           `json:"feeds"`
	LlmsTxtContent  *string            `json:"llmsTxtContent"`
	JSONLDData      []json.RawMessage  `json:"jsonLdData"`
	SemanticTags    []string           `json:"semanticTags"`
	MetaTags        map[MetaKey]string `json:"metaTags"`
	SitemapURL      *string            `json:"sitemapUrl"`
	MCPServerInfo   *MCPServerInfo     `json:"mcpServerInfo"`
	Recommendations []string           `json:"recommendations"`
}

// MCPServerInfo describes a discovered Model Context Protocol manifest.
type MCPServerInfo struct {
	Endpoint string `json:"endpoint"`
	Name     string `json:"name,omitempty"`
}

// NewAnalysisResult returns a result with every flag false and every
// collection empty (not nil), so it serializes to stable JSON.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Details: Details{
			APIEndpoints:    []string{},
			Feeds:           []string{},
			JSONLDData:      []json.RawMessage{},
			SemanticTags:    []string{},
			MetaTags:        map[MetaKey]string{},
			Recommendations: []string{},
		},
	}
}

// Clone returns a deep copy of d that shares no slices, maps or pointers
// with it.
func (d Details) Clone() Details {
	c := Details{
		APIEndpoints:    slices.Clone(d.APIEndpoints),
		Feeds:           slices.Clone(d.Feeds),
		LlmsTxtContent:  clonePtr(d.LlmsTxtContent),
		SemanticTags:    slices.Clone(d.SemanticTags),
		MetaTags:        maps.Clone(d.MetaTags),
		SitemapURL:      clonePtr(d.SitemapURL),
		MCPServerInfo:   clonePtr(d.MCPServerInfo),
		Recommendations: slices.Clone(d.Recommendations),
	}
	if d.JSONLDData != nil {
		c.JSONLDData = make([]json.RawMessage, len(d.JSONLDData))
		for i, block := range d.JSONLDData {
			c.JSONLDData[i] = bytes.Clone(block)
		}
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StoredAnalysis is an AnalysisResult as persisted for a submitted URL.
type StoredAnalysis struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"userId"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	AnalysisResult
}

// Lead is an email captured against an analysis.
type Lead struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	AnalysisID int64     `json:"analysisId"`
	URL        string    `json:"url"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
