package readiness

import "github.com/Bahjat/llm-readiness-checker/internal/model"

const maxScore = 100

// Signal weights. They add up to 135; the total is capped at maxScore.
const (
	weightJSONAPI      = 10
	weightTextAPI      = 8
	weightMarkdownAPI  = 8
	weightRSSFeed      = 10
	weightAtomFeed     = 8
	weightJSONFeed     = 10
	weightLlmsTxt      = 15
	weightJSONLD       = 12
	weightSemanticHTML = 10
	weightSSR          = 12
	weightMetaTags     = 9
	weightSitemap      = 8
	weightMCPServer    = 15
)

// Signal is one named capability flag of an AnalysisResult.
type Signal struct {
	Name    string
	Weight  int
	Present bool
}

// Signals lists the thirteen capability flags of r with their weights.
func Signals(r *model.AnalysisResult) []Signal {
	return []Signal{
		{"json_api", weightJSONAPI, r.HasJSONAPI},
		{"text_api", weightTextAPI, r.HasTextAPI},
		{"markdown_api", weightMarkdownAPI, r.HasMarkdownAPI},
		{"rss_feed", weightRSSFeed, r.HasRSSFeed},
		{"atom_feed", weightAtomFeed, r.HasAtomFeed},
		{"json_feed", weightJSONFeed, r.HasJSONFeed},
		{"llms_txt", weightLlmsTxt, r.HasLlmsTxt},
		{"json_ld", weightJSONLD, r.HasJSONLD},
		{"semantic_html", weightSemanticHTML, r.HasSemanticHTML},
		{"server_side_rendering", weightSSR, r.HasServerSideRendering},
		{"meta_tags", weightMetaTags, r.HasMetaTags},
		{"sitemap", weightSitemap, r.HasSitemap},
		{"mcp_server", weightMCPServer, r.HasMCPServer},
	}
}

// Score computes the readiness score from the flags of r alone.
func Score(r *model.AnalysisResult) int {
	score := 0
	for _, s := range Signals(r) {
		if s.Present {
			score += s.Weight
		}
	}
	return min(score, maxScore)
}

// Advice shown for each missing capability.
const (
	adviceLlmsTxt      = "Add an llms.txt file at the root of your site to provide a compact overview for LLMs"
	adviceAPIs         = "Expose API endpoints (JSON, text, or markdown) to allow programmatic access to your content"
	adviceFeeds        = "Add RSS, Atom, or JSON feeds to make your content easily discoverable and consumable"
	adviceJSONLD       = "Implement JSON-LD structured data to provide machine-readable summaries of your content"
	adviceSemanticHTML = "Use semantic HTML5 tags (header, nav, main, article, section, footer) to improve content structure"
	adviceSSR          = "Implement server-side rendering to ensure content is immediately accessible without JavaScript"
	adviceMetaTags     = "Add proper meta tags (title, description, Open Graph) for better discoverability"
	adviceSitemap      = "Create a sitemap.xml file to help LLMs and search engines discover all your pages"
	adviceMCPServer    = "Expose an MCP server at /.well-known/mcp.json to let AI agents interact with your site via the Model Context Protocol"
	adviceAllPresent   = "Excellent! Your website is well-prepared for LLM interactions"
)

// Recommendations returns advice for every missing capability of r. Feeds and
// APIs are advised on only when none of their variants is present. The list
// is never empty.
func Recommendations(r *model.AnalysisResult) []string {
	var recs []string

	if !r.HasLlmsTxt {
		recs = append(recs, adviceLlmsTxt)
	}
	if !r.HasJSONAPI && !r.HasTextAPI && !r.HasMarkdownAPI {
		recs = append(recs, adviceAPIs)
	}
	if !r.HasRSSFeed && !r.HasAtomFeed && !r.HasJSONFeed {
		recs = append(recs, adviceFeeds)
	}
	if !r.HasJSONLD {
		recs = append(recs, adviceJSONLD)
	}
	if !r.HasSemanticHTML {
		recs = append(recs, adviceSemanticHTML)
	}
	if !r.HasServerSideRendering {
		recs = append(recs, adviceSSR)
	}
	if !r.HasMetaTags {
		recs = append(recs, adviceMetaTags)
	}
	if !r.HasSitemap {
		recs = append(recs, adviceSitemap)
	}
	if !r.HasMCPServer {
		recs = append(recs, adviceMCPServer)
	}

	if len(recs) == 0 {
		recs = append(recs, adviceAllPresent)
	}
	return recs
}
