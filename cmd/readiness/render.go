package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/readiness"
)

// renderSummary writes a human-readable report of r to w.
func renderSummary(w io.Writer, target string, r *model.AnalysisResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", target)
	fmt.Fprintf(&b, "LLM readiness score: %d/100\n\n", r.Score)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, s := range readiness.Signals(r) {
		mark := "-"
		if s.Present {
			mark = "+"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", mark, s.Name, s.Weight)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	d := r.Details
	writeList(&b, "API endpoints", d.APIEndpoints)
	writeList(&b, "Feeds", d.Feeds)
	writeList(&b, "Semantic tags", d.SemanticTags)
	if d.SitemapURL != nil {
		fmt.Fprintf(&b, "\nSitemap: %s\n", *d.SitemapURL)
	}
	if d.MCPServerInfo != nil {
		fmt.Fprintf(&b, "\nMCP server: %s", d.MCPServerInfo.Endpoint)
		if d.MCPServerInfo.Name != "" {
			fmt.Fprintf(&b, " (%s)", d.MCPServerInfo.Name)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Recommendations", d.Recommendations)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}
