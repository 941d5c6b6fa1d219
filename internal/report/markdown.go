// Package report renders a structured analysis result as markdown, HTML and
// PDF. The markdown/HTML transforms are intentionally minimal: downstream
// consumers depend on the exact bytes produced here, so this is not a
// general-purpose markdown implementation.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/marketscout/marketscout/internal/core/domain"
)

var (
	numberedCitationRe = regexp.MustCompile(`^\[\d+\]`)
	excessNewlinesRe   = regexp.MustCompile(`\n{3,}`)

	h1Re     = regexp.MustCompile(`(?m)^# (.+)$`)
	h2Re     = regexp.MustCompile(`(?m)^## (.+)$`)
	h3Re     = regexp.MustCompile(`(?m)^### (.+)$`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
)

// RenderMarkdown assembles the downloadable report. It starts from the
// result's own markdown when present, generates sections from the
// structured fields otherwise, then appends a Sources and References
// section (only when citations exist) followed by the metadata footer.
func RenderMarkdown(result *domain.Result, now time.Time) string {
	if result == nil {
		return "# Analysis Error\n\nNo results available."
	}

	var b strings.Builder
	if result.Markdown != "" {
		b.WriteString(result.Markdown)
	} else {
		b.WriteString("# Market Research Analysis Report\n\n")
		if result.Summary != "" {
			fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", result.Summary)
		}
		if len(result.KeyFeatures) > 0 {
			b.WriteString("## Key Features\n\n")
			for _, f := range result.KeyFeatures {
				fmt.Fprintf(&b, "- %s\n", f)
			}
			b.WriteString("\n")
		}
		if result.Sentiment.Overall != "" {
			b.WriteString("## Sentiment Analysis\n\n")
			fmt.Fprintf(&b, "**Overall Sentiment:** %s\n", result.Sentiment.Overall)
			fmt.Fprintf(&b, "**Confidence Level:** %d/10\n\n", result.Sentiment.Confidence)
		}
		if len(result.ActionableInsights) > 0 {
			b.WriteString("## Actionable Insights\n\n")
			for i, insight := range result.ActionableInsights {
				fmt.Fprintf(&b, "%d. %s\n", i+1, insight)
			}
			b.WriteString("\n")
		}
	}

	if len(result.Citations) > 0 {
		b.WriteString("\n## Sources and References\n\n")
		for i, c := range result.Citations {
			switch {
			case strings.HasPrefix(c, "["):
				fmt.Fprintf(&b, "%s\n", c)
			case strings.HasPrefix(c, "http"):
				fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
			case !numberedCitationRe.MatchString(c):
				fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
			default:
				fmt.Fprintf(&b, "%s\n", c)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `
---

## Analysis Metadata

- **Generated:** %s
- **Analysis Framework:** Multi-Agent aiXplain System
- **Processing Status:** Completed Successfully

`, now.Format("2006-01-02 15:04:05"))

	md := excessNewlinesRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(md)
}

// RenderHTML applies the minimal markdown transform: headers, bold and
// italic spans, newlines to line breaks. Nested or malformed markup is not
// handled predictably.
func RenderHTML(md string) string {
	html := h3Re.ReplaceAllString(md, "<h3>$1</h3>")
	html = h2Re.ReplaceAllString(html, "<h2>$1</h2>")
	html = h1Re.ReplaceAllString(html, "<h1>$1</h1>")
	html = boldRe.ReplaceAllString(html, "<strong>$1</strong>")
	html = italicRe.ReplaceAllString(html, "<em>$1</em>")
	return strings.ReplaceAll(html, "\n", "<br>")
}
