package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketscout/marketscout/internal/core/domain"
)

func TestRenderMarkdownNilResult(t *testing.T) {
	md := RenderMarkdown(nil, time.Now())
	assert.Contains(t, md, "# Analysis Error")
	assert.Contains(t, md, "No results available")
}

func TestRenderMarkdownAssemblesSections(t *testing.T) {
	result := &domain.Result{
		Summary:            "Slack dominates team chat.",
		KeyFeatures:        []string{"Channels", "Integrations"},
		Sentiment:          domain.Sentiment{Overall: domain.SentimentPositive, Confidence: 7},
		ActionableInsights: []string{"Invest in enterprise sales"},
		Citations: []string{
			"[1] Slack Official Website - https://slack.com",
			"https://www.g2.com/products/slack",
		},
	}

	md := RenderMarkdown(result, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "Slack dominates team chat.")
	assert.Contains(t, md, "- Channels")
	assert.Contains(t, md, "**Overall Sentiment:** positive")
	assert.Contains(t, md, "**Confidence Level:** 7/10")
	assert.Contains(t, md, "1. Invest in enterprise sales")
	assert.Contains(t, md, "## Analysis Metadata")
	assert.Contains(t, md, "## Sources and References")
	assert.Contains(t, md, "[1] Slack Official Website - https://slack.com")
	assert.Less(t, strings.Index(md, "## Sources and References"), strings.Index(md, "## Analysis Metadata"),
		"sources section precedes the metadata footer")
	assert.NotContains(t, md, "\n\n\n")
}

func TestRenderMarkdownOmitsSourcesWithoutCitations(t *testing.T) {
	result := &domain.Result{
		Summary:   "Bare summary long enough to render.",
		Sentiment: domain.DefaultSentiment(),
		Citations: []string{},
	}
	md := RenderMarkdown(result, time.Now())
	assert.NotContains(t, md, "## Sources and References")
}

func TestRenderMarkdownPrefersExistingMarkdown(t *testing.T) {
	result := &domain.Result{
		Markdown:  "# Custom Report\n\nBody text.",
		Sentiment: domain.DefaultSentiment(),
	}
	md := RenderMarkdown(result, time.Now())
	assert.True(t, strings.HasPrefix(md, "# Custom Report"))
	assert.Contains(t, md, "## Analysis Metadata")
}

func TestRenderHTML(t *testing.T) {
	md := "# Title\n## Section\nBody with **bold** and *emphasis*."
	html := RenderHTML(md)

	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<h2>Section</h2>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<em>emphasis</em>")
	assert.Contains(t, html, "<br>")
	assert.NotContains(t, html, "\n")
}
