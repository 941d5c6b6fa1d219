package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCitationsSingleURL(t *testing.T) {
	content := "See https://g2.com/products/slack for reviews."
	citations := ExtractCitations(content, "Slack")
	require.Len(t, citations, 1)
	assert.Equal(t, "https://g2.com/products/slack", citations[0])
}

func TestExtractCitationsDeduplicatesByURL(t *testing.T) {
	content := `Visit https://slack.com today.
More at https://slack.com again.

## Sources and References
[1] Slack Official Website - https://slack.com
`
	citations := ExtractCitations(content, "Slack")
	require.Len(t, citations, 1)
	assert.Equal(t, "https://slack.com", citations[0])
}

func TestExtractCitationsSourcesSectionWithoutURLs(t *testing.T) {
	content := `## Sources and References
[1] Reviews collected from G2.com listings
[2] Internal notes
`
	citations := ExtractCitations(content, "")
	require.Len(t, citations, 2)
	assert.Equal(t, "[1] Reviews collected from G2.com listings", citations[0])
}

func TestExtractCitationsIdempotent(t *testing.T) {
	content := sampleAnalysis
	first := ExtractCitations(content, "Slack")
	second := ExtractCitations(content, "Slack")
	assert.Equal(t, first, second)
}

func TestFallbackCitations(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"slack", "Slack", "https://slack.com"},
		{"teams", "Microsoft Teams", "microsoft.com/teams"},
		{"comparison", "Asana vs Monday", "https://www.g2.com"},
		{"generic", "Notion", "Company Official Website"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			citations := ExtractCitations("no links here", tt.target)
			require.Len(t, citations, 3)
			assert.Contains(t, citations[0], tt.want)
		})
	}
}

func TestDescribeCitation(t *testing.T) {
	url, title := DescribeCitation("https://slack.com/features")
	assert.Equal(t, "https://slack.com/features", url)
	assert.Equal(t, "https://slack.com/features", title)

	url, title = DescribeCitation("[1] Slack Official Website - https://slack.com")
	assert.Equal(t, "https://slack.com", url)
	assert.Equal(t, "Slack Official Website", title)

	url, title = DescribeCitation("[3] Industry Review Platforms (G2, Capterra)")
	assert.Empty(t, url)
	assert.Empty(t, title)
}
