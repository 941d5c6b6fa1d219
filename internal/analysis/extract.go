package analysis

import (
	"regexp"
	"strings"

	"github.com/marketscout/marketscout/internal/core/domain"
)

var (
	summaryRe   = regexp.MustCompile(`(?is)(?:Executive Summary|Summary)[:\s]*\n(.+?)(?:\n\n|\n#)`)
	featuresRe  = regexp.MustCompile(`(?is)(?:Key Features|Features|Product Features)[:\s]*\n(.+?)(?:\n\n|\n#)`)
	sentimentRe = regexp.MustCompile(`(?is)(?:Sentiment|Customer Sentiment|Public Opinion)[:\s]*\n(.+?)(?:\n\n|\n#)`)
	insightsRe  = regexp.MustCompile(`(?is)(?:Actionable Insights|Recommendations|Strategic Recommendations)[:\s]*\n(.+?)(?:\n\n|\n#|$)`)

	bulletItemRe   = regexp.MustCompile(`[-*•]\s*(.+)`)
	numberedItemRe = regexp.MustCompile(`\d+\.\s*(.+)`)
)

var (
	positiveWords = []string{"positive", "good", "excellent", "strong"}
	negativeWords = []string{"negative", "poor", "weak", "bad"}
)

// Extract populates a structured result from normalized analysis text.
// Every field is always present: a section that cannot be found keeps its
// fallback default, and no single extraction failure aborts the rest.
func Extract(content, target string) domain.Result {
	res := domain.Result{
		Summary:            extractSummary(content),
		KeyFeatures:        extractItems(content, featuresRe),
		Sentiment:          extractSentiment(content),
		ActionableInsights: extractItems(content, insightsRe),
		Citations:          ExtractCitations(content, target),
		Markdown:           content,
		RawOutput:          content,
	}
	return res
}

// extractSummary prefers an Executive Summary section, falling back to the
// first paragraph longer than 50 characters.
func extractSummary(content string) string {
	if m := summaryRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); len(p) > 50 {
			return p
		}
	}
	return ""
}

// extractItems pulls bullet items from the section matched by sectionRe,
// trying numbered items when no bullets are present.
func extractItems(content string, sectionRe *regexp.Regexp) []string {
	m := sectionRe.FindStringSubmatch(content)
	if m == nil {
		return []string{}
	}
	matches := bulletItemRe.FindAllStringSubmatch(m[1], -1)
	if len(matches) == 0 {
		matches = numberedItemRe.FindAllStringSubmatch(m[1], -1)
	}
	items := make([]string, 0, len(matches))
	for _, im := range matches {
		if item := strings.TrimSpace(im[1]); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func extractSentiment(content string) domain.Sentiment {
	m := sentimentRe.FindStringSubmatch(content)
	if m == nil {
		return domain.DefaultSentiment()
	}
	text := strings.ToLower(m[1])
	if containsAny(text, positiveWords) {
		return domain.Sentiment{Overall: domain.SentimentPositive, Confidence: 7}
	}
	if containsAny(text, negativeWords) {
		return domain.Sentiment{Overall: domain.SentimentNegative, Confidence: 7}
	}
	return domain.Sentiment{Overall: domain.SentimentMixed, Confidence: 6}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
