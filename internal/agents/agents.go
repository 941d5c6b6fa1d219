// Package agents defines the five specialized research agents, their team
// assembly, and the analysis prompts sent to the agent platform. These are
// string templates only; all orchestration happens on the platform side.
package agents

import (
	"fmt"
	"time"

	"github.com/marketscout/marketscout/internal/core/domain"
)

const webResearchInstructions = `You are a web research specialist. Your tasks:
1. Search for comprehensive information about the given competitor product
2. Gather company details, product features, pricing, and market position
3. Find official product pages, documentation, and specifications
4. Structure findings clearly with sections: Company Info, Product Features, Pricing, Market Position
5. IMPORTANT: Include full URLs for all sources you reference in your research
6. Format citations as [1] Source Title - https://example.com/url at the end of your response
7. Focus on factual, verifiable information with proper attribution`

const sentimentInstructions = `You are a sentiment analysis expert. Your tasks:
1. Search for customer reviews, testimonials, and feedback about the product
2. Analyze sentiment patterns and calculate confidence scores (1-10 scale)
3. Identify key themes in customer feedback (positive, negative, neutral)
4. Look for reviews on platforms like G2, Capterra, Reddit, forums
5. IMPORTANT: Cite specific review sources with full URLs
6. Format citations as [1] Platform Name - Review Title - https://review-url.com
7. Provide sentiment summary with supporting evidence and confidence metrics`

const featureInstructions = `You are a product feature analyst. Your tasks:
1. Review all gathered research and extract specific product features
2. Categorize features into: Core Features, Advanced Features, Integrations, Unique Capabilities
3. Create a structured feature matrix suitable for competitive analysis
4. Include feature descriptions and any technical specifications found
5. IMPORTANT: Reference sources for feature information with full URLs
6. Format citations as [1] Feature Documentation - https://docs-url.com
7. Note any missing or unclear feature information for follow-up`

const intelligenceInstructions = `You are a competitive intelligence analyst. Your tasks:
1. Analyze the extracted features against market standards and competitors
2. Identify key strengths, weaknesses, and differentiators
3. Assess pricing strategy and value proposition
4. Identify market gaps and opportunities
5. IMPORTANT: Include sources for competitive comparisons and market data
6. Format citations as [1] Market Report - Company Name - https://report-url.com
7. Provide strategic insights about competitive positioning and potential threats/opportunities`

const reportInstructions = `You are an executive report writer. Your tasks:
1. Synthesize all analysis into a comprehensive executive summary
2. Provide 3-5 key strategic insights with supporting evidence
3. Include actionable recommendations with priority levels (High/Medium/Low)
4. Structure the report professionally with clear sections
5. CRITICAL: Always include a Sources and References section at the end
6. Format citations as:
   ## Sources and References
   [1] Official Website - https://slack.com
   [2] Microsoft Teams Documentation - https://docs.microsoft.com/teams
   [3] Market Analysis Report - https://example.com/report
7. If specific URLs are not available, include likely sources like:
   - Company official websites
   - Product documentation pages
   - Industry analysis sites (G2, Capterra, Gartner)
   - News articles and press releases
8. Focus on business implications and strategic recommendations for decision-makers`

// Team assembles the five-agent team spec. Agent names carry a timestamp
// suffix so repeated provisioning on the platform does not collide.
func Team(now time.Time) domain.TeamSpec {
	suffix := now.Format("0102150405")
	return domain.TeamSpec{
		Name:         "Market Research Team " + suffix,
		Description:  "Multi-agent team for comprehensive competitor analysis and market research",
		UseMentalist: true,
		Agents: []domain.AgentSpec{
			{
				Name:         "Web Research Agent " + suffix,
				Description:  "Researches competitor products from web sources and gathers company information",
				Instructions: webResearchInstructions,
				UseSearch:    true,
			},
			{
				Name:         "Sentiment Agent " + suffix,
				Description:  "Analyzes customer sentiment and feedback from various sources",
				Instructions: sentimentInstructions,
				UseSearch:    true,
			},
			{
				Name:         "Feature Agent " + suffix,
				Description:  "Extracts and categorizes product features for competitive analysis",
				Instructions: featureInstructions,
			},
			{
				Name:         "Intelligence Agent " + suffix,
				Description:  "Analyzes competitive positioning and identifies market gaps",
				Instructions: intelligenceInstructions,
			},
			{
				Name:         "Report Agent " + suffix,
				Description:  "Creates executive summaries with actionable insights",
				Instructions: reportInstructions,
			},
		},
	}
}

// AnalysisPrompt builds the team-agent prompt for a target and mode. Both
// variants demand a Sources and References section so the citation
// extractor has something to work with.
func AnalysisPrompt(target string, mode domain.Mode) string {
	if mode == domain.ModeDetailed {
		return fmt.Sprintf(`Perform a comprehensive market research analysis for %q.
Include: detailed company analysis, feature breakdown, sentiment analysis,
competitive positioning, market opportunities, and strategic recommendations.

IMPORTANT: Always include a "Sources and References" section at the end with relevant URLs:
## Sources and References
[1] Official websites and documentation
[2] Review platforms and customer feedback sites
[3] Industry reports and competitive analysis
[4] News articles and press releases

Include actual URLs when possible, or standard industry sources when specific URLs are not available.`, target)
	}
	return fmt.Sprintf(`Perform a quick market research analysis for %q.
Focus on: company overview, key features, basic sentiment, and 2-3 strategic insights.
Keep analysis concise but actionable.

IMPORTANT: Always include a "Sources and References" section at the end with relevant URLs:
## Sources and References
[1] Official websites and documentation
[2] Review platforms (G2, Capterra)
[3] Industry reports and news articles

Include actual URLs when possible, or standard industry sources when specific URLs are not available.`, target)
}

// EstimatedCompletion is the human-readable ETA returned on submission.
func EstimatedCompletion(mode domain.Mode) string {
	if mode == domain.ModeDetailed {
		return "10-15 minutes"
	}
	return "5-8 minutes"
}
