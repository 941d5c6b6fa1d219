package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePassesThroughUnwrapped(t *testing.T) {
	content := "# Market Research Analysis\n\nPlain content with no wrapper."
	assert.Equal(t, content, Normalize(content))
}

func TestNormalizeStripsWrapperAndMetadata(t *testing.T) {
	raw := `AgentResponse(status=SUCCESS, output=# Executive Summary:
Slack is a leading team communication platform.

## Key Features
- Channels
- Integrations, session_id=abc-123, intermediate_steps=[...])`

	clean := Normalize(raw)
	assert.True(t, len(clean) > 0)
	assert.Contains(t, clean, "# Executive Summary:")
	assert.Contains(t, clean, "- Integrations")
	assert.NotContains(t, clean, "session_id")
	assert.NotContains(t, clean, "AgentResponse")
}

func TestNormalizeFallsBackToBareWrapper(t *testing.T) {
	raw := "output=Just a plain sentence with no heading."
	assert.Equal(t, "Just a plain sentence with no heading.", Normalize(raw))
}

func TestNormalizeStripsTrailingBoilerplate(t *testing.T) {
	raw := `output=# Market Research Analysis

Useful findings here.

This report synthesizes data from multiple specialized agents.`

	clean := Normalize(raw)
	assert.Contains(t, clean, "Useful findings here.")
	assert.NotContains(t, clean, "This report synthesizes")
}

func TestNormalizeIsStableOnItsOwnOutput(t *testing.T) {
	raw := `output=# Executive Summary:
Findings., session_id=xyz`

	once := Normalize(raw)
	assert.Equal(t, once, Normalize(once))
}
