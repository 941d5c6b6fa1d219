package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTarget(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"simple", "Slack", "slack"},
		{"spaces", "Slack vs Teams", "slack_vs_teams"},
		{"forbidden chars", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"collapses runs", "a  / ?  b", "a_b"},
		{"trims edges", " .Slack. ", "slack"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTarget(tt.target))
		})
	}
}

func TestSanitizeTargetCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	assert.Len(t, SanitizeTarget(long), 200)
}

func TestNewJobID(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	id := NewJobID("Slack", now)
	assert.True(t, strings.HasPrefix(string(id), "slack_20250314_092653_"))

	parts := strings.Split(string(id), "_")
	require.GreaterOrEqual(t, len(parts), 4)
	assert.Len(t, parts[len(parts)-1], 8) // md5 prefix, hex encoded

	// Same inputs in the same process give the same id.
	assert.Equal(t, id, NewJobID("Slack", now))
}

func TestNewJobIDEmptyTarget(t *testing.T) {
	id := NewJobID("???", time.Now())
	assert.NotEmpty(t, id)
	assert.False(t, strings.HasPrefix(string(id), "_"))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeQuick, mode)

	mode, err = ParseMode("detailed")
	require.NoError(t, err)
	assert.Equal(t, ModeDetailed, mode)

	_, err = ParseMode("thorough")
	assert.Error(t, err)
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusStarting.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
