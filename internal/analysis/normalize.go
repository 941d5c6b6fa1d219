// Package analysis turns raw agent-platform output into a structured result.
// Everything here is a pure function over text: the platform returns one
// unstructured blob, and a cascade of independent heuristics scrapes it into
// approximate fields with fixed fallbacks. No extraction failure is fatal.
package analysis

import (
	"regexp"
	"strings"
)

const wrapperPrefix = "output="

// startMarkers are checked in priority order; the first hit wins.
var startMarkers = []string{
	"output=# Executive Summary:",
	"output=# Market Research Analysis",
	"output=## Executive Summary",
	"output=## Key Strategic Insights",
	"output=#",
}

// endMarkers separate the analysis body from trailing run metadata.
var endMarkers = []string{
	", session_id=",
	", intermediate_steps=",
	"\n\n---\n",
}

var trailingBoilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?s)This report synthesizes.*$`),
	regexp.MustCompile(`(?s)\*Analysis completed.*$`),
}

// Normalize strips the platform's response wrapper and trailing metadata,
// returning the substantive analysis content. If no wrapper marker is
// present the input is returned unchanged. Never fails.
func Normalize(raw string) string {
	if !strings.Contains(raw, wrapperPrefix) {
		return raw
	}

	start := -1
	for _, m := range startMarkers {
		if idx := strings.Index(raw, m); idx != -1 {
			start = idx + len(wrapperPrefix)
			break
		}
	}
	if start == -1 {
		start = strings.Index(raw, wrapperPrefix) + len(wrapperPrefix)
	}

	end := len(raw)
	for _, m := range endMarkers {
		if idx := strings.Index(raw[start:], m); idx != -1 {
			end = start + idx
			break
		}
	}

	clean := strings.TrimSpace(raw[start:end])
	for _, re := range trailingBoilerplate {
		clean = re.ReplaceAllString(clean, "")
	}
	return strings.TrimSpace(clean)
}
