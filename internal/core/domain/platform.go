package domain

import "context"

// AgentSpec describes one prompt-templated agent on the external platform.
type AgentSpec struct {
	Name         string
	Description  string
	Instructions string
	UseSearch    bool
}

// TeamSpec describes the team agent assembled from individual agents.
// Orchestration (task dependency resolution, mentalist coordination) is
// entirely the platform's concern.
type TeamSpec struct {
	Name         string
	Description  string
	Agents       []AgentSpec
	UseMentalist bool
}

// AnalysisRequest is one invocation of the platform's team agent.
// OnProgress, when set, is called as the platform moves through its
// provisioning and execution phases.
type AnalysisRequest struct {
	Target     string
	Mode       Mode
	APIKey     string
	OnProgress func(stage string)
}

// AgentPlatform is the external, opaque multi-agent LLM execution service.
// Implementations submit a prompt and return unstructured text.
type AgentPlatform interface {
	RunAnalysis(ctx context.Context, req AnalysisRequest) (string, error)
}
