// Package aixplain is the HTTP adapter for the external aiXplain agent
// platform. The platform is treated as opaque: agents and the team agent
// are provisioned from specs, a prompt is submitted, and unstructured text
// comes back. All analysis intelligence lives on the platform.
package aixplain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/marketscout/marketscout/internal/agents"
	"github.com/marketscout/marketscout/internal/core/domain"
)

type Options struct {
	BaseURL       string
	DefaultAPIKey string
	LLMID         string
	SearchModelID string
	MaxIterations int
	MaxRetries    int
	EnableCache   bool
	// RequestTimeout bounds a single HTTP exchange. Zero means no client
	// timeout; the overall run is then bounded only by the platform and by
	// ctx cancellation.
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

type Client struct {
	logger        *slog.Logger
	client        *http.Client
	baseURL       string
	defaultKey    string
	llmID         string
	searchModelID string
	maxIterations int
	maxRetries    int
	enableCache   bool
	pollInterval  time.Duration
}

var _ domain.AgentPlatform = (*Client)(nil)

func NewClient(logger *slog.Logger, opts Options) *Client {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Client{
		logger:        logger,
		client:        &http.Client{Timeout: opts.RequestTimeout},
		baseURL:       opts.BaseURL,
		defaultKey:    opts.DefaultAPIKey,
		llmID:         opts.LLMID,
		searchModelID: opts.SearchModelID,
		maxIterations: opts.MaxIterations,
		maxRetries:    opts.MaxRetries,
		enableCache:   opts.EnableCache,
		pollInterval:  pollInterval,
	}
}

// RunAnalysis provisions the five-agent team and runs the analysis prompt,
// returning the platform's raw text output. The request's API key takes
// precedence over the configured default.
func (c *Client) RunAnalysis(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	key := req.APIKey
	if key == "" {
		key = c.defaultKey
	}
	if key == "" {
		return "", fmt.Errorf("platform api key is required")
	}

	if req.OnProgress != nil {
		req.OnProgress(domain.StageCreatingAgents)
	}
	team := agents.Team(time.Now())
	teamID, err := c.provisionTeam(ctx, key, team)
	if err != nil {
		return "", fmt.Errorf("failed to provision team agent: %w", err)
	}
	c.logger.Info("team agent provisioned", "team_id", teamID, "agents", len(team.Agents))

	if req.OnProgress != nil {
		req.OnProgress(domain.StageRunningAnalysis)
	}
	prompt := agents.AnalysisPrompt(req.Target, req.Mode)
	return c.run(ctx, key, teamID, prompt)
}

// provisionTeam creates and deploys the individual agents, then assembles
// the team agent from their ids.
func (c *Client) provisionTeam(ctx context.Context, key string, team domain.TeamSpec) (string, error) {
	agentIDs := make([]string, 0, len(team.Agents))
	for _, spec := range team.Agents {
		id, err := c.createAgent(ctx, key, spec)
		if err != nil {
			return "", fmt.Errorf("failed to create agent %q: %w", spec.Name, err)
		}
		if err := c.deployAgent(ctx, key, id); err != nil {
			// Deployment hiccups are tolerated, matching the platform SDK's
			// own behavior: the team run will surface a real failure.
			c.logger.Warn("agent deployment warning", "agent", spec.Name, "error", err)
		}
		agentIDs = append(agentIDs, id)
	}

	payload := map[string]any{
		"name":         team.Name,
		"description":  team.Description,
		"agents":       agentIDs,
		"useMentalist": team.UseMentalist,
		"inspectors":   []string{},
		"llmId":        c.llmID,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, key, "/sdk/team-agents", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("platform returned no team agent id")
	}
	return resp.ID, nil
}

func (c *Client) createAgent(ctx context.Context, key string, spec domain.AgentSpec) (string, error) {
	payload := map[string]any{
		"name":         spec.Name,
		"description":  spec.Description,
		"instructions": spec.Instructions,
		"llmId":        c.llmID,
	}
	if spec.UseSearch {
		payload["tools"] = []map[string]string{{"model": c.searchModelID}}
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, key, "/sdk/agents", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("platform returned no agent id")
	}
	return resp.ID, nil
}

func (c *Client) deployAgent(ctx context.Context, key, agentID string) error {
	return c.postJSON(ctx, key, "/sdk/agents/"+agentID+"/deploy", map[string]any{}, nil)
}

// run submits the prompt and polls until the platform reports completion.
// The platform imposes its own execution deadline; this layer only honors
// ctx cancellation between polls.
func (c *Client) run(ctx context.Context, key, teamID, prompt string) (string, error) {
	payload := map[string]any{
		"query": prompt,
		"parameters": map[string]any{
			"maxIterations": c.maxIterations,
			"maxRetries":    c.maxRetries,
			"cache":         c.enableCache,
		},
	}
	var submitResp struct {
		RequestID string `json:"requestId"`
	}
	if err := c.postJSON(ctx, key, "/sdk/team-agents/"+teamID+"/run", payload, &submitResp); err != nil {
		return "", err
	}
	if submitResp.RequestID == "" {
		return "", fmt.Errorf("platform returned no request id")
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var pollResp struct {
			Completed bool `json:"completed"`
			Data      struct {
				Output string `json:"output"`
				Status string `json:"status"`
			} `json:"data"`
			Error string `json:"error"`
		}
		path := "/sdk/team-agents/" + teamID + "/result/" + submitResp.RequestID
		if err := c.getJSON(ctx, key, path, &pollResp); err != nil {
			return "", err
		}
		if !pollResp.Completed {
			continue
		}
		if pollResp.Error != "" {
			return "", fmt.Errorf("platform run failed: %s", pollResp.Error)
		}
		return pollResp.Data.Output, nil
	}
}

func (c *Client) postJSON(ctx context.Context, key, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, key, out)
}

func (c *Client) getJSON(ctx context.Context, key, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, key, out)
}

func (c *Client) do(req *http.Request, key string, out any) error {
	req.Header.Set("x-api-key", key)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("platform returned status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode platform response: %w", err)
	}
	return nil
}
