// Package gateway is a small client for the OpenClaw gateway's tool-invoke
// endpoint. The gateway runs next to the agents; this codebase only ever
// reads and patches its JSON config and manages its cron jobs.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type InvokeError struct {
	Message string `json:"message"`
}

type InvokeResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *InvokeError    `json:"error,omitempty"`
}

// ErrorMessage returns the gateway's error message, or a placeholder when
// the gateway declined without one.
func (r *InvokeResponse) ErrorMessage() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	return "unknown error"
}

// Invoke calls POST /tools/invoke with {tool, args}.
func (c *Client) Invoke(ctx context.Context, tool string, args map[string]any) (*InvokeResponse, error) {
	body, err := json.Marshal(map[string]any{"tool": tool, "args": args})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to gateway at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var invokeResp InvokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&invokeResp); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &invokeResp, nil
}

// unwrapDetails handles both result shapes the gateway produces:
// {details: {...}} and the bare object.
func unwrapDetails(raw json.RawMessage) json.RawMessage {
	var wrapper struct {
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Details) > 0 {
		return wrapper.Details
	}
	return raw
}

type Identity struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
}

// AgentEntry is one element of the gateway config's agents.list.
type AgentEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Workspace string    `json:"workspace,omitempty"`
	Model     string    `json:"model,omitempty"`
	Identity  *Identity `json:"identity,omitempty"`
}

type AgentsSection struct {
	List []AgentEntry `json:"list"`
}

type AgentToAgent struct {
	Enabled bool     `json:"enabled"`
	Allow   []string `json:"allow"`
}

type ToolsSection struct {
	AgentToAgent AgentToAgent `json:"agentToAgent"`
}

type Config struct {
	Agents AgentsSection `json:"agents"`
	Tools  ToolsSection  `json:"tools"`
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	resp, err := c.Invoke(ctx, "gateway", map[string]any{"action": "config.get"})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("config.get: %s", resp.ErrorMessage())
	}

	var cfg Config
	if err := json.Unmarshal(unwrapDetails(resp.Result), &cfg); err != nil {
		return nil, fmt.Errorf("decode gateway config: %w", err)
	}
	return &cfg, nil
}

// PatchConfig sends a partial config as the raw JSON the gateway expects.
func (c *Client) PatchConfig(ctx context.Context, patch any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	resp, err := c.Invoke(ctx, "gateway", map[string]any{
		"action": "config.patch",
		"raw":    string(raw),
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("config.patch: %s", resp.ErrorMessage())
	}
	return nil
}

type CronSchedule struct {
	Kind string `json:"kind"`
	Expr string `json:"expr"`
}

type CronPayload struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

type CronJob struct {
	Name          string       `json:"name"`
	AgentID       string       `json:"agentId"`
	Enabled       bool         `json:"enabled"`
	Schedule      CronSchedule `json:"schedule"`
	SessionTarget string       `json:"sessionTarget,omitempty"`
	Payload       CronPayload  `json:"payload"`
}

func (c *Client) ListCronJobs(ctx context.Context) ([]CronJob, error) {
	resp, err := c.Invoke(ctx, "cron", map[string]any{"action": "list"})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("cron list: %s", resp.ErrorMessage())
	}

	var result struct {
		Jobs []CronJob `json:"jobs"`
	}
	if err := json.Unmarshal(unwrapDetails(resp.Result), &result); err != nil {
		return nil, fmt.Errorf("decode cron jobs: %w", err)
	}
	return result.Jobs, nil
}

func (c *Client) AddCronJob(ctx context.Context, job CronJob) error {
	resp, err := c.Invoke(ctx, "cron", map[string]any{
		"action": "add",
		"job":    job,
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("cron add: %s", resp.ErrorMessage())
	}
	return nil
}

// HeartbeatMessage is the turn prompt delivered on every heartbeat tick.
const HeartbeatMessage = "Read HEARTBEAT.md and follow it strictly. Check for notifications with 'clawe check'. If nothing needs attention, reply HEARTBEAT_OK."

// NewHeartbeatJob builds the per-agent heartbeat cron job. The name is
// derived from the agent id so existence checks can key on it.
func NewHeartbeatJob(agentID, schedule, model string) CronJob {
	return CronJob{
		Name:          agentID + "-heartbeat",
		AgentID:       agentID,
		Enabled:       true,
		Schedule:      CronSchedule{Kind: "cron", Expr: schedule},
		SessionTarget: "isolated",
		Payload: CronPayload{
			Kind:           "agentTurn",
			Message:        HeartbeatMessage,
			Model:          model,
			TimeoutSeconds: 600,
		},
	}
}

// WorkspacePath returns the agent's workspace directory: the lead shares
// the main workspace, workers get their own.
func WorkspacePath(dataDir, agentType, agentID string) string {
	if agentType == "lead" {
		return dataDir + "/workspace"
	}
	return dataDir + "/workspace-" + agentID
}

// EnsureAgent merges the entry into agents.list and the agent-to-agent
// allow list, patching only when the id is not already present. Returns
// whether a patch was made.
func (c *Client) EnsureAgent(ctx context.Context, entry AgentEntry) (bool, error) {
	cfg, err := c.GetConfig(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range cfg.Agents.List {
		if existing.ID == entry.ID {
			return false, nil
		}
	}

	updatedList := append(cfg.Agents.List, entry)

	updatedAllow := cfg.Tools.AgentToAgent.Allow
	present := false
	for _, id := range updatedAllow {
		if id == entry.ID {
			present = true
			break
		}
	}
	if !present {
		updatedAllow = append(updatedAllow, entry.ID)
	}

	patch := map[string]any{
		"agents": map[string]any{"list": updatedList},
		"tools": map[string]any{
			"agentToAgent": map[string]any{"enabled": true, "allow": updatedAllow},
		},
	}
	if err := c.PatchConfig(ctx, patch); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureCronJob adds the job unless one with the same name already exists.
// Returns whether the job was added.
func (c *Client) EnsureCronJob(ctx context.Context, job CronJob) (bool, error) {
	jobs, err := c.ListCronJobs(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range jobs {
		if existing.Name == job.Name {
			return false, nil
		}
	}
	if err := c.AddCronJob(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}
