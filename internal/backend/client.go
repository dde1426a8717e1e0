// Package backend is the HTTP client for the Clawe dashboard API, used by
// the CLI to register agents and read squad state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clawe/internal/agents"
	"clawe/internal/models"
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

// AgentView mirrors the dashboard response shape for a single agent.
type AgentView struct {
	models.Agent
	DerivedStatus agents.Status `json:"derivedStatus"`
}

type UpsertAgentRequest struct {
	AgentID      string `json:"agentId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Emoji        string `json:"emoji,omitempty"`
	AgentType    string `json:"agentType,omitempty"`
	CronSchedule string `json:"cronSchedule,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (c *Client) UpsertAgent(ctx context.Context, req UpsertAgentRequest) (*models.Agent, error) {
	var agent models.Agent
	if err := c.do(ctx, http.MethodPost, "/api/agents", req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) ListAgents(ctx context.Context) ([]*AgentView, error) {
	var resp struct {
		Agents []*AgentView `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *Client) RecordHeartbeat(ctx context.Context, agentID string, lastHeartbeat int64) error {
	body := map[string]int64{"lastHeartbeat": lastHeartbeat}
	return c.do(ctx, http.MethodPost, "/api/agents/"+agentID+"/heartbeat", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to backend at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
