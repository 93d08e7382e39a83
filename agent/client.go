package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
)

// Client talks to the fleet server's agent endpoint. It authenticates with
// the shared bootstrap token until registration hands back a per-agent
// token, then switches to that.
type Client struct {
	baseURL     string
	sharedToken string
	agentToken  string
	httpClient  *http.Client
}

// NewClient creates a fleet server client
func NewClient(baseURL, sharedToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		sharedToken: sharedToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HTTPError carries the server status code for callers that branch on it
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Register registers this agent and stores the returned per-agent token.
// It returns any commands already queued for the agent.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) ([]domains.AgentCommand, error) {
	var data dto.RegisterData
	if err := c.do(ctx, "register", req, &data); err != nil {
		return nil, err
	}
	if data.Token != "" {
		c.agentToken = data.Token
	}
	return data.PendingCommands, nil
}

// Heartbeat reports liveness and returns pending commands
func (c *Client) Heartbeat(ctx context.Context, agentID, status string) ([]domains.AgentCommand, error) {
	var data dto.HeartbeatData
	req := dto.HeartbeatRequest{AgentID: agentID, Status: status}
	if err := c.do(ctx, "heartbeat", req, &data); err != nil {
		return nil, err
	}
	return data.Commands, nil
}

// Report submits one telemetry batch
func (c *Client) Report(ctx context.Context, agentID, dataType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal report data: %w", err)
	}
	req := dto.ReportRequest{AgentID: agentID, DataType: dataType, Data: payload}
	return c.do(ctx, "report", req, nil)
}

// CommandResult reports the outcome of one executed command
func (c *Client) CommandResult(ctx context.Context, commandID int64, status string, result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal command result: %w", err)
	}
	req := dto.CommandResultRequest{CommandID: commandID, Status: status, Result: payload}
	return c.do(ctx, "command_result", req, nil)
}

// do posts one action to the agent endpoint and decodes the envelope
func (c *Client) do(ctx context.Context, action string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/agent?action=%s", c.baseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.agentToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.agentToken)
	} else {
		req.Header.Set("X-Agent-Token", c.sharedToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *string         `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		msg := "request rejected"
		if envelope.Error != nil {
			msg = *envelope.Error
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
