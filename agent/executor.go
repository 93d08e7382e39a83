package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
	"fleet-svc/app/utils"
)

// Executor runs delivered commands. The server redelivers pending commands
// on every heartbeat until a result lands, so the executor remembers which
// ids it already handled this session to keep execution effectively-once.
type Executor struct {
	client  *Client
	agentID string
	handled map[int64]bool
}

// NewExecutor creates a command executor
func NewExecutor(client *Client, agentID string) *Executor {
	return &Executor{
		client:  client,
		agentID: agentID,
		handled: make(map[int64]bool),
	}
}

// Run executes each command and reports its result. Already-handled ids
// are skipped without re-reporting.
func (e *Executor) Run(ctx context.Context, commands []domains.AgentCommand) {
	for _, cmd := range commands {
		if e.handled[cmd.ID] {
			continue
		}

		result, err := e.execute(ctx, cmd)
		status := domains.CommandStatusCompleted
		if err != nil {
			status = domains.CommandStatusFailed
			result = map[string]string{"error": err.Error()}
		}

		if err := e.client.CommandResult(ctx, cmd.ID, status, result); err != nil {
			// Leave it unhandled; the server will redeliver
			continue
		}
		e.handled[cmd.ID] = true
	}
}

func (e *Executor) execute(ctx context.Context, cmd domains.AgentCommand) (interface{}, error) {
	switch cmd.CommandType {
	case dto.CommandPing:
		return map[string]string{"pong": time.Now().UTC().Format(time.RFC3339)}, nil
	case dto.CommandCollectSystemInfo:
		info := CollectSystemInfo()
		// Also push a telemetry row so the server keeps a history
		if err := e.client.Report(ctx, e.agentID, "system_info", info); err != nil {
			return nil, fmt.Errorf("failed to report system info: %w", err)
		}
		return info, nil
	case dto.CommandUpdateConfig:
		var cfg map[string]interface{}
		if len(cmd.CommandData) > 0 {
			if err := json.Unmarshal(cmd.CommandData, &cfg); err != nil {
				return nil, fmt.Errorf("invalid config payload: %w", err)
			}
		}
		return map[string]interface{}{"applied": cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported command type: %s", cmd.CommandType)
	}
}

// CollectSystemInfo gathers a small host snapshot
func CollectSystemInfo() map[string]interface{} {
	return map[string]interface{}{
		"hostname":     utils.Hostname(),
		"ip_address":   utils.HostIPAddress(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"num_cpu":      runtime.NumCPU(),
		"go_version":   runtime.Version(),
		"collected_at": time.Now().UTC().Format(time.RFC3339),
	}
}
