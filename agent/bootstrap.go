package agent

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
	"fleet-svc/app/utils"
)

// Bootstrap starts the fleet agent: register with backoff, report a host
// snapshot, then heartbeat and execute delivered commands until signalled.
func Bootstrap(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	client := NewClient(cfg.ServerURL, cfg.AgentToken)
	executor := NewExecutor(client, cfg.AgentID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending, err := register(ctx, client, cfg)
	if err != nil {
		return err
	}
	executor.Run(ctx, pending)

	if err := client.Report(ctx, cfg.AgentID, "system_info", CollectSystemInfo()); err != nil {
		log.Printf("initial system info report failed: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.HeartbeatIntervalSec) * time.Second)
	defer ticker.Stop()

	log.Printf("fleet agent started (agent_id: %s)", cfg.AgentID)
	for {
		select {
		case <-sigChan:
			log.Println("shutting down...")
			return nil
		case <-ticker.C:
			commands, err := client.Heartbeat(ctx, cfg.AgentID, "")
			if err != nil {
				if httpErr, ok := err.(*HTTPError); ok && httpErr.StatusCode == 404 {
					log.Printf("heartbeat rejected: agent not registered, re-registering...")
					if pending, err := register(ctx, client, cfg); err != nil {
						log.Printf("re-registration failed: %v", err)
					} else {
						executor.Run(ctx, pending)
					}
					continue
				}
				log.Printf("heartbeat failed: %v", err)
				continue
			}
			executor.Run(ctx, commands)
		}
	}
}

// register registers with exponential backoff
func register(ctx context.Context, client *Client, cfg *Config) ([]domains.AgentCommand, error) {
	req := dto.RegisterRequest{
		AgentID:   cfg.AgentID,
		Hostname:  cfg.Hostname,
		IPAddress: utils.HostIPAddress(),
		OSInfo:    utils.OSInfo(),
		Version:   cfg.Version,
		Tags:      cfg.Tags,
	}

	policy := utils.DefaultRetryPolicy()
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		pending, err := client.Register(ctx, req)
		if err == nil {
			return pending, nil
		}
		lastErr = err
		delay := policy.CalculateDelay(attempt)
		log.Printf("registration attempt %d failed: %v, retrying in %s...", attempt+1, err, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
