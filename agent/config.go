package agent

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fleet-svc/app/utils"
)

// Config holds fleet agent configuration
type Config struct {
	ServerURL            string   `yaml:"server_url"`
	AgentToken           string   `yaml:"agent_token"`
	AgentID              string   `yaml:"agent_id"`
	Hostname             string   `yaml:"hostname"`
	Version              string   `yaml:"version"`
	HeartbeatIntervalSec int      `yaml:"heartbeat_interval_sec"`
	Tags                 []string `yaml:"tags"`
}

// LoadConfig reads the YAML config file when present, then applies
// environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("FLEET_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("AGENT_API_TOKEN"); v != "" {
		cfg.AgentToken = v
	}
	if v := os.Getenv("AGENT_ID"); v != "" {
		cfg.AgentID = v
	}
	if v := os.Getenv("HEARTBEAT_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HeartbeatIntervalSec = n
		}
	}

	if cfg.Hostname == "" {
		cfg.Hostname = utils.Hostname()
	}
	if cfg.AgentID == "" {
		cfg.AgentID = cfg.Hostname
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.HeartbeatIntervalSec <= 0 {
		cfg.HeartbeatIntervalSec = 30
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url must be set (config file or FLEET_SERVER_URL)")
	}
	if cfg.AgentToken == "" {
		return nil, fmt.Errorf("agent_token must be set (config file or AGENT_API_TOKEN)")
	}

	return cfg, nil
}
