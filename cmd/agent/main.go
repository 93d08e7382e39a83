package main

import (
	"flag"
	"log"

	"fleet-svc/agent"
)

func main() {
	configPath := flag.String("config", "agent.yaml", "path to agent config file")
	flag.Parse()

	if err := agent.Bootstrap(*configPath); err != nil {
		log.Fatalf("failed to start agent: %v", err)
	}
}
