package services

import (
	"context"
	"log"
	"time"

	"fleet-svc/app/clients"
)

// DefaultOfflineThreshold is how long an agent may stay silent before the
// sweep reclassifies it offline.
const DefaultOfflineThreshold = 5 * time.Minute

// LivenessService reclassifies silent agents as offline
type LivenessService struct {
	storage   clients.StorageAdapter
	threshold time.Duration
}

// NewLivenessService creates a new liveness service
func NewLivenessService(storage clients.StorageAdapter, threshold time.Duration) *LivenessService {
	if threshold <= 0 {
		threshold = DefaultOfflineThreshold
	}
	return &LivenessService{storage: storage, threshold: threshold}
}

// Sweep transitions online agents whose last heartbeat is older than the
// threshold to offline. Idempotent; callers run it before any
// status-sensitive read so stale "online" labels are never served.
func (s *LivenessService) Sweep(ctx context.Context) (int64, error) {
	return s.storage.MarkOfflineAgents(ctx, s.threshold)
}

// Run sweeps on a fixed interval until the context is cancelled, keeping
// statuses accurate even with no request traffic.
func (s *LivenessService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := s.Sweep(sweepCtx); err != nil {
				log.Printf("liveness sweep failed: %v", err)
			}
			cancel()
		}
	}
}
