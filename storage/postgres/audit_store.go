package postgres

import (
	"context"

	"fleet-svc/app/domains"
)

// InsertAudit appends one audit record
func (s *Store) InsertAudit(ctx context.Context, entry domains.AuditEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor, action, target_type, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.Actor, entry.Action, entry.TargetType, entry.TargetID, entry.Details)
	return err
}
