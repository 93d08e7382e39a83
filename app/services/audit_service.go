package services

import (
	"context"
	"log"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
)

// AuditService records operator actions. Recording is fire-and-forget: a
// failed audit write is logged but never fails the action it documents.
type AuditService struct {
	sink clients.AuditSink
}

// NewAuditService creates a new audit service
func NewAuditService(sink clients.AuditSink) *AuditService {
	return &AuditService{sink: sink}
}

// Record writes one audit entry
func (s *AuditService) Record(ctx context.Context, actor, action, targetType string, targetID *string, details string) {
	entry := domains.AuditEntry{
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.sink.InsertAudit(ctx, entry); err != nil {
		log.Printf("audit record failed (action=%s actor=%s): %v", action, actor, err)
	}
}
