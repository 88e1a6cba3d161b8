package service

import (
	"context"
	"fmt"
	"time"

	"storetrack/internal/repository"
)

type AuditEntryResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username,omitempty"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id,omitempty"`
	EntityName string    `json:"entity_name,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditListResult struct {
	Entries []AuditEntryResponse `json:"entries"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
}

// AuditService exposes the audit trail, newest first.
type AuditService interface {
	ListEntries(ctx context.Context, page, limit int) (*AuditListResult, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) ListEntries(ctx context.Context, page, limit int) (*AuditListResult, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	entries := make([]AuditEntryResponse, 0, len(logs))
	for _, entry := range logs {
		res := AuditEntryResponse{
			ID:         entry.ID,
			Action:     entry.Action,
			EntityID:   entry.EntityID,
			EntityName: entry.EntityName,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.User != nil {
			res.Username = entry.User.Username
		}
		entries = append(entries, res)
	}
	return &AuditListResult{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}
