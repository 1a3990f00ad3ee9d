package library

import (
	"context"

	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

const (
	defaultAuditPageSize = 25
	maxAuditPageSize     = 200
)

// AuditPage is one page of the audit trail.
type AuditPage struct {
	Events []entities.AuditEvent `json:"events"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// AuditEvents returns the audit trail, most recent first. It requires the
// manage_users right.
func (s *Service) AuditEvents(ctx context.Context, identity *SessionIdentity, filter auditrepo.Filter) (*AuditPage, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	filter.Limit = AuditPageSize(filter.Limit)
	page := &AuditPage{Events: []entities.AuditEvent{}, Limit: filter.Limit, Offset: filter.Offset}
	if s.audit == nil {
		return page, nil
	}

	events, total, err := s.audit.ListEvents(filter)
	if err != nil {
		return nil, err
	}
	page.Events = events
	page.Total = total
	return page, nil
}

// AuditPageSize applies the default page size and the upper cap to limit.
func AuditPageSize(limit int) int {
	if limit <= 0 {
		return defaultAuditPageSize
	}
	return min(limit, maxAuditPageSize)
}
