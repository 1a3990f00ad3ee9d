// Package audit records who did what to the catalog, loans and accounts.
// Events are written in the background so a slow audit insert never delays
// the request that caused it; call Wait before shutdown to flush them.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

type metaKey struct{}

// RequestMeta describes the HTTP request behind an event.
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// WithRequestMeta attaches request details to ctx for later events.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFrom returns the request details stored in ctx, if any.
func MetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	return meta
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// LogAsync records an event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event %s: %v", event.Action, err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Record builds an event from ctx and the outcome of an operation and logs
// it in the background. A nil Service is a no-op.
func (s *Service) Record(ctx context.Context, userID uint, eventType entities.AuditEventType, action, entityType string, entityID uint, description string, err error) {
	if s == nil {
		return
	}

	meta := MetaFrom(ctx)
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		RequestID:   meta.RequestID,
		IPAddress:   meta.IPAddress,
		UserAgent:   truncate(meta.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if entityID != 0 {
		event.EntityID = &entityID
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records a login, logout or registration attempt.
func (s *Service) LogAuth(ctx context.Context, userID uint, action string, err error) {
	s.Record(ctx, userID, entities.AuditEventAuth, action, "user", userID, "", err)
}

// ListEvents retrieves a page of events.
func (s *Service) ListEvents(f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(f)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// ExportJSON writes the events matching f to a new file in dir and returns
// its name. Files are named by a random UUID.
func (s *Service) ExportJSON(dir string, f audit.Filter) (string, error) {
	events, _, err := s.repo.ListEvents(f)
	if err != nil {
		return "", fmt.Errorf("failed to list audit events: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit events: %w", err)
	}

	filename := uuid.NewString() + ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audit export: %w", err)
	}
	return filename, nil
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
