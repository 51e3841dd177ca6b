package services

import (
	"context"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, int, error)
}

type Audit struct {
	Store AuditStore
	Log   *zap.Logger
	Clock Clock
}

func NewAudit(store AuditStore, log *zap.Logger) *Audit {
	return &Audit{Store: store, Log: log}
}

// Record appends an audit entry. Failures are logged and never fail the caller.
func (a *Audit) Record(ctx context.Context, actor Actor, meta RequestMeta, action, entityType, entityID string, details models.Details) {
	entry := &models.AuditLog{
		ID:          uuid.NewString(),
		Action:      action,
		EntityType:  entityType,
		PerformedBy: actor.Summary(),
		Details:     details,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		CreatedAt:   a.Clock.Now(),
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	if entry.Details == nil {
		entry.Details = models.Details{}
	}
	if err := a.Store.CreateAuditLog(ctx, entry); err != nil {
		a.Log.Error("audit log write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("user_id", actor.ID),
			zap.Error(err))
	}
}

func (a *Audit) List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	items, total, err := a.Store.ListAuditLogs(ctx, f)
	if err != nil {
		return nil, 0, WrapError(err, "list audit logs")
	}
	return items, total, nil
}
