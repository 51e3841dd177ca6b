package store

import (
	"context"
	"time"

	"brosolve-backend-go/internal/models"
)

type auditRow struct {
	ID             string         `db:"id"`
	Action         string         `db:"action"`
	EntityType     string         `db:"entity_type"`
	EntityID       *string        `db:"entity_id"`
	PerformedBy    string         `db:"performed_by"`
	Details        models.Details `db:"details"`
	IPAddress      string         `db:"ip_address"`
	UserAgent      string         `db:"user_agent"`
	CreatedAt      time.Time      `db:"created_at"`
	PerformerName  string         `db:"performer_name"`
	PerformerEmail string         `db:"performer_email"`
	PerformerRole  string         `db:"performer_role"`
}

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO audit_logs (id, action, entity_type, entity_id, performed_by, details, ip_address, user_agent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.PerformedBy.ID, entry.Details,
		entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListAuditLogs(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, int, error) {
	w := &where{}
	if f.Action != "" {
		w.add("l.action = ?", f.Action)
	}
	if f.EntityType != "" {
		w.add("l.entity_type = ?", f.EntityType)
	}
	if f.UserID != "" {
		if !validID(f.UserID) {
			return []models.AuditLog{}, 0, nil
		}
		w.add("l.performed_by = ?", f.UserID)
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs l`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	offset := 0
	if f.Page > 1 {
		offset = (f.Page - 1) * f.Limit
	}
	query := `
SELECT l.id, l.action, l.entity_type, l.entity_id, l.performed_by, l.details, l.ip_address, l.user_agent, l.created_at,
       u.name AS performer_name, u.email AS performer_email, u.role AS performer_role
FROM audit_logs l
JOIN users u ON u.id = l.performed_by` + w.String() + `
ORDER BY l.created_at DESC
LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(offset)
	rows := []auditRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, err
	}
	items := make([]models.AuditLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.AuditLog{
			ID:         row.ID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			PerformedBy: models.UserSummary{
				ID:    row.PerformedBy,
				Name:  row.PerformerName,
				Email: row.PerformerEmail,
				Role:  models.Role(row.PerformerRole),
			},
			Details:   row.Details,
			IPAddress: row.IPAddress,
			UserAgent: row.UserAgent,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, total, nil
}
