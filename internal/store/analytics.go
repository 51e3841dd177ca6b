package store

import (
	"context"
	"fmt"
	"time"

	"brosolve-backend-go/internal/models"
)

// ComplaintsPerDay counts complaints per UTC calendar day in [since, until). Days without complaints are absent.
func (s *Store) ComplaintsPerDay(ctx context.Context, since, until time.Time) ([]models.DayCount, error) {
	items := []models.DayCount{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS count
FROM complaints
WHERE created_at >= $1 AND created_at < $2
GROUP BY day
ORDER BY day
`, since, until)
	return items, err
}

// ComplaintsGroupedBy counts complaints per value of field, largest first.
func (s *Store) ComplaintsGroupedBy(ctx context.Context, field models.GroupField) ([]models.KeyCount, error) {
	switch field {
	case models.GroupByCategory, models.GroupByStatus, models.GroupByCenterType:
	default:
		return nil, fmt.Errorf("unsupported group field %q", field)
	}
	items := []models.KeyCount{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT `+string(field)+` AS key, COUNT(*) AS count
FROM complaints
GROUP BY key
ORDER BY count DESC, key
`)
	return items, err
}

func (s *Store) TopRaisers(ctx context.Context, limit int) ([]models.UserCount, error) {
	items := []models.UserCount{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT c.raised_by AS user_id, COALESCE(u.name, 'Unknown') AS name, COALESCE(u.email, 'N/A') AS email, COUNT(*) AS count
FROM complaints c
LEFT JOIN users u ON u.id = c.raised_by
GROUP BY c.raised_by, u.name, u.email
ORDER BY count DESC, name
LIMIT $1
`, limit)
	return items, err
}

// ResolutionTimes aggregates created-to-resolved hours over resolved complaints.
// Rows resolved before resolved_at was tracked fall back to updated_at.
func (s *Store) ResolutionTimes(ctx context.Context) (models.ResolutionStats, error) {
	var stats models.ResolutionStats
	err := s.DB.GetContext(ctx, &stats, `
WITH durations AS (
  SELECT EXTRACT(EPOCH FROM (COALESCE(resolved_at, updated_at) - created_at)) / 3600.0 AS hours
  FROM complaints
  WHERE status = 'resolved'
)
SELECT COUNT(*) AS count,
       COALESCE(AVG(hours), 0)::float8 AS avg_hours,
       COALESCE(MIN(hours), 0)::float8 AS min_hours,
       COALESCE(MAX(hours), 0)::float8 AS max_hours
FROM durations
WHERE hours >= 0
`)
	return stats, err
}
