package store

import (
	"context"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
)

func (s *Store) InsertMetricSample(ctx context.Context, sample models.MetricSample) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO server_metric_samples (
  id, captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
  disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, uuid.NewString(), sample.CapturedAt, sample.ProcessRSSBytes, sample.SystemMemoryTotal, sample.SystemMemoryUsed,
		sample.DiskTotalBytes, sample.DiskUsedBytes, sample.ProcessCPULoad, sample.SystemCPULoad)
	return err
}

// LatestMetricSamples returns up to limit samples, oldest first.
func (s *Store) LatestMetricSamples(ctx context.Context, limit int) ([]models.MetricSample, error) {
	rows := []models.MetricSample{}
	if err := s.DB.SelectContext(ctx, &rows, `
SELECT captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
       disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT $1
`, limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
