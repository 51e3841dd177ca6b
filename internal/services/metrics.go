package services

import (
	"context"
	"os"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type MetricsStore interface {
	InsertMetricSample(ctx context.Context, sample models.MetricSample) error
	LatestMetricSamples(ctx context.Context, limit int) ([]models.MetricSample, error)
}

type Metrics struct {
	Store    MetricsStore
	DiskPath string
}

func NewMetrics(store MetricsStore, diskPath string) *Metrics {
	return &Metrics{Store: store, DiskPath: diskPath}
}

// Sample reads host and process usage. Partial failures leave fields at zero.
func Sample(ctx context.Context, diskPath string) models.MetricSample {
	sample := models.MetricSample{CapturedAt: time.Now().UTC()}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		diskStat, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfoWithContext(ctx); err == nil && rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		if cpuPerc, err := proc.CPUPercentWithContext(ctx); err == nil {
			sample.ProcessCPULoad = cpuPerc / 100.0
		}
	}
	if sysCPU, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(sysCPU) > 0 {
		sample.SystemCPULoad = sysCPU[0] / 100.0
	}
	return sample
}

func (m *Metrics) Capture(ctx context.Context) (models.MetricSample, error) {
	sample := Sample(ctx, m.DiskPath)
	if err := m.Store.InsertMetricSample(ctx, sample); err != nil {
		return models.MetricSample{}, WrapError(err, "store metric sample")
	}
	return sample, nil
}

func (m *Metrics) History(ctx context.Context, limit int) ([]models.MetricSample, error) {
	if limit <= 0 {
		limit = 120
	}
	if limit > 500 {
		limit = 500
	}
	items, err := m.Store.LatestMetricSamples(ctx, limit)
	if err != nil {
		return nil, WrapError(err, "load metric samples")
	}
	return items, nil
}
