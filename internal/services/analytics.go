package services

import (
	"context"
	"math"
	"time"

	"brosolve-backend-go/internal/models"

	"golang.org/x/sync/errgroup"
)

type AnalyticsStore interface {
	ComplaintsPerDay(ctx context.Context, since, until time.Time) ([]models.DayCount, error)
	ComplaintsGroupedBy(ctx context.Context, field models.GroupField) ([]models.KeyCount, error)
	TopRaisers(ctx context.Context, limit int) ([]models.UserCount, error)
	ResolutionTimes(ctx context.Context) (models.ResolutionStats, error)
	CountComplaints(ctx context.Context, f models.ComplaintFilter) (int, error)
}

type Analytics struct {
	Store      AnalyticsStore
	Categories *Categories
	Clock      Clock
}

type ResolutionSummary struct {
	AvgHours float64
	MinHours float64
	MaxHours float64
}

type PublicStats struct {
	Total   int
	Solved  int
	Today   int
	Percent int
}

type PublicAnalytics struct {
	PerDay     []models.DayCount
	Categories []models.KeyCount
	Statuses   []models.KeyCount
	Centers    []models.KeyCount
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Trend returns one entry per UTC day for the last days days, today included, oldest first.
func (s *Analytics) Trend(ctx context.Context, days int) ([]models.DayCount, error) {
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}
	today := startOfDay(s.Clock.Now())
	since := today.AddDate(0, 0, -(days - 1))
	counts, err := s.Store.ComplaintsPerDay(ctx, since, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, WrapError(err, "complaints per day")
	}
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Count
	}
	out := make([]models.DayCount, 0, days)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		out = append(out, models.DayCount{Date: key, Count: byDay[key]})
	}
	return out, nil
}

// ByCategory counts complaints for every active category, zeros included.
func (s *Analytics) ByCategory(ctx context.Context) ([]models.KeyCount, error) {
	categories, err := s.Categories.List(ctx, models.CategoryFilter{})
	if err != nil {
		return nil, err
	}
	counts, err := s.grouped(ctx, models.GroupByCategory)
	if err != nil {
		return nil, err
	}
	out := make([]models.KeyCount, 0, len(categories))
	for _, category := range categories {
		out = append(out, models.KeyCount{Key: category.Name, Count: counts[category.Name]})
	}
	return out, nil
}

var dashboardStatuses = []models.Status{models.StatusOpen, models.StatusInReview, models.StatusResolved}

func (s *Analytics) ByStatus(ctx context.Context) ([]models.KeyCount, error) {
	counts, err := s.grouped(ctx, models.GroupByStatus)
	if err != nil {
		return nil, err
	}
	out := make([]models.KeyCount, 0, len(dashboardStatuses))
	for _, status := range dashboardStatuses {
		out = append(out, models.KeyCount{Key: string(status), Count: counts[string(status)]})
	}
	return out, nil
}

func (s *Analytics) ByCenter(ctx context.Context) ([]models.KeyCount, error) {
	items, err := s.Store.ComplaintsGroupedBy(ctx, models.GroupByCenterType)
	if err != nil {
		return nil, WrapError(err, "group by center")
	}
	return items, nil
}

func (s *Analytics) TopUsers(ctx context.Context) ([]models.UserCount, error) {
	items, err := s.Store.TopRaisers(ctx, 10)
	if err != nil {
		return nil, WrapError(err, "top raisers")
	}
	return items, nil
}

func (s *Analytics) ResolutionTime(ctx context.Context) (ResolutionSummary, error) {
	stats, err := s.Store.ResolutionTimes(ctx)
	if err != nil {
		return ResolutionSummary{}, WrapError(err, "resolution times")
	}
	if stats.Count == 0 {
		return ResolutionSummary{}, nil
	}
	return ResolutionSummary{
		AvgHours: round2(stats.AvgHours),
		MinHours: round2(stats.MinHours),
		MaxHours: round2(stats.MaxHours),
	}, nil
}

// PublicStats counts "solved" as complaints currently resolved; closed ones are not included.
func (s *Analytics) PublicStats(ctx context.Context) (PublicStats, error) {
	today := startOfDay(s.Clock.Now())
	endOfDay := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var stats PublicStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Store.CountComplaints(gctx, models.ComplaintFilter{})
		stats.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.Store.CountComplaints(gctx, models.ComplaintFilter{Status: models.StatusResolved})
		stats.Solved = n
		return err
	})
	g.Go(func() error {
		n, err := s.Store.CountComplaints(gctx, models.ComplaintFilter{From: &today, To: &endOfDay})
		stats.Today = n
		return err
	})
	if err := g.Wait(); err != nil {
		return PublicStats{}, WrapError(err, "public stats")
	}
	if stats.Total > 0 {
		stats.Percent = int(math.Round(float64(stats.Solved) / float64(stats.Total) * 100))
	}
	return stats, nil
}

func (s *Analytics) PublicAnalytics(ctx context.Context, days int) (PublicAnalytics, error) {
	if days < 1 {
		days = 30
	}
	var out PublicAnalytics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.Trend(gctx, days)
		out.PerDay = items
		return err
	})
	groups := []struct {
		field models.GroupField
		dst   *[]models.KeyCount
	}{
		{models.GroupByCategory, &out.Categories},
		{models.GroupByStatus, &out.Statuses},
		{models.GroupByCenterType, &out.Centers},
	}
	for _, group := range groups {
		group := group
		g.Go(func() error {
			items, err := s.Store.ComplaintsGroupedBy(gctx, group.field)
			*group.dst = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return PublicAnalytics{}, WrapError(err, "public analytics")
	}
	return out, nil
}

func (s *Analytics) grouped(ctx context.Context, field models.GroupField) (map[string]int, error) {
	items, err := s.Store.ComplaintsGroupedBy(ctx, field)
	if err != nil {
		return nil, WrapError(err, "group by "+string(field))
	}
	counts := make(map[string]int, len(items))
	for _, item := range items {
		counts[item.Key] = item.Count
	}
	return counts, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
