package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendZeroFillsUTCDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newComplaint(t, f.student)
	b := f.newComplaint(t, f.student)
	old := f.newComplaint(t, f.other)
	f.store.SetComplaintTimes(a.ID, fixedNow.Add(-24*time.Hour), nil)
	f.store.SetComplaintTimes(b.ID, fixedNow.Add(-2*time.Hour), nil)
	f.store.SetComplaintTimes(old.ID, fixedNow.AddDate(0, 0, -10), nil)

	trend, err := f.analytics.Trend(ctx, 7)
	require.NoError(t, err)
	require.Len(t, trend, 7)
	assert.Equal(t, "2024-06-09", trend[0].Date)
	assert.Equal(t, "2024-06-15", trend[6].Date)
	assert.Equal(t, 1, trend[5].Count)
	assert.Equal(t, 1, trend[6].Count)
	total := 0
	for _, day := range trend {
		total += day.Count
	}
	assert.Equal(t, 2, total)
}

func TestBreakdowns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)
	f.newComplaint(t, f.student)
	f.newComplaint(t, f.other)
	f.setStatus(t, c.ID, models.StatusResolved)

	byCategory, err := f.analytics.ByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.KeyCount{{Key: "Infrastructure", Count: 3}, {Key: "Mentor Support", Count: 0}}, byCategory)

	byStatus, err := f.analytics.ByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.KeyCount{{Key: "open", Count: 2}, {Key: "in_review", Count: 0}, {Key: "resolved", Count: 1}}, byStatus)

	top, err := f.analytics.TopUsers(ctx)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, f.student.ID, top[0].UserID)
	assert.Equal(t, 2, top[0].Count)
}

func TestResolutionTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty, err := f.analytics.ResolutionTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSummary{}, empty)

	a := f.newComplaint(t, f.student)
	b := f.newComplaint(t, f.student)
	f.setStatus(t, a.ID, models.StatusResolved)
	f.setStatus(t, b.ID, models.StatusResolved)
	resolved := fixedNow
	f.store.SetComplaintTimes(a.ID, fixedNow.Add(-90*time.Minute), &resolved)
	f.store.SetComplaintTimes(b.ID, fixedNow.Add(-200*time.Minute), &resolved)

	summary, err := f.analytics.ResolutionTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, summary.MinHours)
	assert.Equal(t, 3.33, summary.MaxHours)
	assert.Equal(t, 2.42, summary.AvgHours)
}

func TestPublicStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stats, err := f.analytics.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, PublicStats{}, stats)

	a := f.newComplaint(t, f.student)
	f.newComplaint(t, f.student)
	yesterday := f.newComplaint(t, f.other)
	f.setStatus(t, a.ID, models.StatusResolved)
	f.store.SetComplaintTimes(yesterday.ID, fixedNow.AddDate(0, 0, -1), nil)

	stats, err = f.analytics.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, PublicStats{Total: 3, Solved: 1, Today: 2, Percent: 33}, stats)

	public, err := f.analytics.PublicAnalytics(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, public.PerDay, 3)
	assert.Equal(t, []models.KeyCount{{Key: "Infrastructure", Count: 3}}, public.Categories)
	assert.Len(t, public.Statuses, 2)
	assert.Equal(t, []models.KeyCount{{Key: "online", Count: 3}}, public.Centers)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)
	_, err := f.complaints.ChangeStatus(ctx, f.admin, RequestMeta{}, c.ID, models.StatusResolved, RouteStatus)
	require.NoError(t, err)
	f.newComplaint(t, f.other)

	var buf bytes.Buffer
	count, err := f.exports.ComplaintsCSV(ctx, f.admin, RequestMeta{}, models.ComplaintFilter{Page: 2, Limit: 1}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	var resolvedRow []string
	for _, record := range records[1:] {
		if record[0] == c.ID {
			resolvedRow = record
		}
	}
	require.NotNil(t, resolvedRow)
	assert.Equal(t, []string{c.ID, "Infrastructure Complaint", "Infrastructure", "resolved", "online", "Asha", "Meera", "2024-06-15T12:00:00Z"}, resolvedRow)

	logs, _, err := f.audit.List(ctx, models.AuditFilter{Action: "export"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "csv", logs[0].Details["format"])
	assert.Equal(t, 2, logs[0].Details["count"])
}

func TestExportCSVNeutralisesFormulas(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	items := []models.Complaint{
		{ID: "c1", Title: "=HYPERLINK(\"http://evil\",\"x\")", Category: "+Infra", Status: models.StatusOpen,
			CenterType: models.CenterOnline, RaisedBy: models.UserSummary{Name: "@asha"}, CreatedAt: now},
		{ID: "c2", Title: "-2+3", Category: "Hostel", Status: models.StatusOpen,
			CenterType: models.CenterOnline, RaisedBy: models.UserSummary{Name: "Ravi"}, CreatedAt: now},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComplaintsCSV(&buf, items))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "'=HYPERLINK(\"http://evil\",\"x\")", records[1][1])
	assert.Equal(t, "'+Infra", records[1][2])
	assert.Equal(t, "'@asha", records[1][5])
	assert.Equal(t, "'-2+3", records[2][1])
	assert.Equal(t, "Hostel", records[2][2])
	assert.Equal(t, "Ravi", records[2][5])
}
