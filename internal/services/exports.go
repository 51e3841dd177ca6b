package services

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"
)

var exportHeader = []string{"ID", "Title", "Category", "Status", "Center Type", "Raised By", "Assigned To", "Created At"}

type Exports struct {
	Complaints ComplaintStore
	Audit      *Audit
}

// ComplaintsCSV writes every complaint matching f as CSV and returns the row count.
func (s *Exports) ComplaintsCSV(ctx context.Context, actor Actor, meta RequestMeta, f models.ComplaintFilter, w io.Writer) (int, error) {
	f.Page, f.Limit = 0, 0
	items, _, err := s.Complaints.ListComplaints(ctx, f)
	if err != nil {
		return 0, WrapError(err, "list complaints for export")
	}
	if err := WriteComplaintsCSV(w, items); err != nil {
		return 0, WrapError(err, "write csv")
	}
	s.Audit.Record(ctx, actor, meta, "export", "complaint", "", models.Details{"format": "csv", "count": len(items)})
	return len(items), nil
}

func WriteComplaintsCSV(w io.Writer, items []models.Complaint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range items {
		assigned := ""
		if c.AssignedTo != nil {
			assigned = c.AssignedTo.Name
		}
		record := []string{
			c.ID,
			csvText(c.Title),
			csvText(c.Category),
			string(c.Status),
			string(c.CenterType),
			csvText(c.RaisedBy.Name),
			csvText(assigned),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvText quotes user-written text that a spreadsheet would read as a formula.
func csvText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
