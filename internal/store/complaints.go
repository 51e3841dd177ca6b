package store

import (
	"context"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/lib/pq"
)

type complaintRow struct {
	ID                string             `db:"id"`
	Title             string             `db:"title"`
	Description       string             `db:"description"`
	Category          string             `db:"category"`
	CenterType        string             `db:"center_type"`
	ContactPreference string             `db:"contact_preference"`
	AllowWebReply     bool               `db:"allow_web_reply"`
	Status            string             `db:"status"`
	RatingScore       *int               `db:"rating_score"`
	RatingComment     *string            `db:"rating_comment"`
	RatedAt           *time.Time         `db:"rated_at"`
	Attachments       models.Attachments `db:"attachments"`
	RaisedBy          string             `db:"raised_by"`
	AssignedTo        *string            `db:"assigned_to"`
	ResolvedAt        *time.Time         `db:"resolved_at"`
	CreatedAt         time.Time          `db:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at"`
	RaiserName        string             `db:"raiser_name"`
	RaiserEmail       string             `db:"raiser_email"`
	RaiserRole        string             `db:"raiser_role"`
	RaiserPhone       *string            `db:"raiser_phone"`
	AssigneeName      *string            `db:"assignee_name"`
	AssigneeEmail     *string            `db:"assignee_email"`
	AssigneeRole      *string            `db:"assignee_role"`
}

const complaintSelect = `
SELECT c.id, c.title, c.description, c.category, c.center_type, c.contact_preference, c.allow_web_reply,
       c.status, c.rating_score, c.rating_comment, c.rated_at, c.attachments, c.raised_by, c.assigned_to,
       c.resolved_at, c.created_at, c.updated_at,
       r.name AS raiser_name, r.email AS raiser_email, r.role AS raiser_role, r.phone AS raiser_phone,
       a.name AS assignee_name, a.email AS assignee_email, a.role AS assignee_role
FROM complaints c
JOIN users r ON r.id = c.raised_by
LEFT JOIN users a ON a.id = c.assigned_to`

func (row complaintRow) toModel() models.Complaint {
	c := models.Complaint{
		ID:                row.ID,
		Title:             row.Title,
		Description:       row.Description,
		Category:          row.Category,
		CenterType:        models.CenterType(row.CenterType),
		ContactPreference: models.ContactPreference(row.ContactPreference),
		AllowWebReply:     row.AllowWebReply,
		Status:            models.Status(row.Status),
		RatingScore:       row.RatingScore,
		RatingComment:     row.RatingComment,
		RatedAt:           row.RatedAt,
		Attachments:       row.Attachments,
		RaisedBy: models.UserSummary{
			ID:    row.RaisedBy,
			Name:  row.RaiserName,
			Email: row.RaiserEmail,
			Role:  models.Role(row.RaiserRole),
		},
		ResolvedAt: row.ResolvedAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.RaiserPhone != nil {
		c.RaisedBy.Phone = *row.RaiserPhone
	}
	if row.AssignedTo != nil {
		assignee := models.UserSummary{ID: *row.AssignedTo}
		if row.AssigneeName != nil {
			assignee.Name = *row.AssigneeName
		}
		if row.AssigneeEmail != nil {
			assignee.Email = *row.AssigneeEmail
		}
		if row.AssigneeRole != nil {
			assignee.Role = models.Role(*row.AssigneeRole)
		}
		c.AssignedTo = &assignee
	}
	return c
}

func (s *Store) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO complaints (
  id, title, description, category, center_type, contact_preference, allow_web_reply,
  status, attachments, raised_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
`, c.ID, c.Title, c.Description, c.Category, c.CenterType, c.ContactPreference, c.AllowWebReply,
		c.Status, c.Attachments, c.RaisedBy.ID, c.CreatedAt)
	return mapErr(err)
}

func (s *Store) ComplaintByID(ctx context.Context, id string) (models.Complaint, error) {
	if !validID(id) {
		return models.Complaint{}, models.ErrNotFound
	}
	var row complaintRow
	if err := s.DB.GetContext(ctx, &row, complaintSelect+` WHERE c.id = $1`, id); err != nil {
		return models.Complaint{}, mapErr(err)
	}
	return row.toModel(), nil
}

func complaintWhere(f models.ComplaintFilter) *where {
	w := &where{}
	if f.RaisedBy != "" {
		w.add("c.raised_by = ?", f.RaisedBy)
	}
	if f.Category != "" {
		w.add("c.category = ?", f.Category)
	}
	if f.Status != "" {
		w.add("c.status = ?", string(f.Status))
	}
	if f.CenterType != "" {
		w.add("c.center_type = ?", string(f.CenterType))
	}
	if f.From != nil {
		w.add("c.created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("c.created_at <= ?", *f.To)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := w.arg(likePattern(q))
		w.add("(c.title ILIKE " + p + " OR c.description ILIKE " + p + " OR c.category ILIKE " + p + ")")
	}
	return w
}

// ListComplaints returns one page, newest first, and the total matching count.
// A zero Limit returns every match.
func (s *Store) ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	if f.RaisedBy != "" && !validID(f.RaisedBy) {
		return []models.Complaint{}, 0, nil
	}
	w := complaintWhere(f)
	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM complaints c`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}
	query := complaintSelect + w.String() + ` ORDER BY c.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(f.Offset())
	}
	rows := []complaintRow{}
	if err := s.DB.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, err
	}
	items := make([]models.Complaint, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items, total, nil
}

func (s *Store) CountComplaints(ctx context.Context, f models.ComplaintFilter) (int, error) {
	w := complaintWhere(f)
	var total int
	err := s.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM complaints c`+w.String(), w.args...)
	return total, err
}

// UpdateComplaintStatus applies change only if the complaint is still in change.From.
func (s *Store) UpdateComplaintStatus(ctx context.Context, change models.StatusChange) error {
	if !validID(change.ComplaintID) {
		return models.ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE complaints
SET status = $1,
    assigned_to = COALESCE($2, assigned_to),
    resolved_at = COALESCE($3, resolved_at),
    updated_at = $4
WHERE id = $5 AND status = $6
`, change.To, change.AssignedTo, change.ResolvedAt, change.At, change.ComplaintID, change.From)
	if err != nil {
		return err
	}
	return s.conditionalResult(ctx, res.RowsAffected, change.ComplaintID)
}

// RateComplaint stores the rating while the complaint is in one of the allowed statuses.
func (s *Store) RateComplaint(ctx context.Context, id string, allowed []models.Status, rating models.Rating) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	statuses := make([]string, 0, len(allowed))
	for _, status := range allowed {
		statuses = append(statuses, string(status))
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE complaints
SET rating_score = $1, rating_comment = $2, rated_at = $3, updated_at = $3
WHERE id = $4 AND status = ANY($5)
`, rating.Score, rating.Comment, rating.At, id, pq.Array(statuses))
	if err != nil {
		return err
	}
	return s.conditionalResult(ctx, res.RowsAffected, id)
}

func (s *Store) conditionalResult(ctx context.Context, affected func() (int64, error), id string) error {
	n, err := affected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrStale
}
