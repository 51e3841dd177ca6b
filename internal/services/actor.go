package services

import (
	"time"

	"brosolve-backend-go/internal/models"
)

// Actor is the authenticated caller, built from a fresh read of the user row.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
}

func ActorFrom(u models.User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (a Actor) Side() models.Side {
	return models.SideOf(a.Role)
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

func (a Actor) Summary() models.UserSummary {
	return models.UserSummary{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// RequestMeta carries request origin details for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// canAccess is the shared complaint visibility rule: staff see everything, students their own.
func canAccess(actor Actor, c models.Complaint) bool {
	return actor.IsStaff() || c.RaisedBy.ID == actor.ID
}
