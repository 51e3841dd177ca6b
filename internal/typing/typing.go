// Package typing tracks who is currently typing in a complaint thread.
//
// Presence is soft state: each complaint keeps one flag per side and the time
// of the last update. A read more than Window after the last update reports
// nobody typing and drops the entry.
package typing

import (
	"context"
	"time"

	"brosolve-backend-go/internal/models"
)

const Window = 5000 * time.Millisecond

type Status struct {
	StudentTyping bool `json:"studentTyping"`
	AdminTyping   bool `json:"adminTyping"`
}

type Tracker interface {
	Set(ctx context.Context, complaintID string, side models.Side, isTyping bool) error
	Get(ctx context.Context, complaintID string) (Status, error)
}

func expired(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > Window
}
