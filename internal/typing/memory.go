package typing

import (
	"context"
	"sync"
	"time"

	"brosolve-backend-go/internal/models"
)

type entry struct {
	status    Status
	updatedAt time.Time
}

// Memory keeps presence in process. Suitable for a single instance.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]entry{}, now: time.Now}
}

func (m *Memory) Set(_ context.Context, complaintID string, side models.Side, isTyping bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[complaintID]
	if side == models.SideAdmin {
		e.status.AdminTyping = isTyping
	} else {
		e.status.StudentTyping = isTyping
	}
	e.updatedAt = m.now()
	m.entries[complaintID] = e
	return nil
}

func (m *Memory) Get(_ context.Context, complaintID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[complaintID]
	if !ok {
		return Status{}, nil
	}
	if expired(e.updatedAt, m.now()) {
		delete(m.entries, complaintID)
		return Status{}, nil
	}
	return e.status, nil
}
