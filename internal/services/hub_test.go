package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu        sync.Mutex
	events    []Event
	deadlines []time.Time
	fail      bool
	stalled   bool
	closed    bool
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines = append(c.deadlines, t)
	return nil
}

// WriteJSON fails once the deadline has passed when the peer is stalled,
// the way a websocket write to a reader that stopped reading does.
func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	if c.stalled {
		if len(c.deadlines) == 0 {
			return errors.New("write blocked without deadline")
		}
		if wait := time.Until(c.deadlines[len(c.deadlines)-1]); wait > 0 {
			time.Sleep(wait)
		}
		return errors.New("i/o timeout")
	}
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

func TestHubRoutesEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	student := &fakeConn{}
	admin := &fakeConn{}
	broken := &fakeConn{fail: true}
	hub.Add(student, "student-1", false)
	hub.Add(admin, "admin-1", true)
	hub.Add(broken, "admin-2", true)

	hub.Push("student-1", "notification", map[string]string{"title": "Status updated"})
	hub.BroadcastStaff("metrics", 42)

	require.Eventually(t, func() bool { return len(admin.received()) == 1 && len(student.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "notification", student.received()[0].Type)
	assert.Equal(t, "metrics", admin.received()[0].Type)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, student.closed)
	assert.Zero(t, hub.Count())
}

func TestHubStalledClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	hub.writeWait = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	stalled := &fakeConn{stalled: true}
	healthy := &fakeConn{}
	hub.Add(stalled, "admin-1", true)
	hub.Add(healthy, "admin-2", true)

	start := time.Now()
	hub.BroadcastStaff("metrics", 1)
	hub.BroadcastStaff("metrics", 2)

	require.Eventually(t, func() bool { return len(healthy.received()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	stalled.mu.Lock()
	defer stalled.mu.Unlock()
	require.NotEmpty(t, stalled.deadlines)
	assert.WithinDuration(t, start.Add(hub.writeWait), stalled.deadlines[0], 200*time.Millisecond)
	assert.True(t, stalled.closed)
}
