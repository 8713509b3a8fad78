package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return c.err
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func validEvent() Event {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Event{
		EventID:   NewEventID("evt_", now),
		Source:    "watcher",
		Type:      TypeTaskCompleted,
		Timestamp: now,
		RunID:     "run-1",
		Task:      &TaskRef{Index: 2, Link: "https://rutube.ru/video/x/", Title: "Борщ"},
	}
}

func TestNATSBusPublishesJSON(t *testing.T) {
	conn := &fakeConn{}
	bus := newNATSBus(conn, "")

	require.NoError(t, bus.Publish(context.Background(), validEvent()))

	require.Len(t, conn.payloads, 1)
	assert.Equal(t, DefaultSubject, conn.subjects[0])
	var got Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, TypeTaskCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Task.Index)
	assert.Equal(t, "Борщ", got.Task.Title)
}

func TestNATSBusRejectsIncompleteEvent(t *testing.T) {
	conn := &fakeConn{}
	bus := newNATSBus(conn, "custom.subject")

	err := bus.Publish(context.Background(), Event{Type: TypeRunStarted})
	assert.Error(t, err)
	assert.Empty(t, conn.payloads)
}

func TestNATSBusPassesConnErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	bus := newNATSBus(conn, "custom.subject")

	assert.Error(t, bus.Publish(context.Background(), validEvent()))
	assert.Equal(t, []string{"custom.subject"}, conn.subjects)

	require.NoError(t, bus.Close())
	assert.True(t, conn.drained)
}

func TestNATSBusSkipsAfterCancel(t *testing.T) {
	conn := &fakeConn{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, newNATSBus(conn, "").Publish(ctx, validEvent()), context.Canceled)
	assert.Empty(t, conn.payloads)
}

func TestNewEventID(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	a := NewEventID("evt_", now)
	b := NewEventID("evt_", now)
	assert.True(t, strings.HasPrefix(a, "evt_20240501_"))
	assert.Len(t, a, len("evt_20240501_")+16)
	assert.NotEqual(t, a, b)
}

func TestNopBus(t *testing.T) {
	assert.NoError(t, NopBus{}.Publish(context.Background(), Event{}))
}
