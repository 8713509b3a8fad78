package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher receives run events. Failures are the caller's to log; they never stop a run.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopBus drops every event; used when no NATS URL is configured.
type NopBus struct{}

func (NopBus) Publish(context.Context, Event) error { return nil }

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSBus publishes events on a NATS core subject.
type NATSBus struct {
	nc      natsConn
	subject string
}

type NATSConfig struct {
	URL     string
	Subject string
}

const DefaultSubject = "watcher.events"

func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("watcher-eventbus"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return newNATSBus(nc, cfg.Subject), nil
}

func newNATSBus(nc natsConn, subject string) *NATSBus {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSBus{nc: nc, subject: subject}
}

func (b *NATSBus) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !evt.MinimalValidate() {
		return fmt.Errorf("invalid event: missing required fields")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, data)
}

// Close flushes pending events and closes the connection.
func (b *NATSBus) Close() error {
	return b.nc.Drain()
}
