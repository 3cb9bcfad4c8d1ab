// Package events publishes form change events.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/artpar/formgate/ports"
)

// NATS publishes each event as JSON on the subject <prefix>.<event type>,
// for example "formgate.field.updated".
type NATS struct {
	conn   *nats.Conn
	prefix string
	owned  bool
}

// NewNATS wraps an existing connection. Close does not close it.
func NewNATS(conn *nats.Conn, prefix string) *NATS {
	if prefix == "" {
		prefix = "formgate"
	}
	return &NATS{conn: conn, prefix: prefix}
}

// ConnectNATS dials url and returns a publisher that owns the connection.
func ConnectNATS(url, prefix string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("formgate"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	p := NewNATS(conn, prefix)
	p.owned = true
	return p, nil
}

// Subject returns the subject an event type is published on.
func (p *NATS) Subject(t ports.EventType) string {
	return p.prefix + "." + string(t)
}

// Publish sends the event. NATS publishes are fire-and-forget, so ctx is
// only checked before sending.
func (p *NATS) Publish(ctx context.Context, e ports.FormEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(e.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close drains the connection if the publisher owns it.
func (p *NATS) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, ports.FormEvent) error { return nil }
func (Noop) Close() error                                  { return nil }

// Recorder keeps published events in memory. Tests only.
type Recorder struct {
	mu     sync.Mutex
	events []ports.FormEvent
	err    error
	closed bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Publish calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Publish(ctx context.Context, e ports.FormEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("recorder closed")
	}
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []ports.FormEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []ports.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var (
	_ ports.EventPublisher = (*NATS)(nil)
	_ ports.EventPublisher = Noop{}
	_ ports.EventPublisher = (*Recorder)(nil)
)
