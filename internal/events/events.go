// Package events publishes lab and setup step change notifications so other
// services (provisioners, dashboards) can react without polling the API.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the lab store.
const (
	LabCreated        = "labs.lab.created"
	LabUpdated        = "labs.lab.updated"
	LabDeleted        = "labs.lab.deleted"
	LabStatusToggled  = "labs.lab.status_toggled"
	StepCreated       = "labs.step.created"
	StepUpdated       = "labs.step.updated"
	StepDeleted       = "labs.step.deleted"
	StepsBatchDeleted = "labs.step.batch_deleted"
	StepsReordered    = "labs.step.reordered"
)

// Event is the envelope written to every subject.
type Event struct {
	Subject  string    `json:"subject"`
	LabID    string    `json:"labId,omitempty"`
	StepIDs  []string  `json:"stepIds,omitempty"`
	Payload  any       `json:"payload,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// NATS publishes events as JSON on a core NATS connection.
type NATS struct {
	conn *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string, opts ...nats.Option) (*NATS, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATS{conn: nc}, nil
}

// Publish encodes ev as JSON and publishes it on ev.Subject.
func (n *NATS) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.conn == nil {
		return errors.New("nil nats publisher")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.Occurred.IsZero() {
		ev.Occurred = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.conn.Publish(ev.Subject, data)
}

// Close drains the connection, falling back to a hard close.
func (n *NATS) Close() {
	if n == nil || n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

// Recorder keeps published events in memory. Tests use it to assert on what
// a handler emitted.
type Recorder struct {
	events chan Event
}

// NewRecorder returns a Recorder that buffers up to size events.
func NewRecorder(size int) *Recorder {
	return &Recorder{events: make(chan Event, size)}
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	select {
	case r.events <- ev:
		return nil
	default:
		return errors.New("recorder full")
	}
}

// Drain returns every event recorded so far.
func (r *Recorder) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-r.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}
