package audit

import (
	"context"
	"time"
)

// StorePublisher captures structured audit events into a Store. It is
// append-only so tests and single-instance deployments can swap sinks
// without a broker.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// List returns the audit trail of one submission.
func (p *StorePublisher) List(ctx context.Context, submissionID string) ([]Event, error) {
	return p.store.ListBySubmission(ctx, submissionID)
}

// AsyncPublisher decouples emitters from persistence through a buffered
// channel drained by a Worker. Emit never blocks; when the buffer is full the
// event is dropped rather than stalling the request path.
type AsyncPublisher struct {
	inbox chan Event
}

func NewAsyncPublisher(buffer int) *AsyncPublisher {
	return &AsyncPublisher{inbox: make(chan Event, buffer)}
}

// Inbox is the read side handed to the Worker.
func (p *AsyncPublisher) Inbox() <-chan Event {
	return p.inbox
}

func (p *AsyncPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return nil
	}
}
