package testhelpers

import (
	"context"
	"sync"

	"bicho/domain/events"
	"bicho/domain/interfaces"
)

// RecordingPublisher is an in-memory EventPublisher that keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

// NewRecordingPublisher creates an empty recording publisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the published events in order
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType returns the published events of one type
func (p *RecordingPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// pendingPublisher buffers events for one unit of work and forwards them on Flush
type pendingPublisher struct {
	sink    interfaces.EventPublisher
	pending []events.Event
}

// NewTransactionalPublisher buffers events until Flush, then hands them to sink
func NewTransactionalPublisher(sink interfaces.EventPublisher) interfaces.TransactionalEventPublisher {
	return &pendingPublisher{sink: sink}
}

func (p *pendingPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

func (p *pendingPublisher) Flush(ctx context.Context) error {
	for _, e := range p.pending {
		_ = p.sink.Publish(e)
	}
	p.pending = p.pending[:0]
	return nil
}

func (p *pendingPublisher) Discard() {
	p.pending = p.pending[:0]
}
