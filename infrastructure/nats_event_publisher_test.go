package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bicho/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	msgID   string
	data    []byte
}

type fakeMessagePublisher struct {
	messages []publishedMessage
	err      error
}

func (f *fakeMessagePublisher) Publish(ctx context.Context, subject string, msgID string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, msgID: msgID, data: data})
	return nil
}

type countingMetrics struct {
	published map[string]int
}

func (m *countingMetrics) RecordNATSMessagePublished(eventType string) {
	if m.published == nil {
		m.published = make(map[string]int)
	}
	m.published[eventType]++
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	t.Parallel()

	client := &fakeMessagePublisher{}
	metrics := &countingMetrics{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), metrics)

	event := events.WagerWonEvent{WagerID: 7, OwnerID: 100, Amount: 800000, Display: "8000.00"}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "bicho.wagers.won", msg.subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.data, &envelope))
	assert.Equal(t, msg.msgID, envelope.EventID)
	assert.Equal(t, "wager.won", envelope.EventType)
	assert.Equal(t, "bicho", envelope.SourceService)
	assert.False(t, envelope.Timestamp.IsZero())

	var payload events.WagerWonEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
	assert.Equal(t, 1, metrics.published["wager.won"])
}

func TestNATSEventPublisher_LocalHandlers(t *testing.T) {
	t.Parallel()

	client := &fakeMessagePublisher{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil)

	var received []events.Event
	publisher.RegisterLocalHandler(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})
	publisher.RegisterLocalHandler(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) error {
		return errors.New("handler failed")
	})

	change := events.BalanceChangeEvent{AccountID: 100, NewBalance: 400}
	require.NoError(t, publisher.Publish(change))
	require.NoError(t, publisher.Publish(events.WagerCancelledEvent{WagerID: 1}))

	assert.Equal(t, []events.Event{change}, received)
	assert.Len(t, client.messages, 2)
}

func TestNATSEventPublisher_WithoutClient(t *testing.T) {
	t.Parallel()

	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper(), nil)

	called := false
	publisher.RegisterLocalHandler(events.EventTypeSlotSettled, func(ctx context.Context, event events.Event) error {
		called = true
		return nil
	})

	require.NoError(t, publisher.Publish(events.SlotSettledEvent{DrawDate: "2026-03-14", Source: "RJ", TimeSlot: "PT"}))
	assert.True(t, called)
}

func TestNATSEventPublisher_Errors(t *testing.T) {
	t.Parallel()

	noStream := NewNATSEventPublisher(&fakeMessagePublisher{err: errors.New("nats: no response from stream")}, NewEventSubjectMapper(), nil)
	assert.NoError(t, noStream.Publish(events.WagerWonEvent{WagerID: 1}))

	broken := NewNATSEventPublisher(&fakeMessagePublisher{err: errors.New("connection closed")}, NewEventSubjectMapper(), nil)
	assert.ErrorContains(t, broken.Publish(events.WagerWonEvent{WagerID: 1}), "connection closed")
}

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()
	all := []events.Event{
		events.WagerWonEvent{},
		events.WagerCancelledEvent{},
		events.BalanceChangeEvent{},
		events.SlotSettledEvent{},
	}

	subjects := make([]string, 0, len(all))
	for _, event := range all {
		subject := mapper.MapEventToSubject(event)
		assert.Equal(t, event.Type(), mapper.MapSubjectToEventType(subject))
		subjects = append(subjects, subject)
	}
	assert.ElementsMatch(t, mapper.GetAllSubjects(), subjects)
	assert.Equal(t, events.EventType("other.subject"), mapper.MapSubjectToEventType("other.subject"))
}
