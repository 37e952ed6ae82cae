package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bicho/application"
	"bicho/domain/entities"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// SettlementRequest is the message asking a consumer to settle one slot
type SettlementRequest struct {
	RequestID   string    `json:"request_id"`
	DrawDate    string    `json:"draw_date"`
	Source      string    `json:"source"`
	TimeSlot    string    `json:"time_slot"`
	RequestedAt time.Time `json:"requested_at"`
}

// SlotKey parses the request into a settlement slot
func (r SettlementRequest) SlotKey() (entities.SlotKey, error) {
	return entities.NewSlotKey(r.DrawDate, r.Source, r.TimeSlot)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for settle requests
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader creates a consumer group reader for settle requests
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// KafkaSettlementDispatcher queues settle requests on Kafka
type KafkaSettlementDispatcher struct {
	writer messageWriter
}

// NewKafkaSettlementDispatcher creates a dispatcher producing to writer
func NewKafkaSettlementDispatcher(writer messageWriter) *KafkaSettlementDispatcher {
	return &KafkaSettlementDispatcher{writer: writer}
}

// Dispatch produces a settle request keyed by slot so one slot stays on one partition
func (d *KafkaSettlementDispatcher) Dispatch(ctx context.Context, key entities.SlotKey) error {
	request := SettlementRequest{
		RequestID:   uuid.NewString(),
		DrawDate:    key.DateString(),
		Source:      key.Source,
		TimeSlot:    key.TimeSlot,
		RequestedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key.String()),
		Value: payload,
		Time:  request.RequestedAt,
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to produce settlement request for %s: %w", key, err)
	}

	log.WithFields(log.Fields{
		"slot":      key.String(),
		"requestID": request.RequestID,
	}).Info("Queued settlement request")
	return nil
}

// Close closes the underlying writer
func (d *KafkaSettlementDispatcher) Close() error {
	return d.writer.Close()
}

// SlotSettler runs settlement for one slot
type SlotSettler interface {
	Settle(ctx context.Context, key entities.SlotKey) (*application.SettlementSummary, error)
}

// KafkaSettlementConsumer executes queued settle requests
type KafkaSettlementConsumer struct {
	reader    messageReader
	settler   SlotSettler
	retryWait time.Duration
}

// NewKafkaSettlementConsumer creates a consumer feeding requests to settler
func NewKafkaSettlementConsumer(reader messageReader, settler SlotSettler) *KafkaSettlementConsumer {
	return &KafkaSettlementConsumer{
		reader:    reader,
		settler:   settler,
		retryWait: 500 * time.Millisecond,
	}
}

// Run consumes until ctx is cancelled. Every message is committed after one attempt;
// a slot that failed is picked up again by the scheduler sweep.
func (c *KafkaSettlementConsumer) Run(ctx context.Context) error {
	log.Info("Settlement consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Settlement consumer stopped")
				return ctx.Err()
			}
			log.WithError(err).Warn("Failed to fetch settlement request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryWait):
			}
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("offset", msg.Offset).Error("Failed to commit settlement request")
		}
	}
}

func (c *KafkaSettlementConsumer) handle(ctx context.Context, msg kafka.Message) {
	logger := log.WithFields(log.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var request SettlementRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		logger.WithError(err).Error("Dropping malformed settlement request")
		return
	}

	key, err := request.SlotKey()
	if err != nil {
		logger.WithError(err).Error("Dropping settlement request with invalid slot")
		return
	}

	logger = logger.WithFields(log.Fields{
		"slot":      key.String(),
		"requestID": request.RequestID,
	})

	if _, err := c.settler.Settle(ctx, key); err != nil {
		if errors.Is(err, entities.ErrResultNotAvailable) {
			logger.Warn("Draw result not published yet, leaving slot for the next sweep")
			return
		}
		logger.WithError(err).Error("Settlement request failed")
	}
}

// Close closes the underlying reader
func (c *KafkaSettlementConsumer) Close() error {
	return c.reader.Close()
}
