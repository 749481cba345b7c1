// Package events publishes debate progress to a message stream.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// Event types
const (
	TypeEntry    = "entry"
	TypeFinished = "finished"
)

// Event is one message on the stream. Entry events carry the appended
// entry; the finished event carries the outcome and final counts.
type Event struct {
	Type             string       `json:"type"`
	DebateID         string       `json:"debate_id"`
	Sequence         int          `json:"sequence"`
	Entry            *model.Entry `json:"entry,omitempty"`
	Fallback         bool         `json:"fallback,omitempty"`
	Outcome          string       `json:"outcome,omitempty"`
	ProMessageCount  int          `json:"pro_message_count"`
	AntiMessageCount int          `json:"anti_message_count"`
	Timestamp        time.Time    `json:"timestamp"`
}

// Publisher sends events
type Publisher interface {
	Publish(event Event) error
	Close() error
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }

// KafkaPublisher writes JSON events to a Kafka topic, keyed by debate id so
// one debate's events stay ordered within a partition
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return NewKafkaPublisherFromProducer(producer, topic), nil
}

// NewKafkaPublisherFromProducer wraps an existing producer
func NewKafkaPublisherFromProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.DebateID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Observer turns engine callbacks for one debate into events.
// Publish failures are logged and never interrupt the debate.
type Observer struct {
	publisher Publisher
	debateID  string
	logger    *slog.Logger
	now       func() time.Time
	seq       int
}

// NewObserver creates an observer for debateID. A nil logger discards output.
func NewObserver(p Publisher, debateID string, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Observer{publisher: p, debateID: debateID, logger: logger, now: time.Now}
}

func (o *Observer) OnEntry(state model.DebateState, entry model.Entry, fallback bool) {
	e := entry
	o.publish(Event{
		Type:             TypeEntry,
		Entry:            &e,
		Fallback:         fallback,
		ProMessageCount:  state.ProMessageCount,
		AntiMessageCount: state.AntiMessageCount,
	})
}

func (o *Observer) OnFinish(state model.DebateState) {
	o.publish(Event{
		Type:             TypeFinished,
		Outcome:          state.Outcome(),
		ProMessageCount:  state.ProMessageCount,
		AntiMessageCount: state.AntiMessageCount,
	})
}

func (o *Observer) publish(e Event) {
	o.seq++
	e.DebateID = o.debateID
	e.Sequence = o.seq
	e.Timestamp = o.now().UTC()
	if err := o.publisher.Publish(e); err != nil {
		o.logger.Warn("event publish failed", "debate_id", o.debateID, "type", e.Type, "error", err)
	}
}
