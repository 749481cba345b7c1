package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ppiankov/ticketdebate/internal/model"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)

	var got Event
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})

	pub := NewKafkaPublisherFromProducer(producer, "ticket-debate-turns")
	entry := model.Entry{Side: model.SidePro, Content: "Pay it."}
	if err := pub.Publish(Event{Type: TypeEntry, DebateID: "A1", Sequence: 1, Entry: &entry}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got.DebateID != "A1" || got.Entry == nil || got.Entry.Content != "Pay it." {
		t.Errorf("Unexpected event on the wire: %+v", got)
	}
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherFromProducer(producer, "t")
	err := pub.Publish(Event{Type: TypeFinished, DebateID: "A1"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("Expected ErrOutOfBrokers, got %v", err)
	}
	_ = pub.Close()
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestObserver(t *testing.T) {
	pub := &recordingPublisher{}
	obs := NewObserver(pub, "A1", nil)
	fixed := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	obs.now = func() time.Time { return fixed }

	state := model.DebateState{ProMessageCount: 1}
	obs.OnEntry(state, model.Entry{Side: model.SidePro, Content: "Pay."}, true)
	state.AntiConceded = true
	obs.OnEntry(state, model.Entry{Side: model.SideAnti, Content: "fine", Concession: true}, false)
	obs.OnFinish(state)

	if len(pub.events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(pub.events))
	}
	for i, e := range pub.events {
		if e.Sequence != i+1 || e.DebateID != "A1" || !e.Timestamp.Equal(fixed) {
			t.Errorf("Event %d: unexpected envelope %+v", i, e)
		}
	}
	if !pub.events[0].Fallback || pub.events[0].Entry.Side != model.SidePro {
		t.Errorf("Unexpected first event: %+v", pub.events[0])
	}
	last := pub.events[2]
	if last.Type != TypeFinished || last.Outcome != model.OutcomeAntiConceded || last.Entry != nil {
		t.Errorf("Unexpected finished event: %+v", last)
	}
}

func TestObserver_PublishErrorIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	obs := NewObserver(pub, "A1", nil)

	obs.OnFinish(model.DebateState{})
	if len(pub.events) != 1 {
		t.Fatalf("Expected publish attempt, got %d", len(pub.events))
	}
}
