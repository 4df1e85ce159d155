package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"sacco-backend/internal/domain/notification"
)

// Event is the JSON value published for every message.
type Event struct {
	notification.Message
	OccurredAt time.Time `json:"occurred_at"`
}

// Kafka publishes messages keyed by user id. Delivery errors are logged.
// Notify never blocks: when the producer's input is full the event is dropped.
type Kafka struct {
	producer sarama.AsyncProducer
	topic    string
	now      func() time.Time
	wg       sync.WaitGroup
	dropped  atomic.Int64
}

func NewKafka(p sarama.AsyncProducer, topic string) *Kafka {
	k := &Kafka{producer: p, topic: topic, now: func() time.Time { return time.Now().UTC() }}
	k.wg.Add(1)
	go k.drain()
	return k
}

func (k *Kafka) drain() {
	defer k.wg.Done()
	for perr := range k.producer.Errors() {
		log.Printf("notify: kafka delivery to %s failed: %v", perr.Msg.Topic, perr.Err)
	}
}

func (k *Kafka) Notify(_ context.Context, m notification.Message) {
	data, err := json.Marshal(Event{Message: m, OccurredAt: k.now()})
	if err != nil {
		log.Printf("notify: marshal %s: %v", m.Kind, err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(m.UserID),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case k.producer.Input() <- msg:
	default:
		k.dropped.Add(1)
		log.Printf("notify: kafka input full, dropped %s for %s", m.Kind, m.UserID)
	}
}

// Dropped reports how many events Notify discarded.
func (k *Kafka) Dropped() int64 { return k.dropped.Load() }

// Close flushes the producer and waits for the error drain to finish.
func (k *Kafka) Close() error {
	k.producer.AsyncClose()
	k.wg.Wait()
	return nil
}
