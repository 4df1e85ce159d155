package broker

import (
	"log"
	"time"

	"github.com/IBM/sarama"
)

// OpenProducer connects an async producer, retrying while the brokers come up.
// Delivery errors are drained by the caller from Errors().
func OpenProducer(brokers []string, attempts int, wait time.Duration) (sarama.AsyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 5
	config.Producer.Return.Errors = true

	if attempts <= 0 {
		attempts = 1
	}
	var (
		producer sarama.AsyncProducer
		err      error
	)
	for i := 1; i <= attempts; i++ {
		producer, err = sarama.NewAsyncProducer(brokers, config)
		if err == nil {
			log.Printf("kafka: producer connected to %v", brokers)
			return producer, nil
		}
		log.Printf("kafka: waiting for brokers (%d/%d): %v", i, attempts, err)
		if i < attempts {
			time.Sleep(wait)
		}
	}
	return nil, err
}
