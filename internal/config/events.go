package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/events"
)

const (
	PublisherKafka = "kafka"
	PublisherMock  = "mock"
)

// EventConfig selects where datamart lifecycle events go
type EventConfig struct {
	Enabled       bool
	Publisher     string
	KafkaBrokers  string
	DatamartTopic string
}

// Brokers splits KAFKA_BROKERS, dropping blank entries
func (c EventConfig) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// CreateEventPublisher builds the configured publisher. Disabled events use
// the in-memory publisher; an unknown publisher name is a configuration error.
func (c EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !c.Enabled {
		logger.Info("Datamart events disabled, using in-memory publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Publisher)) {
	case PublisherKafka:
		brokers := c.Brokers()
		if len(brokers) == 0 {
			return nil, fmt.Errorf("EVENTS_PUBLISHER=kafka needs at least one broker in KAFKA_BROKERS")
		}
		logger.Info("Publishing datamart events to kafka", "brokers", brokers, "topic", c.DatamartTopic)
		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: brokers,
			TopicName:    c.DatamartTopic,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case PublisherMock:
		return events.NewMockEventPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown EVENTS_PUBLISHER %q (want %s or %s)", c.Publisher, PublisherKafka, PublisherMock)
	}
}
