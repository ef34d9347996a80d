// Package events publishes route analysis outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/signalsfoundry/route-link-planner/model"
)

// RouteAnalyzed is emitted after each successful route analysis.
type RouteAnalyzed struct {
	RequestID        string           `json:"requestId"`
	VehicleID        string           `json:"vehicleId,omitempty"`
	Start            model.Coordinate `json:"start"`
	End              model.Coordinate `json:"end"`
	TotalDistanceKm  float64          `json:"totalDistanceKm"`
	Segments         int              `json:"segments"`
	CriticalSegments int              `json:"criticalSegments"`
	AnyCritical      bool             `json:"anyCritical"`
	Policy           string           `json:"policy"`
	AnalyzedAt       time.Time        `json:"analyzedAt"`
}

// Publisher delivers RouteAnalyzed events.
type Publisher interface {
	PublishRouteAnalyzed(ctx context.Context, ev RouteAnalyzed) error
	Close() error
}

// Noop returns a publisher that discards every event.
func Noop() Publisher { return noopPublisher{} }

type noopPublisher struct{}

func (noopPublisher) PublishRouteAnalyzed(context.Context, RouteAnalyzed) error { return nil }
func (noopPublisher) Close() error                                            { return nil }

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures a KafkaPublisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// KafkaPublisher writes events as JSON keyed by request id so retries of one
// request land on the same partition.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

// NewKafkaPublisher builds a publisher backed by a kafka-go Writer.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: at least one kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events: kafka topic is required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, cfg.Topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: w, topic: topic}
}

func (p *KafkaPublisher) PublishRouteAnalyzed(ctx context.Context, ev RouteAnalyzed) error {
	if ev.AnalyzedAt.IsZero() {
		ev.AnalyzedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode RouteAnalyzed: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.RequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("RouteAnalyzed")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
