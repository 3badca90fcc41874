// internal/notify/kafka.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/javajoker/firenoc-backend/internal/config"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaDispatcher publishes notifications as JSON events for downstream
// consumers such as SMS gateways. Records are keyed by recipient so a
// user's events stay ordered within a partition.
type KafkaDispatcher struct {
	client producer
	topic  string
	now    func() time.Time
}

type kafkaEvent struct {
	Notification
	OccurredAt time.Time `json:"occurred_at"`
}

// NewKafkaClient returns nil when no brokers are configured.
func NewKafkaClient(cfg config.KafkaConfig) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ClientID("firenoc-backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

func NewKafkaDispatcher(client *kgo.Client, topic string) *KafkaDispatcher {
	return newKafkaDispatcher(client, topic, time.Now)
}

func newKafkaDispatcher(client producer, topic string, now func() time.Time) *KafkaDispatcher {
	return &KafkaDispatcher{client: client, topic: topic, now: now}
}

func (d *KafkaDispatcher) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(kafkaEvent{Notification: n, OccurredAt: d.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	key := string(AudienceStaff)
	if n.RecipientID != nil {
		key = n.RecipientID.String()
	}

	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
