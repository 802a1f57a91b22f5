package relay

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twmb/franz-go/pkg/kgo"

	"contractpay/pkg/platform/audit"
)

// Producer is the part of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink writes one record per event, keyed by entity so events about the
// same record stay ordered within a partition.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, events []audit.ComplianceEvent) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return eris.Wrapf(err, "kafka: encode compliance event %s", e.ID)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(string(e.EntityType) + ":" + e.EntityID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "category", Value: []byte(e.Category)},
			},
		})
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return eris.Wrap(err, "kafka: produce compliance events")
	}
	return nil
}
