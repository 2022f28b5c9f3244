package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"sentra/internal/domain"
)

// KafkaSink publishes audit records to a Kafka (or Redpanda) topic. Records
// are keyed by principal so one principal's history lands on one partition
// in order; producing waits for all in-sync replicas before acknowledging,
// which is the durability guarantee the recorder relies on.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka audit sink: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

// wireRecord is the JSON payload published to the topic.
type wireRecord struct {
	ID                string  `json:"id"`
	Sequence          uint64  `json:"sequence"`
	PrincipalID       string  `json:"principal_id"`
	DecisionID        string  `json:"decision_id"`
	Verdict           string  `json:"verdict"`
	Reason            string  `json:"reason"`
	Resource          string  `json:"resource"`
	PolicyVersion     string  `json:"policy_version"`
	RiskScore         float64 `json:"risk_score"`
	InputsFingerprint string  `json:"inputs_fingerprint"`
	Severity          string  `json:"severity"`
	DeliveryFailed    bool    `json:"delivery_failed"`
	RecordedAt        string  `json:"recorded_at"`
}

// Append produces the record synchronously and returns once the brokers
// acknowledge the write.
func (s *KafkaSink) Append(ctx context.Context, record domain.AuditRecord) error {
	payload, err := json.Marshal(wireRecord{
		ID:                record.ID,
		Sequence:          record.Sequence,
		PrincipalID:       record.PrincipalID,
		DecisionID:        record.DecisionID,
		Verdict:           string(record.Verdict),
		Reason:            string(record.Reason),
		Resource:          record.Resource,
		PolicyVersion:     record.PolicyVersion,
		RiskScore:         record.RiskScore,
		InputsFingerprint: record.InputsFingerprint,
		Severity:          string(record.Severity),
		DeliveryFailed:    record.DeliveryFailed,
		RecordedAt:        record.RecordedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	result := s.client.ProduceSync(ctx, &kgo.Record{
		Key:   []byte(record.PrincipalID),
		Value: payload,
	})
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
