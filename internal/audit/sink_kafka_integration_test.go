//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"sentra/internal/audit"
	"sentra/pkg/testutil/containers"
)

const auditTopic = "access-decisions"

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *audit.KafkaSink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
	s.Require().NoError(s.redpanda.CreateTopic(context.Background(), auditTopic))

	sink, err := audit.NewKafkaSink([]string{s.redpanda.Broker}, auditTopic)
	s.Require().NoError(err)
	s.sink = sink
	s.T().Cleanup(sink.Close)
}

func (s *KafkaSinkSuite) TestAppendPublishesKeyedRecord() {
	ctx := context.Background()

	record := auditFixture("p1", 1)
	s.Require().NoError(s.sink.Append(ctx, record))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(auditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("p1", string(records[0].Key))

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(records[0].Value, &payload))
	s.Equal(record.ID, payload["id"])
	s.Equal("denied", payload["verdict"])
	s.Equal("policy_denied", payload["reason"])
	s.Equal(float64(1), payload["sequence"])
}
