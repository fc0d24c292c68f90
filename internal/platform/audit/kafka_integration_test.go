//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"recoveryregister/internal/platform/audit"
	"recoveryregister/pkg/requestcontext"
	"recoveryregister/pkg/testutil/containers"
)

const testTopic = "registration.audit"

func TestKafkaPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	kafka := containers.NewKafkaContainer(t)

	publisher, err := audit.NewKafkaPublisher([]string{kafka.Broker}, testTopic)
	require.NoError(t, err)
	defer publisher.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	err = publisher.Publish(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionLoginSucceeded,
		UserID:   7,
	})
	require.NoError(t, err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kafka.Broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "req-42", string(records[0].Key))

	var event audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &event))
	require.Equal(t, audit.ActionLoginSucceeded, event.Action)
	require.Equal(t, int64(7), event.UserID)
	require.Equal(t, "req-42", event.RequestID)
	require.False(t, event.Timestamp.IsZero())
}
