//go:build integration

package statusfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/runshine/secflow-console/pkg/models"
	"github.com/runshine/secflow-console/pkg/persistence/file"
)

func setupRedis(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestConsumer_AppliesStreamReports(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	p := file.NewPersistence(t.TempDir())
	seedInstance(t, p)

	syncer := NewSyncer(p, nil, testLogger(), nil)
	consumer := NewConsumer(ConsumerConfig{Addr: addr}, syncer, testLogger())
	require.NoError(t, consumer.Start(ctx))

	t.Cleanup(func() {
		require.NoError(t, consumer.Stop(context.Background()))
	})

	producer := redis.NewClient(&redis.Options{Addr: addr})
	defer producer.Close()

	// One valid report sandwiched between poison entries. Both poison
	// entries must be acked and dropped without stalling the group.
	payloads := []string{
		"not json at all",
		string(report(t, StatusReport{
			InstanceID: "inst-1", NodeID: "scanner-1", Status: models.NodeStatusRunning,
		})),
		string(report(t, StatusReport{
			InstanceID: "inst-1", NodeID: "scanner-1", Status: models.NodeStatusPending,
		})),
	}

	for _, payload := range payloads {
		err := producer.XAdd(ctx, &redis.XAddArgs{
			Stream: DefaultStream,
			Values: map[string]any{payloadField: payload},
		}).Err()
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		loaded, err := p.InstanceByID(ctx, "inst-1")

		return err == nil && loaded.NodeByNodeID("scanner-1").Status == models.NodeStatusRunning
	}, 10*time.Second, 100*time.Millisecond)

	require.Eventually(t, func() bool {
		pending, err := producer.XPending(ctx, DefaultStream, DefaultGroup).Result()

		return err == nil && pending.Count == 0
	}, 10*time.Second, 100*time.Millisecond, "poison entries must be acked, not redelivered")
}

func TestConsumer_StorageFailureLeavesEntryPending(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	p := file.NewPersistence(t.TempDir())
	// No instance seeded, so applying the report fails at the store.

	syncer := NewSyncer(p, nil, testLogger(), nil)
	consumer := NewConsumer(ConsumerConfig{Addr: addr}, syncer, testLogger())
	require.NoError(t, consumer.Start(ctx))

	t.Cleanup(func() {
		require.NoError(t, consumer.Stop(context.Background()))
	})

	producer := redis.NewClient(&redis.Options{Addr: addr})
	defer producer.Close()

	payload, err := json.Marshal(StatusReport{
		InstanceID: "inst-1", NodeID: "scanner-1", Status: models.NodeStatusRunning,
	})
	require.NoError(t, err)

	err = producer.XAdd(ctx, &redis.XAddArgs{
		Stream: DefaultStream,
		Values: map[string]any{payloadField: string(payload)},
	}).Err()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pending, err := producer.XPending(ctx, DefaultStream, DefaultGroup).Result()

		return err == nil && pending.Count == 1
	}, 10*time.Second, 100*time.Millisecond)
}
