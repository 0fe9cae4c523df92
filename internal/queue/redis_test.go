package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/config"
)

func newTestRedisQueue(t *testing.T) Queue {
	t.Helper()
	server := miniredis.RunT(t)
	q, err := New(config.QueueConfig{
		Type: "redis",
		Data: map[string]interface{}{"addr": server.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestRedisQueueRoundTrip(t *testing.T) {
	q := newTestRedisQueue(t)

	first := Message{JobID: "job-1", DocumentID: "doc-1", UserID: "user-1"}
	second := Message{JobID: "job-2", DocumentID: "doc-2", UserID: "user-1"}
	require.NoError(t, q.Enqueue(context.Background(), first))
	require.NoError(t, q.Enqueue(context.Background(), second))

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, got)

	got, err = q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestRedisQueueDequeueCancellation(t *testing.T) {
	q := newTestRedisQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRedisQueueMissingAddr(t *testing.T) {
	_, err := New(config.QueueConfig{Type: "redis"})
	require.Error(t, err)
}
