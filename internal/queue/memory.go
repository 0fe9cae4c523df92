package queue

import (
	"context"
	"fmt"
	"sync"
)

type memoryConfig struct {
	Capacity int `json:"capacity"`
}

// memoryQueue is a process-local queue for single-instance deployments
// and tests. Jobs in flight are lost on restart; the stale job reaper
// picks them up later.
type memoryQueue struct {
	ch        chan Message
	closeOnce sync.Once
	done      chan struct{}
}

func init() {
	Register("memory", newMemoryQueue)
}

func newMemoryQueue(args interface{}) (Queue, error) {
	cfg := &memoryConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 256
	}
	return &memoryQueue{
		ch:   make(chan Message, cfg.Capacity),
		done: make(chan struct{}),
	}, nil
}

func (q *memoryQueue) Type() string {
	return "memory"
}

func (q *memoryQueue) Enqueue(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-q.done:
		return fmt.Errorf("memory queue: closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.done:
		return Message{}, fmt.Errorf("memory queue: closed")
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (q *memoryQueue) Ping(ctx context.Context) error {
	select {
	case <-q.done:
		return fmt.Errorf("memory queue: closed")
	default:
		return nil
	}
}

func (q *memoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}
