package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "meshmind:ingest:jobs"

type redisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Key      string `json:"key"`
}

type redisQueue struct {
	client *redis.Client
	key    string
}

func init() {
	Register("redis", newRedisQueue)
}

func newRedisQueue(args interface{}) (Queue, error) {
	cfg := &redisConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis queue: addr is required")
	}
	if cfg.Key == "" {
		cfg.Key = defaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis queue: ping: %w", err)
	}
	return &redisQueue{client: client, key: cfg.Key}, nil
}

func (q *redisQueue) Type() string {
	return "redis"
}

func (q *redisQueue) Enqueue(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis queue: encode message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis queue: push: %w", err)
	}
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		res, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("redis queue: pop: %w", err)
		}
		if len(res) != 2 {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			return Message{}, fmt.Errorf("redis queue: decode message: %w", err)
		}
		return msg, nil
	}
}

func (q *redisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}
