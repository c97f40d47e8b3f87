package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techroy23/Socksy-Dashboard/internal/stats"
)

const redisKeyPrefix = "socksy:stats:"

// RedisStore keeps one JSON record per proxy address. Optimistic writes use
// WATCH: the transaction aborts when another client touches the key between
// read and write, which surfaces as ErrConflict.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, addr string) (*stats.ProxyStats, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+addr).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec stats.ProxyStats
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return &rec, nil
}

func (r *RedisStore) Put(ctx context.Context, rec *stats.ProxyStats) error {
	key := redisKeyPrefix + rec.Address
	expect := rec.Version

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if expect != 0 {
				return ErrConflict
			}
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			var stored stats.ProxyStats
			if err := json.Unmarshal([]byte(data), &stored); err != nil {
				return fmt.Errorf("unmarshal JSON: %w", err)
			}
			if stored.Version != expect {
				return ErrConflict
			}
		}

		next := *rec
		next.Version = expect + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrConflict
		}
		return err
	}
	rec.Version = expect + 1
	return nil
}

func (r *RedisStore) All(ctx context.Context) ([]stats.ProxyStats, error) {
	var out []stats.ProxyStats

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // deleted between scan and get
			}
			return nil, fmt.Errorf("redis get: %w", err)
		}
		var rec stats.ProxyStats
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal JSON: %w", err)
		}
		out = append(out, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

func (r *RedisStore) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
