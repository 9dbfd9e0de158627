package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ripple/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	redisLeafPrefix  = "kv:"
	redisIndexPrefix = "idx:"
	redisEventChan   = "store:events"
)

// RedisStore backs the Store interface with Redis. Leaves are plain keys,
// collection membership lives in sets, atomic updates use WATCH-based
// optimistic transactions, and change events travel over a pub/sub channel
// so every connected process sees every commit.
type RedisStore struct {
	client *redis.Client
	events *fanout
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisStore connects the store to rdb and starts the event dispatcher.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &RedisStore{
		client: rdb,
		events: newFanout(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.dispatch(ctx)
	return s
}

func leafKey(path string) string  { return redisLeafPrefix + path }
func indexKey(path string) string { return redisIndexPrefix + path }

func (s *RedisStore) Read(ctx context.Context, path string) ([]byte, error) {
	v, err := s.client.Get(ctx, leafKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis read %s: %w", path, err)
	}
	return v, nil
}

func (s *RedisStore) Write(ctx context.Context, path string, value []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, leafKey(path), value, 0)
	if parent := Parent(path); parent != "" {
		pipe.SAdd(ctx, indexKey(parent), Key(path))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", path, err)
	}
	return s.announce(ctx, Event{Path: path, Kind: EventPut})
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, leafKey(path))
	if parent := Parent(path); parent != "" {
		pipe.SRem(ctx, indexKey(parent), Key(path))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", path, err)
	}
	if del.Val() == 0 {
		return nil
	}
	return s.announce(ctx, Event{Path: path, Kind: EventDelete})
}

func (s *RedisStore) List(ctx context.Context, path string) (map[string][]byte, error) {
	keys, err := s.client.SMembers(ctx, indexKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", path, err)
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	leafKeys := make([]string, len(keys))
	for i, k := range keys {
		leafKeys[i] = leafKey(Join(path, k))
	}
	values, err := s.client.MGet(ctx, leafKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", path, err)
	}
	for i, v := range values {
		if v == nil {
			continue // index entry raced a delete
		}
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out, nil
}

func (s *RedisStore) AtomicUpdate(ctx context.Context, path string, fn UpdateFn) (int64, error) {
	key := leafKey(path)
	var committed int64

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := tx.Get(ctx, key).Int64()
			if errors.Is(err, redis.Nil) {
				cur = 0
			} else if err != nil {
				return err
			}
			committed = fn(cur)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, committed, 0)
				if parent := Parent(path); parent != "" {
					pipe.SAdd(ctx, indexKey(parent), Key(path))
				}
				return nil
			})
			return err
		}, key)

		if err == nil {
			return committed, s.announce(ctx, Event{Path: path, Kind: EventPut})
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return 0, fmt.Errorf("redis atomic update %s: %w", path, err)
		}

		observability.StoreTxRetries.WithLabelValues("redis").Inc()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(txBackoff(attempt)):
		}
	}
	return 0, fmt.Errorf("atomic update %s: %w", path, ErrRetryExhausted)
}

func (s *RedisStore) Subscribe(prefix string, fn func(Event)) func() {
	return s.events.subscribe(prefix, fn)
}

func (s *RedisStore) Close() error {
	s.cancel()
	<-s.done
	s.events.closeAll()
	return nil
}

// announce publishes the event for every connected process, including this
// one; local subscribers are fed by the dispatcher, not directly, so local
// and remote commits arrive through one ordered stream.
func (s *RedisStore) announce(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, redisEventChan, payload).Err(); err != nil {
		return fmt.Errorf("redis announce %s: %w", ev.Path, err)
	}
	return nil
}

// dispatch pumps pub/sub messages into the local fanout. After any receive
// error it emits a resync event once the channel is re-established, so
// subscribers can rebuild snapshots they may have missed.
func (s *RedisStore) dispatch(ctx context.Context) {
	defer close(s.done)

	sub := s.client.Subscribe(ctx, redisEventChan)
	defer func() { _ = sub.Close() }()

	degraded := false
	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !degraded {
				observability.GlobalLogger.Warn("store push channel lost, retrying",
					"error", err.Error())
			}
			degraded = true
			select {
			case <-ctx.Done():
				return
			case <-time.After(250 * time.Millisecond):
			}
			continue
		}

		if degraded {
			degraded = false
			s.events.publish(Event{Kind: EventResync})
		}

		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			observability.GlobalLogger.Warn("store event decode failed",
				"payload", truncate(msg.Payload, 120), "error", err.Error())
			continue
		}
		s.events.publish(ev)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
