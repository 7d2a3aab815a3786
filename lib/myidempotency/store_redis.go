package myidempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checkout:idempotency:"

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(c context.Context, addr string, password string, db int) (*redisStore, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(c, 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("error connecting to redis at %s: %w", addr, err)
	}

	return NewRedisStoreWithClient(client), func() {
		client.Close()
	}, nil
}

func NewRedisStoreWithClient(client *redis.Client) *redisStore {
	return &redisStore{
		client: client,
	}
}

// Reserve uses SETNX so only one instance can claim a key.
func (s *redisStore) Reserve(c context.Context, key string, fingerprint string, ttl time.Duration) (Record, bool, error) {
	record := Record{State: StateInProgress, Fingerprint: fingerprint}
	data, err := json.Marshal(record)
	if err != nil {
		return Record{}, false, err
	}

	reserved, err := s.client.SetNX(c, keyPrefix+key, data, ttl).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("error reserving idempotency key %s: %w", key, err)
	}
	if reserved {
		return record, true, nil
	}

	existing, err := s.client.Get(c, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Reserve(c, key, fingerprint, ttl)
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("error fetching idempotency key %s: %w", key, err)
	}

	err = json.Unmarshal(existing, &record)
	if err != nil {
		return Record{}, false, fmt.Errorf("error parsing idempotency record %s: %w", key, err)
	}
	return record, false, nil
}

func (s *redisStore) Complete(c context.Context, key string, record Record, ttl time.Duration) error {
	record.State = StateCompleted
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	err = s.client.Set(c, keyPrefix+key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("error completing idempotency key %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Release(c context.Context, key string) error {
	err := s.client.Del(c, keyPrefix+key).Err()
	if err != nil {
		return fmt.Errorf("error releasing idempotency key %s: %w", key, err)
	}
	return nil
}
