package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "userData"

type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: client,
		key:    key,
	}
}

// ConnectRedis opens a client and checks that the server answers.
func ConnectRedis(ctx context.Context, address, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", address, err)
	}

	return client, nil
}

func (s *RedisStore) Load(ctx context.Context) (*UserData, error) {
	contents, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var data UserData
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("decoding redis key %s: %w", s.key, err)
	}

	return &data, nil
}

func (s *RedisStore) Save(ctx context.Context, data *UserData) error {
	contents, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key, contents, 0).Err()
}
