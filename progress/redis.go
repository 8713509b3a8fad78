package progress

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"watcher/tasks"
)

// RedisStore keeps the queue JSON under a single key. When the key does not exist yet,
// Seed (usually the JSON file store) provides the initial queue. Mirror, when set,
// receives a copy of every save so the file stays current if the backend is switched
// back.
type RedisStore struct {
	client   *redis.Client
	key      string
	Seed     Store
	Mirror   Store
	Exporter Exporter
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]tasks.VideoTask, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		if s.Seed == nil {
			return nil, fmt.Errorf("%w: redis key %s", ErrNotFound, s.key)
		}
		log.Printf("📥 Redis key %s is empty, seeding queue", s.key)
		return s.Seed.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load queue from redis: %w", err)
	}
	return decodeQueue(data)
}

func (s *RedisStore) Save(ctx context.Context, queue []tasks.VideoTask) error {
	data, err := encodeQueue(queue)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save queue to redis: %w", err)
	}
	if s.Mirror != nil {
		if err := s.Mirror.Save(ctx, queue); err != nil {
			log.Printf("⚠️  Mirror save failed, redis key %s is current: %v", s.key, err)
		}
	}
	export(s.Exporter, queue)
	return nil
}
