package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads the catalog JSON document from a single Redis key. The
// key is fetched on every Load, so whatever publishes the catalog (a config
// service, a deploy job) takes effect on the next request.
type RedisSource struct {
	client *redis.Client
	key    string
}

func NewRedisSource(client *redis.Client, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

func (s *RedisSource) Load(ctx context.Context) (*Catalog, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &StorageError{Op: "get " + s.key, Err: fmt.Errorf("catalog key does not exist")}
	}
	if err != nil {
		return nil, &StorageError{Op: "get " + s.key, Err: err}
	}

	c, err := parseCatalog(data)
	if err != nil {
		return nil, &StorageError{Op: "parse " + s.key, Err: err}
	}
	return c, nil
}
