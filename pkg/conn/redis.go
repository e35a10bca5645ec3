package conn

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
)

// RedisOption defines connection options for Redis.
type RedisOption struct {
	Addr     string
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisClient wraps a Redis connection.
type RedisClient struct {
	opt RedisOption
	rdb *redis.Client
}

// NewRedis creates a Redis client from the provided options.
func NewRedis(option RedisOption) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:     option.addr(),
		Password: option.Password,
		DB:       option.DB,
	})
	return &RedisClient{opt: option, rdb: rdb}
}

// Redis returns the underlying go-redis client.
func (c *RedisClient) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Ping verifies connectivity.
func (c *RedisClient) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (c *RedisClient) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (opt RedisOption) addr() string {
	if opt.Addr != "" {
		return opt.Addr
	}

	host := opt.Host
	if host == "" {
		host = defaultRedisHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultRedisPort
	}

	return fmt.Sprintf("%s:%d", host, port)
}
