package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient holds the Redis client connection.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to Redis at addr and pings it.
func NewRedisClient(addr, password string) (*RedisClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Successfully connected to Redis! Ping response: %s", pong)

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		log.Println("Redis connection closed.")
	}
}

// GetClient returns the underlying *redis.Client instance.
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
