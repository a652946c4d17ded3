package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/autoblog/config"
)

var (
	redisClient *redis.Client
	redisMu     sync.Mutex
	redisInit   bool
)

// GetRedis returns the shared Redis client, or nil when Redis is disabled in configuration.
func GetRedis() *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisInit {
		return redisClient
	}
	redisInit = true

	cfg := config.Get()
	if !cfg.RedisEnabled {
		return nil
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed addr=%s err=%v", redisClient.Options().Addr, err)
	}
	return redisClient
}

// SetRedis installs client as the shared Redis client; nil disables Redis-backed paths.
func SetRedis(client *redis.Client) {
	redisMu.Lock()
	redisClient = client
	redisInit = true
	redisMu.Unlock()
}

// CloseRedis closes the shared client if one was opened.
func CloseRedis() error {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}
