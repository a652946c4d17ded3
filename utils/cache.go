package utils

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

const (
	defaultCacheTTL = time.Hour
)

// UserCacheKey is the cache key for a public user profile.
func UserCacheKey(id uint) string {
	return "user:profile:" + strconv.FormatUint(uint64(id), 10)
}

// CacheGetJSON loads key into v. It reports false on a miss, a decode error or when Redis is off.
func CacheGetJSON(ctx context.Context, key string, v interface{}) bool {
	rc := GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		Sugar.Warnf("cache decode failed key=%s err=%v", key, err)
		return false
	}
	return true
}

// CacheSetJSON marshals v and stores it under key; ttl <= 0 uses the default of one hour.
func CacheSetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// CacheDelete drops keys from the cache.
func CacheDelete(ctx context.Context, keys ...string) {
	rc := GetRedis()
	if rc == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, keys...).Err(); err != nil {
		Sugar.Warnf("cache delete failed keys=%v err=%v", keys, err)
	}
}
