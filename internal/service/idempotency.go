package service

import (
	"encoding/json"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

const idempotencyKeyFmt = "idempotency:order:%d:%s" // userID, clientKey

// Cache 幂等缓存接口。Get 未命中返回空串。
type Cache interface {
	Get(key string) (string, error)
	SetEx(key, value string, ttlSeconds int) error
}

type redisCache struct {
	client radix.Client
}

// NewRedisCache 基于 Redis 的幂等缓存
func NewRedisCache(client radix.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(key string) (string, error) {
	var v string
	if err := c.client.Do(radix.Cmd(&v, "GET", key)); err != nil {
		return "", err
	}
	return v, nil
}

func (c *redisCache) SetEx(key, value string, ttlSeconds int) error {
	return c.client.Do(radix.FlatCmd(nil, "SETEX", key, ttlSeconds, value))
}

// cachedResponse 缓存里保存完整响应体和首次成功的状态码，
// 重放时原样返回，不再执行任何副作用。
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyGuard 按 (userID, 客户端幂等键) 去重下单请求。
// 缓存不可用时放行请求（尽力而为）：单次请求的正确性不依赖缓存，
// 重复提交的防护强度等同于缓存的可用性。
type IdempotencyGuard struct {
	cache      Cache
	ttlSeconds int
}

// NewIdempotencyGuard 创建幂等守卫
func NewIdempotencyGuard(cache Cache, ttlSeconds int) *IdempotencyGuard {
	if ttlSeconds <= 0 {
		ttlSeconds = 86400 // 24 小时
	}
	return &IdempotencyGuard{cache: cache, ttlSeconds: ttlSeconds}
}

// Lookup 命中时返回首次响应体与状态码。未携带幂等键的请求视为全新请求。
func (g *IdempotencyGuard) Lookup(userID int64, key string) (body []byte, status int, ok bool) {
	if key == "" || g.cache == nil {
		return nil, 0, false
	}
	v, err := g.cache.Get(fmt.Sprintf(idempotencyKeyFmt, userID, key))
	if err != nil {
		zap.L().Warn("idempotency cache get failed, proceeding without dedup",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil, 0, false
	}
	if v == "" {
		return nil, 0, false
	}
	var cached cachedResponse
	if err := json.Unmarshal([]byte(v), &cached); err != nil {
		zap.L().Warn("idempotency cache entry corrupted", zap.Error(err))
		return nil, 0, false
	}
	return cached.Body, cached.Status, true
}

// Store 仅在下单成功后调用，失败只记录日志不影响已提交的订单
func (g *IdempotencyGuard) Store(userID int64, key string, status int, body []byte) {
	if key == "" || g.cache == nil {
		return
	}
	v, err := json.Marshal(cachedResponse{Status: status, Body: body})
	if err != nil {
		zap.L().Warn("idempotency cache marshal failed", zap.Error(err))
		return
	}
	if err := g.cache.SetEx(fmt.Sprintf(idempotencyKeyFmt, userID, key), string(v), g.ttlSeconds); err != nil {
		zap.L().Warn("idempotency cache set failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
