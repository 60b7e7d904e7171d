// Package cache 画廊读缓存；只是加速，不是票数的权威来源
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

const (
	galleryKey    = "gallery:approved"
	galleryGenKey = "gallery:approved:gen"
)

// setIfGen 仅当代数未变时写入，避免失效前读到的旧列表在失效后落盘
var setIfGen = redis.NewScript(`
local cur = redis.call("GET", KEYS[2]) or ""
if cur ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// GalleryCache 缓存不含查看者状态的已通过作品列表。
// Get 未命中时返回当前代数，Set 须带回该代数；期间发生过 Invalidate 则丢弃写入
type GalleryCache interface {
	Get(ctx context.Context) (works []model.WorkView, gen string, ok bool)
	Set(ctx context.Context, gen string, works []model.WorkView)
	Invalidate(ctx context.Context)
}

// RedisGallery 以 JSON 存整页；投票切换与审核后递增代数并删除
type RedisGallery struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisGallery(client *redis.Client, ttl time.Duration) *RedisGallery {
	return &RedisGallery{client: client, ttl: ttl}
}

func (g *RedisGallery) Get(ctx context.Context) ([]model.WorkView, string, bool) {
	vals, err := g.client.MGet(ctx, galleryKey, galleryGenKey).Result()
	if err != nil {
		logger.Warn("gallery cache get failed", zap.Error(err))
		g.misses.Add(1)
		return nil, "", false
	}
	gen, _ := vals[1].(string)
	data, _ := vals[0].(string)
	if data == "" {
		g.misses.Add(1)
		return nil, gen, false
	}
	var out []model.WorkView
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		g.misses.Add(1)
		return nil, gen, false
	}
	g.hits.Add(1)
	return out, gen, true
}

func (g *RedisGallery) Set(ctx context.Context, gen string, works []model.WorkView) {
	payload, err := json.Marshal(works)
	if err != nil {
		return
	}
	keys := []string{galleryKey, galleryGenKey}
	if err := setIfGen.Run(ctx, g.client, keys, gen, payload, g.ttl.Milliseconds()).Err(); err != nil {
		logger.Warn("gallery cache set failed", zap.Error(err))
	}
}

func (g *RedisGallery) Invalidate(ctx context.Context) {
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, galleryGenKey)
		pipe.Del(ctx, galleryKey)
		return nil
	})
	if err != nil {
		logger.Warn("gallery cache invalidate failed", zap.Error(err))
	}
}

// Counters 命中统计
func (g *RedisGallery) Counters() (hits, misses int64) {
	return g.hits.Load(), g.misses.Load()
}

// Noop 未启用 redis 时使用
type Noop struct{}

func (Noop) Get(context.Context) ([]model.WorkView, string, bool) { return nil, "", false }
func (Noop) Set(context.Context, string, []model.WorkView)        {}
func (Noop) Invalidate(context.Context)                           {}
