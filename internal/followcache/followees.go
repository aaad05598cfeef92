// Package followcache keeps each user's followee id list in redis so scope
// resolution and presence polling do not hit the follows table on every request.
package followcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/pkg/logger"
)

// 空列表占位，避免没有关注的用户每次都穿透到数据库
const emptyMarker = "-"

// Repository 包装 FollowRepository：ListFolloweeIDs 读缓存，写操作后删除对应 key
type Repository struct {
	repository.FollowRepository
	cache *redis.Client
	ttl   time.Duration

	hits       atomic.Int64
	loads      atomic.Int64
	staleFills atomic.Int64
}

func New(inner repository.FollowRepository, cache *redis.Client, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Repository{FollowRepository: inner, cache: cache, ttl: ttl}
}

func key(userID string) string { return fmt.Sprintf("followees:%s", userID) }

// genKey 每次写操作自增；回填只在读库前后代数一致时落地
func genKey(userID string) string { return fmt.Sprintf("followees:gen:%s", userID) }

const genTTL = 24 * time.Hour

func (r *Repository) Create(ctx context.Context, followerID, followeeID string) error {
	if err := r.FollowRepository.Create(ctx, followerID, followeeID); err != nil {
		return err
	}
	r.invalidate(ctx, followerID)
	return nil
}

func (r *Repository) Delete(ctx context.Context, followerID, followeeID string) error {
	if err := r.FollowRepository.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}
	r.invalidate(ctx, followerID)
	return nil
}

// ListFolloweeIDs 缓存不可用时直接回源，不把 redis 错误暴露给调用方
func (r *Repository) ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	ids, err := r.cache.LRange(ctx, key(followerID), 0, -1).Result()
	switch {
	case err == nil && len(ids) > 0:
		r.hits.Add(1)
		if len(ids) == 1 && ids[0] == emptyMarker {
			return []string{}, nil
		}
		return ids, nil
	case err != nil && !errors.Is(err, redis.Nil):
		logger.Warn("followee cache read failed", zap.String("user", followerID), zap.Error(err))
	}

	// 先取代数再读库，读库期间发生的写操作会使本次回填作废
	gen, genErr := r.generation(ctx, followerID)
	r.loads.Add(1)
	ids, err = r.FollowRepository.ListFolloweeIDs(ctx, followerID)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		r.store(ctx, followerID, gen, ids)
	}
	return ids, nil
}

func (r *Repository) generation(ctx context.Context, userID string) (string, error) {
	gen, err := r.cache.Get(ctx, genKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (r *Repository) store(ctx context.Context, userID, gen string, ids []string) {
	values := interfaceSlice(ids)
	if len(values) == 0 {
		values = []interface{}{emptyMarker}
	}
	k, gk := key(userID), genKey(userID)
	err := r.cache.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Result()
		if errors.Is(err, redis.Nil) {
			cur = "0"
		} else if err != nil {
			return err
		}
		if cur != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			pipe.RPush(ctx, k, values...)
			pipe.Expire(ctx, k, r.ttl)
			return nil
		})
		return err
	}, gk)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		r.staleFills.Add(1)
		logger.Debug("followee cache fill skipped, list changed during load", zap.String("user", userID))
	case err != nil:
		logger.Warn("followee cache write failed", zap.String("user", userID), zap.Error(err))
	}
}

func (r *Repository) invalidate(ctx context.Context, userID string) {
	gk := genKey(userID)
	pipe := r.cache.TxPipeline()
	pipe.Incr(ctx, gk)
	pipe.Expire(ctx, gk, genTTL)
	pipe.Del(ctx, key(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("followee cache invalidate failed", zap.String("user", userID), zap.Error(err))
	}
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}

// Counters 缓存命中、回源次数，以及因并发写入被放弃的回填次数
type Counters struct {
	Hits       int64
	Loads      int64
	StaleFills int64
}

func (r *Repository) Counters() Counters {
	return Counters{Hits: r.hits.Load(), Loads: r.loads.Load(), StaleFills: r.staleFills.Load()}
}
