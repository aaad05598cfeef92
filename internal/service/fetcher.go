package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/pkg/logger"
)

// MixedFetcher 每类内容各发一次有上限的查询
type MixedFetcher struct {
	repo       repository.ContentRepository
	sequential bool
}

// NewMixedFetcher 默认并发查询四类内容；sequential 仅用于基准对比
func NewMixedFetcher(repo repository.ContentRepository, sequential bool) *MixedFetcher {
	return &MixedFetcher{repo: repo, sequential: sequential}
}

type fetchResult struct {
	items []feed.Item
	err   error
}

// FetchCandidates 单类失败时该类按空列表处理并返回 partial=true；
// 全部失败返回 feed.ErrAllSourcesFailed。
func (f *MixedFetcher) FetchCandidates(ctx context.Context, pred feed.Predicate, perTypeLimit int) (feed.Candidates, bool, error) {
	kinds := feed.MixedKinds
	results := make([]fetchResult, len(kinds))

	if f.sequential {
		for i, k := range kinds {
			items, err := f.repo.FindRecent(ctx, k, pred, perTypeLimit)
			results[i] = fetchResult{items: items, err: err}
		}
	} else {
		// 四个查询互不依赖，并发执行；结果按固定下标落位，合并顺序确定
		var wg sync.WaitGroup
		for i, k := range kinds {
			wg.Add(1)
			go func(i int, k feed.Kind) {
				defer wg.Done()
				items, err := f.repo.FindRecent(ctx, k, pred, perTypeLimit)
				results[i] = fetchResult{items: items, err: err}
			}(i, k)
		}
		wg.Wait()
	}

	var (
		c      feed.Candidates
		failed int
	)
	for i, k := range kinds {
		if err := results[i].err; err != nil {
			failed++
			logger.Warn("feed source failed, degrading", zap.String("kind", string(k)), zap.Error(err))
			c.Set(k, []feed.Item{})
			continue
		}
		c.Set(k, results[i].items)
	}
	if failed == len(kinds) {
		logger.Error("all feed sources failed", zap.Int("sources", failed))
		return feed.Candidates{}, false, feed.ErrAllSourcesFailed
	}
	return c, failed > 0, nil
}
