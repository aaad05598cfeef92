package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/pkg/logger"
)

// FeedOptions 各信息流变体的页大小与每类条数上限
type FeedOptions struct {
	DiscussionPageSize       int
	DiscussionPerTypeLimit   int
	PersonalizedPageSize     int
	PersonalizedPerTypeLimit int
	MediaPageSize            int
	MediaMaxPageSize         int
	TrendingWindow           time.Duration
}

func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		DiscussionPageSize:       20,
		DiscussionPerTypeLimit:   10,
		PersonalizedPageSize:     20,
		PersonalizedPerTypeLimit: 5,
		MediaPageSize:            10,
		MediaMaxPageSize:         50,
		TrendingWindow:           72 * time.Hour,
	}
}

// FeedService 只读聚合：不写任何仓储，也不保存跨请求状态
type FeedService interface {
	// DiscussionFeed 混合流（同校或所选课程），不分页
	DiscussionFeed(ctx context.Context, scope feed.Scope) (feed.Page, error)
	// PersonalizedFeed 混合流（关注、同校或所选课程），不分页；trending 只取时间窗内内容
	PersonalizedFeed(ctx context.Context, scope feed.Scope, mode feed.FilterMode) (feed.Page, error)
	// MediaFeed 短视频流，keyset 分页；limit<=0 使用默认页大小
	MediaFeed(ctx context.Context, scope feed.Scope, cursor string, limit int) (feed.Page, error)
}

type feedService struct {
	fetcher *MixedFetcher
	posts   repository.PostRepository
	opts    FeedOptions
	now     func() time.Time
}

func NewFeedService(fetcher *MixedFetcher, posts repository.PostRepository, opts FeedOptions) FeedService {
	return &feedService{fetcher: fetcher, posts: posts, opts: opts, now: time.Now}
}

func (s *feedService) DiscussionFeed(ctx context.Context, scope feed.Scope) (feed.Page, error) {
	pred := scope.Predicate(feed.VariantDiscussion)
	return s.mixed(ctx, scope, pred, s.opts.DiscussionPerTypeLimit, s.opts.DiscussionPageSize)
}

func (s *feedService) PersonalizedFeed(ctx context.Context, scope feed.Scope, mode feed.FilterMode) (feed.Page, error) {
	pred := scope.Predicate(feed.VariantPersonalized)
	if mode == feed.FilterTrending {
		pred = pred.WithSince(s.now().UTC().Add(-s.opts.TrendingWindow))
	}
	return s.mixed(ctx, scope, pred, s.opts.PersonalizedPerTypeLimit, s.opts.PersonalizedPageSize)
}

func (s *feedService) mixed(ctx context.Context, scope feed.Scope, pred feed.Predicate, perTypeLimit, pageSize int) (feed.Page, error) {
	// 范围为空是合法状态：返回空页，不回退到全站内容
	if pred.IsEmpty() {
		return feed.EmptyPage(), nil
	}

	candidates, partial, err := s.fetcher.FetchCandidates(ctx, pred, perTypeLimit)
	if err != nil {
		return feed.Page{}, err
	}
	page := feed.Merge(candidates, pageSize)
	page.Items = feed.Filter(page.Items, pred)
	page.Partial = partial

	logger.Debug("mixed feed built",
		zap.String("viewer", scope.ViewerID()),
		zap.Int("candidates", candidates.Len()),
		zap.Int("items", len(page.Items)),
		zap.Bool("partial", partial),
	)
	return page, nil
}

func (s *feedService) MediaFeed(ctx context.Context, scope feed.Scope, cursor string, limit int) (feed.Page, error) {
	if limit <= 0 {
		limit = s.opts.MediaPageSize
	}
	if limit > s.opts.MediaMaxPageSize {
		limit = s.opts.MediaMaxPageSize
	}

	pred := scope.Predicate(feed.VariantMedia)
	if pred.IsEmpty() {
		return feed.EmptyPage(), nil
	}
	items, next, err := s.posts.FindPage(ctx, pred, cursor, limit)
	if err != nil {
		return feed.Page{}, err
	}
	return feed.Page{Items: items, NextCursor: next}, nil
}
