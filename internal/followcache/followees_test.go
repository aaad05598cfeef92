package followcache

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/internal/testutil"
)

func newCache(t *testing.T) (*testutil.Fixture, *Repository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := testutil.NewFixture(t)
	return f, New(repository.NewFollowRepository(f.DB), rdb, 0), mr
}

func TestListFolloweeIDsCaches(t *testing.T) {
	f, repo, _ := newCache(t)
	ctx := context.Background()
	a := f.User("a", "")
	b := f.User("b", "")
	c := f.User("c", "")
	f.Follow(a, b)

	ids, err := repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)

	ids, err = repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)
	assert.Equal(t, Counters{Hits: 1, Loads: 1}, repo.Counters())

	// 写操作后缓存失效
	require.NoError(t, repo.Create(ctx, a, c))
	ids, err = repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b, c}, ids)
	assert.Equal(t, int64(2), repo.Counters().Loads)

	require.NoError(t, repo.Delete(ctx, a, b))
	ids, err = repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{c}, ids)
}

func TestEmptyListIsCached(t *testing.T) {
	f, repo, _ := newCache(t)
	ctx := context.Background()
	loner := f.User("loner", "")

	for i := 0; i < 3; i++ {
		ids, err := repo.ListFolloweeIDs(ctx, loner)
		require.NoError(t, err)
		assert.Empty(t, ids)
	}
	assert.Equal(t, Counters{Hits: 2, Loads: 1}, repo.Counters())
}

func TestRedisDownFallsBackToDB(t *testing.T) {
	f, repo, mr := newCache(t)
	a := f.User("a", "")
	b := f.User("b", "")
	f.Follow(a, b)
	mr.Close()

	ids, err := repo.ListFolloweeIDs(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)
}

// midLoadRepo 在读库之后、回填之前执行一次 hook，模拟读写交错
type midLoadRepo struct {
	repository.FollowRepository
	once sync.Once
	hook func()
}

func (r *midLoadRepo) ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	ids, err := r.FollowRepository.ListFolloweeIDs(ctx, followerID)
	r.once.Do(func() {
		if r.hook != nil {
			r.hook()
		}
	})
	return ids, err
}

func TestFollowDuringLoadDoesNotCacheStaleList(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := testutil.NewFixture(t)
	ctx := context.Background()

	a := f.User("a", "")
	b := f.User("b", "")
	c := f.User("c", "")
	f.Follow(a, b)

	inner := &midLoadRepo{FollowRepository: repository.NewFollowRepository(f.DB)}
	repo := New(inner, rdb, 0)
	inner.hook = func() { require.NoError(t, repo.Create(ctx, a, c)) }

	// 这次读取拿到的是写入前的列表
	ids, err := repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)
	assert.Equal(t, int64(1), repo.Counters().StaleFills)
	assert.False(t, mr.Exists(key(a)))

	ids, err = repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b, c}, ids)

	// 代数稳定后回填正常落地
	ids, err = repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b, c}, ids)
	assert.Equal(t, Counters{Hits: 1, Loads: 2, StaleFills: 1}, repo.Counters())
}
