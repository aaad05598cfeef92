package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/internal/testutil"
)

func TestPresenceOnlineFriends(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := testutil.NewFixture(t)
	viewer := f.User("viewer", "")
	early := f.User("early", "")
	late := f.User("late", "")
	offline := f.User("offline", "")
	f.Follow(viewer, early)
	f.Follow(viewer, late)
	f.Follow(viewer, offline)

	svc := NewPresenceService(rdb, repository.NewFollowRepository(f.DB), time.Minute)
	ctx := context.Background()

	svc.now = func() time.Time { return f.Minute(0) }
	require.NoError(t, svc.Heartbeat(ctx, early))
	svc.now = func() time.Time { return f.Minute(1) }
	require.NoError(t, svc.Heartbeat(ctx, late))

	online, err := svc.OnlineFriends(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, late, online[0].UserID)
	assert.Equal(t, early, online[1].UserID)
	assert.Equal(t, f.Minute(1), online[0].LastSeen)

	// 轮询只读，结果不变
	again, err := svc.OnlineFriends(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, online, again)

	require.NoError(t, svc.Leave(ctx, late))
	online, err = svc.OnlineFriends(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, early, online[0].UserID)

	mr.FastForward(2 * time.Minute)
	online, err = svc.OnlineFriends(ctx, viewer)
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestPresenceNoFollowees(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := testutil.NewFixture(t)
	svc := NewPresenceService(rdb, repository.NewFollowRepository(f.DB), 0)
	online, err := svc.OnlineFriends(context.Background(), f.User("loner", ""))
	require.NoError(t, err)
	assert.NotNil(t, online)
	assert.Empty(t, online)
}
