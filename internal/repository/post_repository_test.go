package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/testutil"
)

func TestPostFindPageKeyset(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewPostRepository(f.DB)
	ctx := context.Background()

	s1 := f.School("North")
	u := f.User("u", s1)
	var all []string
	for i := 0; i < 7; i++ {
		all = append([]string{f.Post(u, f.Minute(i), false)}, all...)
	}
	pred := feed.Predicate{SchoolID: strPtr(s1)}

	first, cursor, err := repo.FindPage(ctx, pred, "", 5)
	require.NoError(t, err)
	assert.Equal(t, all[:5], itemIDs(first))
	assert.Equal(t, all[4], cursor)

	second, cursor, err := repo.FindPage(ctx, pred, cursor, 5)
	require.NoError(t, err)
	assert.Equal(t, all[5:], itemIDs(second))
	assert.Empty(t, cursor)

	boundary := feed.HeaderOf(first[len(first)-1]).CreatedAt
	for _, it := range second {
		assert.True(t, feed.HeaderOf(it).CreatedAt.Before(boundary))
	}
}

func TestPostFindPageExactMultipleHasNoDanglingCursor(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewPostRepository(f.DB)

	s1 := f.School("North")
	u := f.User("u", s1)
	for i := 0; i < 5; i++ {
		f.Post(u, f.Minute(i), false)
	}
	items, cursor, err := repo.FindPage(context.Background(), feed.Predicate{SchoolID: strPtr(s1)}, "", 5)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Empty(t, cursor)
}

func TestPostFindPageSkipsHiddenAndOutOfScope(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewPostRepository(f.DB)

	s1 := f.School("North")
	s2 := f.School("South")
	local := f.User("local", s1)
	remote := f.User("remote", s2)
	visible := f.Post(local, f.Minute(1), false)
	f.Post(local, f.Minute(2), true)
	f.Post(remote, f.Minute(3), false)

	items, _, err := repo.FindPage(context.Background(), feed.Predicate{SchoolID: strPtr(s1)}, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{visible}, itemIDs(items))
	assert.Equal(t, feed.KindPost, items[0].Kind())
}

func TestPostFindPageInvalidCursor(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewPostRepository(f.DB)

	s1 := f.School("North")
	_, _, err := repo.FindPage(context.Background(), feed.Predicate{SchoolID: strPtr(s1)}, "nope", 5)
	assert.ErrorIs(t, err, feed.ErrInvalidCursor)
}
