package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/internal/testutil"
)

type feedEnv struct {
	f        *testutil.Fixture
	resolver ScopeResolver
	content  repository.ContentRepository
	svc      *feedService
}

func newFeedEnv(t *testing.T) *feedEnv {
	t.Helper()
	f := testutil.NewFixture(t)
	content := repository.NewContentRepository(f.DB)
	svc := NewFeedService(NewMixedFetcher(content, false), repository.NewPostRepository(f.DB), DefaultFeedOptions()).(*feedService)
	svc.now = func() time.Time { return f.Minute(24 * 60) }
	return &feedEnv{
		f:        f,
		resolver: NewScopeResolver(repository.NewUserRepository(f.DB), repository.NewEnrollmentRepository(f.DB), repository.NewFollowRepository(f.DB)),
		content:  content,
		svc:      svc,
	}
}

func (e *feedEnv) scope(t *testing.T, viewerID string) feed.Scope {
	t.Helper()
	s, err := e.resolver.Resolve(context.Background(), viewerID)
	require.NoError(t, err)
	return s
}

func pageIDs(p feed.Page) []string {
	out := make([]string, len(p.Items))
	for i, it := range p.Items {
		out[i] = feed.HeaderOf(it).ID
	}
	return out
}

func assertNewestFirst(t *testing.T, p feed.Page) {
	t.Helper()
	for i := 1; i < len(p.Items); i++ {
		assert.False(t, feed.HeaderOf(p.Items[i]).CreatedAt.After(feed.HeaderOf(p.Items[i-1]).CreatedAt))
	}
}

func TestResolveScope(t *testing.T) {
	e := newFeedEnv(t)
	ctx := context.Background()

	s1 := e.f.School("North")
	c1 := e.f.Course(s1, "CS101")
	c2 := e.f.Course(s1, "CS102")
	viewer := e.f.User("viewer", s1)
	friend := e.f.User("friend", "")
	e.f.Enroll(viewer, c1, true)
	e.f.Enroll(viewer, c2, false)
	e.f.Follow(viewer, friend)

	scope, err := e.resolver.Resolve(ctx, viewer)
	require.NoError(t, err)
	school, ok := scope.SchoolID()
	assert.True(t, ok)
	assert.Equal(t, s1, school)
	assert.Equal(t, []string{c1}, scope.CourseIDs())
	assert.True(t, scope.Follows(friend))

	_, err = e.resolver.Resolve(ctx, "")
	assert.ErrorIs(t, err, feed.ErrUnauthenticated)
	_, err = e.resolver.Resolve(ctx, "ghost")
	assert.ErrorIs(t, err, feed.ErrUnauthenticated)
}

// 四类内容各 3 条可见、时间间隔 1 分钟 -> 讨论流返回 12 条且按时间倒序
func TestDiscussionFeedMergesAllKinds(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)

	var want []string
	for i := 0; i < 3; i++ {
		base := i * 4
		want = append([]string{
			e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(base + 3)}),
			e.f.Review(testutil.Content{AuthorID: author, At: e.f.Minute(base + 2)}),
			e.f.Bounty(testutil.Content{AuthorID: author, At: e.f.Minute(base + 1)}),
			e.f.Resource(testutil.Content{AuthorID: author, At: e.f.Minute(base)}),
		}, want...)
	}

	page, err := e.svc.DiscussionFeed(context.Background(), e.scope(t, viewer))
	require.NoError(t, err)
	require.Len(t, page.Items, 12)
	assert.Equal(t, want, pageIDs(page))
	assertNewestFirst(t, page)
	assert.Empty(t, page.NextCursor)
	assert.False(t, page.Partial)
}

func TestDiscussionFeedExcludesHidden(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)

	older := e.f.Review(testutil.Content{AuthorID: author, At: e.f.Minute(1)})
	hidden := e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(10), Hidden: true})

	page, err := e.svc.DiscussionFeed(context.Background(), e.scope(t, viewer))
	require.NoError(t, err)
	assert.Equal(t, []string{older}, pageIDs(page))
	assert.NotContains(t, pageIDs(page), hidden)
}

func TestDiscussionFeedPageSizeAndIdempotence(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)
	for i := 0; i < 15; i++ {
		e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(i)})
		e.f.Resource(testutil.Content{AuthorID: author, At: e.f.Minute(i)})
	}

	scope := e.scope(t, viewer)
	first, err := e.svc.DiscussionFeed(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, first.Items, 20)
	assertNewestFirst(t, first)

	second, err := e.svc.DiscussionFeed(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, pageIDs(first), pageIDs(second))
}

// 只有学校、无关注无选课 -> 个性化流只含同校作者的内容
func TestPersonalizedFeedSchoolOnly(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	s2 := e.f.School("South")
	viewer := e.f.User("viewer", s1)
	local := e.f.User("local", s1)
	remote := e.f.User("remote", s2)

	a := e.f.Thread(testutil.Content{AuthorID: local, At: e.f.Minute(1)})
	b := e.f.Bounty(testutil.Content{AuthorID: local, At: e.f.Minute(2)})
	e.f.Thread(testutil.Content{AuthorID: remote, At: e.f.Minute(3)})
	e.f.Resource(testutil.Content{AuthorID: remote, At: e.f.Minute(4)})

	page, err := e.svc.PersonalizedFeed(context.Background(), e.scope(t, viewer), feed.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, pageIDs(page))
	for _, it := range page.Items {
		h := feed.HeaderOf(it)
		require.NotNil(t, h.AuthorSchoolID)
		assert.Equal(t, s1, *h.AuthorSchoolID)
	}
}

func TestPersonalizedFeedEveryItemInScope(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	s2 := e.f.School("South")
	course := e.f.Course(s2, "MATH200")
	viewer := e.f.User("viewer", s1)
	friend := e.f.User("friend", s2)
	classmate := e.f.User("classmate", s2)
	stranger := e.f.User("stranger", s2)
	e.f.Follow(viewer, friend)
	e.f.Enroll(viewer, course, true)

	e.f.Thread(testutil.Content{AuthorID: friend, At: e.f.Minute(1)})
	e.f.Review(testutil.Content{AuthorID: classmate, CourseID: course, At: e.f.Minute(2)})
	e.f.Thread(testutil.Content{AuthorID: stranger, At: e.f.Minute(3)})

	scope := e.scope(t, viewer)
	page, err := e.svc.PersonalizedFeed(context.Background(), scope, feed.FilterAll)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, it := range page.Items {
		h := feed.HeaderOf(it)
		followed := scope.Follows(h.AuthorID)
		enrolled := h.CourseID != nil && scope.EnrolledIn(*h.CourseID)
		assert.True(t, followed || enrolled)
	}
}

func TestPersonalizedFeedTrendingWindow(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)

	// now = Minute(1440)，窗口 72h
	old := e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(1440 - 73*60)})
	fresh := e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(1440 - 60)})

	scope := e.scope(t, viewer)
	all, err := e.svc.PersonalizedFeed(context.Background(), scope, feed.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh, old}, pageIDs(all))

	trending, err := e.svc.PersonalizedFeed(context.Background(), scope, feed.FilterTrending)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, pageIDs(trending))
}

// 无学校、无选课、无关注 -> 空列表而非错误
func TestEmptyScopeYieldsEmptyFeeds(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("loner", "")
	author := e.f.User("author", s1)
	e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(1)})
	e.f.Post(author, e.f.Minute(1), false)

	scope := e.scope(t, viewer)
	require.True(t, scope.IsEmpty())
	ctx := context.Background()

	p, err := e.svc.PersonalizedFeed(ctx, scope, feed.FilterAll)
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)

	p, err = e.svc.DiscussionFeed(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, p.Items)

	p, err = e.svc.MediaFeed(ctx, scope, "", 0)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Empty(t, p.NextCursor)
}

// 页大小 5、共 7 条 -> 第一页 5 条 + 游标，第二页 2 条 + 空游标
func TestMediaFeedPagination(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)
	for i := 0; i < 7; i++ {
		e.f.Post(author, e.f.Minute(i), false)
	}
	scope := e.scope(t, viewer)
	ctx := context.Background()

	first, err := e.svc.MediaFeed(ctx, scope, "", 5)
	require.NoError(t, err)
	require.Len(t, first.Items, 5)
	require.NotEmpty(t, first.NextCursor)
	assertNewestFirst(t, first)

	second, err := e.svc.MediaFeed(ctx, scope, first.NextCursor, 5)
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)

	seen := map[string]bool{}
	for _, id := range append(pageIDs(first), pageIDs(second)...) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}

	_, err = e.svc.MediaFeed(ctx, scope, "bogus", 5)
	assert.ErrorIs(t, err, feed.ErrInvalidCursor)
}

func TestMediaFeedClampsLimit(t *testing.T) {
	e := newFeedEnv(t)
	e.svc.opts.MediaMaxPageSize = 3
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	for i := 0; i < 5; i++ {
		e.f.Post(viewer, e.f.Minute(i), false)
	}
	page, err := e.svc.MediaFeed(context.Background(), e.scope(t, viewer), "", 100)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.NotEmpty(t, page.NextCursor)
}

func TestModerationTakesEffectOnNextFetch(t *testing.T) {
	e := newFeedEnv(t)
	s1 := e.f.School("North")
	viewer := e.f.User("viewer", s1)
	author := e.f.User("author", s1)
	id := e.f.Thread(testutil.Content{AuthorID: author, At: e.f.Minute(1)})

	pub := &recordingPublisher{}
	mod := NewModerationService(e.content, pub)
	scope := e.scope(t, viewer)

	before, err := e.svc.DiscussionFeed(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, pageIDs(before))

	require.NoError(t, mod.SetVisibility(context.Background(), "admin", feed.KindThread, id, false))
	after, err := e.svc.DiscussionFeed(context.Background(), scope)
	require.NoError(t, err)
	assert.Empty(t, after.Items)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "thread", pub.events[0].Kind)
	assert.False(t, pub.events[0].Visible)

	err = mod.SetVisibility(context.Background(), "admin", feed.KindThread, "missing", false)
	assert.True(t, errors.Is(err, ErrUnknownContent))
}
