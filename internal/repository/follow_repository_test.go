package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/classmate/internal/testutil"
)

func TestFollowRepository(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewFollowRepository(f.DB)
	ctx := context.Background()

	a := f.User("a", "")
	b := f.User("b", "")
	c := f.User("c", "")

	require.NoError(t, repo.Create(ctx, a, b))
	require.NoError(t, repo.Create(ctx, a, b), "duplicate follow is idempotent")
	require.NoError(t, repo.Create(ctx, a, c))

	ok, err := repo.Exists(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.ListFolloweeIDs(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b, c}, ids)

	page, err := repo.ListFollowings(ctx, a, 0, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	require.NoError(t, repo.Delete(ctx, a, b))
	ok, err = repo.Exists(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFanRepository(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := NewFanRepository(f.DB)
	ctx := context.Background()

	star := f.User("star", "")
	fan := f.User("fan", "")
	require.NoError(t, repo.Create(ctx, star, fan))
	require.NoError(t, repo.Create(ctx, star, fan))

	fans, err := repo.ListFans(ctx, star, 0, 10)
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, fan, fans[0].FanID)

	require.NoError(t, repo.Delete(ctx, star, fan))
	fans, err = repo.ListFans(ctx, star, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, fans)
}

func TestUserAndEnrollmentRepository(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	s1 := f.School("North")
	c1 := f.Course(s1, "CS101")
	c2 := f.Course(s1, "CS102")
	u := f.User("u", s1)
	f.Enroll(u, c1, true)
	f.Enroll(u, c2, false)

	user, err := NewUserRepository(f.DB).GetByID(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, user.SchoolID)
	assert.Equal(t, s1, *user.SchoolID)

	_, err = NewUserRepository(f.DB).GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := NewEnrollmentRepository(f.DB).ActiveCourseIDs(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{c1}, ids)
}

func BenchmarkFollowWriteAndFanRedundancy(b *testing.B) {
	f := testutil.NewFixture(b)
	followRepo := NewFollowRepository(f.DB)
	fanRepo := NewFanRepository(f.DB)
	ctx := context.Background()

	users := make([]string, 500)
	for i := range users {
		users[i] = f.User(fmt.Sprintf("u%04d", i), "")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rand.Intn(len(users))]
		to := users[rand.Intn(len(users))]
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
		_ = fanRepo.Create(ctx, to, from)
	}
}

func BenchmarkListFolloweeIDs(b *testing.B) {
	f := testutil.NewFixture(b)
	followRepo := NewFollowRepository(f.DB)
	ctx := context.Background()

	const n = 2000
	u0 := f.User("u0", "")
	for i := 1; i <= n; i++ {
		_ = followRepo.Create(ctx, u0, f.User(fmt.Sprintf("u%d", i), ""))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = followRepo.ListFolloweeIDs(ctx, u0)
	}
}
