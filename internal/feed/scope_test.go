package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestScopeIsEmpty(t *testing.T) {
	assert.True(t, NewScope("v", nil, nil, nil).IsEmpty())
	assert.True(t, NewScope("v", strPtr(""), []string{""}, nil).IsEmpty())
	assert.False(t, NewScope("v", strPtr("s1"), nil, nil).IsEmpty())
	assert.False(t, NewScope("v", nil, []string{"c1"}, nil).IsEmpty())
	assert.False(t, NewScope("v", nil, nil, []string{"u2"}).IsEmpty())
}

func TestScopeIsImmutable(t *testing.T) {
	school := "s1"
	courses := []string{"c2", "c1"}
	s := NewScope("v", &school, courses, nil)
	school = "s9"
	courses[0] = "c9"

	id, ok := s.SchoolID()
	assert.True(t, ok)
	assert.Equal(t, "s1", id)
	assert.Equal(t, []string{"c1", "c2"}, s.CourseIDs())

	got := s.CourseIDs()
	got[0] = "zz"
	assert.Equal(t, []string{"c1", "c2"}, s.CourseIDs())
}

func TestPredicateByVariant(t *testing.T) {
	s := NewScope("v", strPtr("s1"), []string{"c1"}, []string{"u2"})

	d := s.Predicate(VariantDiscussion)
	assert.Equal(t, "s1", *d.SchoolID)
	assert.Equal(t, []string{"c1"}, d.CourseIDs)
	assert.Empty(t, d.AuthorIDs)

	p := s.Predicate(VariantPersonalized)
	assert.Equal(t, []string{"c1"}, p.CourseIDs)
	assert.Equal(t, []string{"u2"}, p.AuthorIDs)

	m := s.Predicate(VariantMedia)
	assert.Empty(t, m.CourseIDs)
	assert.Equal(t, []string{"u2"}, m.AuthorIDs)

	assert.True(t, NewScope("v", nil, nil, nil).Predicate(VariantPersonalized).IsEmpty())
	// 只有关注关系时讨论流没有可用条件
	assert.True(t, NewScope("v", nil, nil, []string{"u2"}).Predicate(VariantDiscussion).IsEmpty())
}

func TestPredicateMatches(t *testing.T) {
	now := time.Now()
	p := Predicate{SchoolID: strPtr("s1"), CourseIDs: []string{"c1"}, AuthorIDs: []string{"u2"}}

	tests := []struct {
		name string
		h    Header
		want bool
	}{
		{"same school", Header{AuthorID: "x", AuthorSchoolID: strPtr("s1"), CreatedAt: now}, true},
		{"other school", Header{AuthorID: "x", AuthorSchoolID: strPtr("s2"), CreatedAt: now}, false},
		{"enrolled course", Header{AuthorID: "x", CourseID: strPtr("c1"), CreatedAt: now}, true},
		{"other course", Header{AuthorID: "x", CourseID: strPtr("c2"), CreatedAt: now}, false},
		{"followed author", Header{AuthorID: "u2", CreatedAt: now}, true},
		{"no school on author", Header{AuthorID: "x", CreatedAt: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Matches(tt.h))
		})
	}

	windowed := p.WithSince(now.Add(-time.Hour))
	assert.False(t, windowed.Matches(Header{AuthorID: "u2", CreatedAt: now.Add(-2 * time.Hour)}))
	assert.True(t, windowed.Matches(Header{AuthorID: "u2", CreatedAt: now}))
}

func TestParse(t *testing.T) {
	k, ok := ParseKind("bounty")
	assert.True(t, ok)
	assert.Equal(t, KindBounty, k)
	_, ok = ParseKind("order")
	assert.False(t, ok)

	m, ok := ParseFilterMode("")
	assert.True(t, ok)
	assert.Equal(t, FilterAll, m)
	_, ok = ParseFilterMode("hot")
	assert.False(t, ok)
}
