package feed

import (
	"sort"
	"time"
)

// Scope is the per-request snapshot of what a viewer may see.
// It is immutable once built; accessors return copies.
type Scope struct {
	viewerID  string
	schoolID  *string
	courses   map[string]struct{}
	followees map[string]struct{}
}

func NewScope(viewerID string, schoolID *string, courseIDs, followeeIDs []string) Scope {
	s := Scope{
		viewerID:  viewerID,
		courses:   toSet(courseIDs),
		followees: toSet(followeeIDs),
	}
	if schoolID != nil && *schoolID != "" {
		id := *schoolID
		s.schoolID = &id
	}
	return s
}

func (s Scope) ViewerID() string { return s.viewerID }

func (s Scope) SchoolID() (string, bool) {
	if s.schoolID == nil {
		return "", false
	}
	return *s.schoolID, true
}

func (s Scope) CourseIDs() []string   { return sortedKeys(s.courses) }
func (s Scope) FolloweeIDs() []string { return sortedKeys(s.followees) }

func (s Scope) EnrolledIn(courseID string) bool {
	_, ok := s.courses[courseID]
	return ok
}

func (s Scope) Follows(userID string) bool {
	_, ok := s.followees[userID]
	return ok
}

// IsEmpty reports a viewer with no school, no active enrollment and no follow.
func (s Scope) IsEmpty() bool {
	return s.schoolID == nil && len(s.courses) == 0 && len(s.followees) == 0
}

// Variant selects which scope clauses a feed applies.
type Variant int

const (
	VariantDiscussion Variant = iota + 1
	VariantPersonalized
	VariantMedia
)

// FilterMode refines the personalized feed.
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterTrending FilterMode = "trending"
)

func ParseFilterMode(s string) (FilterMode, bool) {
	switch m := FilterMode(s); m {
	case "", FilterAll:
		return FilterAll, true
	case FilterTrending:
		return FilterTrending, true
	}
	return "", false
}

// Predicate is the scope filter handed to repositories. Clauses are OR-ed;
// a clause with no values contributes nothing. Since, when set, is AND-ed.
type Predicate struct {
	SchoolID  *string
	CourseIDs []string
	AuthorIDs []string
	Since     *time.Time
}

// IsEmpty reports a predicate that can match no item.
func (p Predicate) IsEmpty() bool {
	return p.SchoolID == nil && len(p.CourseIDs) == 0 && len(p.AuthorIDs) == 0
}

// Matches evaluates the predicate against an item projection.
func (p Predicate) Matches(h Header) bool {
	if p.Since != nil && h.CreatedAt.Before(*p.Since) {
		return false
	}
	if p.SchoolID != nil && h.AuthorSchoolID != nil && *h.AuthorSchoolID == *p.SchoolID {
		return true
	}
	if h.CourseID != nil && contains(p.CourseIDs, *h.CourseID) {
		return true
	}
	return contains(p.AuthorIDs, h.AuthorID)
}

// Predicate builds the filter for a feed variant.
//
//	discussion:   same school OR enrolled course
//	personalized: followed author OR same school OR enrolled course
//	media:        same school OR followed author
func (s Scope) Predicate(v Variant) Predicate {
	var p Predicate
	if id, ok := s.SchoolID(); ok {
		p.SchoolID = &id
	}
	switch v {
	case VariantDiscussion:
		p.CourseIDs = s.CourseIDs()
	case VariantPersonalized:
		p.CourseIDs = s.CourseIDs()
		p.AuthorIDs = s.FolloweeIDs()
	case VariantMedia:
		p.AuthorIDs = s.FolloweeIDs()
	}
	return p
}

// WithSince restricts the predicate to items created at or after t.
func (p Predicate) WithSince(t time.Time) Predicate {
	p.Since = &t
	return p
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
