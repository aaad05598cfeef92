// Package feed holds the read-only aggregation model for Classmate feeds:
// the content variants, the viewer scope and the merge ranker.
package feed

import "time"

// Kind names a content variant.
type Kind string

const (
	KindThread   Kind = "thread"
	KindReview   Kind = "review"
	KindBounty   Kind = "bounty"
	KindResource Kind = "resource"
	KindPost     Kind = "post"
)

// MixedKinds is the fetch and merge order of the mixed feeds.
var MixedKinds = []Kind{KindThread, KindReview, KindBounty, KindResource}

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindThread, KindReview, KindBounty, KindResource, KindPost:
		return k, true
	}
	return "", false
}

// Header carries the fields every variant projects.
type Header struct {
	ID             string
	AuthorID       string
	AuthorSchoolID *string
	CourseID       *string
	CreatedAt      time.Time
}

func (h Header) header() Header { return h }

// Item is one of Thread, Review, Bounty, Resource or Post.
type Item interface {
	Kind() Kind
	header() Header
}

// HeaderOf returns the common projection of an item.
func HeaderOf(it Item) Header { return it.header() }

type Thread struct {
	Header
	Title string
	Body  string
}

type Review struct {
	Header
	Rating int
	Body   string
}

type Bounty struct {
	Header
	Title  string
	Reward int64
}

type Resource struct {
	Header
	Title string
	URL   string
}

// Post is a short video; it only appears in the media feed.
type Post struct {
	Header
	Caption  string
	VideoURL string
}

func (Thread) Kind() Kind   { return KindThread }
func (Review) Kind() Kind   { return KindReview }
func (Bounty) Kind() Kind   { return KindBounty }
func (Resource) Kind() Kind { return KindResource }
func (Post) Kind() Kind     { return KindPost }
