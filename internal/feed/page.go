package feed

// Page is one ordered slice of a feed, newest first.
type Page struct {
	Items []Item
	// NextCursor is empty when there is nothing more to load. Mixed feeds never set it.
	NextCursor string
	// Partial marks a mixed page built while at least one source was unavailable.
	Partial bool
}

// EmptyPage is returned for anonymous viewers and empty scopes.
func EmptyPage() Page { return Page{Items: []Item{}} }

// Candidates holds the per-kind fetch results of a mixed feed.
type Candidates struct {
	Threads   []Item
	Reviews   []Item
	Bounties  []Item
	Resources []Item
}

// Set stores the list for a kind; other kinds are ignored.
func (c *Candidates) Set(k Kind, items []Item) {
	switch k {
	case KindThread:
		c.Threads = items
	case KindReview:
		c.Reviews = items
	case KindBounty:
		c.Bounties = items
	case KindResource:
		c.Resources = items
	}
}

// Lists returns the candidate lists in MixedKinds order.
func (c Candidates) Lists() [][]Item {
	return [][]Item{c.Threads, c.Reviews, c.Bounties, c.Resources}
}

func (c Candidates) Len() int {
	return len(c.Threads) + len(c.Reviews) + len(c.Bounties) + len(c.Resources)
}

// NextCursor returns the keyset cursor for a homogeneous page: the id of its
// last item when more rows exist, empty otherwise.
func NextCursor(items []Item, hasMore bool) string {
	if !hasMore || len(items) == 0 {
		return ""
	}
	return HeaderOf(items[len(items)-1]).ID
}
