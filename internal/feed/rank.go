package feed

import "sort"

// Merge concatenates the candidate lists in kind order, sorts them newest
// first and truncates to pageSize. The sort is stable so equal timestamps keep
// their fetch order. Mixed pages carry no cursor.
func Merge(c Candidates, pageSize int) Page {
	all := make([]Item, 0, c.Len())
	for _, list := range c.Lists() {
		all = append(all, list...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return HeaderOf(all[i]).CreatedAt.After(HeaderOf(all[j]).CreatedAt)
	})
	if pageSize >= 0 && len(all) > pageSize {
		all = all[:pageSize]
	}
	return Page{Items: all}
}

// Filter keeps the items that satisfy p, preserving order.
func Filter(items []Item, p Predicate) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if p.Matches(HeaderOf(it)) {
			out = append(out, it)
		}
	}
	return out
}
