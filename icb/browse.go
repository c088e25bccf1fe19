package icb

import (
	"sort"
	"strconv"
	"strings"

	"github.com/brojonat/influencechain/evm"
)

// BrowseSort orders a browse result. The zero value keeps scan order,
// newest id first.
type BrowseSort string

const (
	SortNewest      BrowseSort = "newest"
	SortPaymentDesc BrowseSort = "payment_desc"
	SortPaymentAsc  BrowseSort = "payment_asc"
	SortDeadlineAsc BrowseSort = "deadline_asc"
)

func ParseBrowseSort(s string) (BrowseSort, bool) {
	switch v := BrowseSort(s); v {
	case SortNewest, SortPaymentDesc, SortPaymentAsc, SortDeadlineAsc:
		return v, true
	}
	return "", false
}

// BrowseFilter narrows and orders transformed campaigns. Every field is
// optional; the zero filter keeps everything in scan order.
type BrowseFilter struct {
	// Query matches title, brand, description or category, case
	// insensitive.
	Query string
	// Categories matches any listed category, case insensitive.
	Categories []string
	MinPayment *float64
	MaxPayment *float64
	// MinFollowers keeps campaigns whose follower requirement is at least
	// this value.
	MinFollowers int64
	Sort         BrowseSort
}

// browseItem keeps the raw record next to its display form so sorting can
// use exact timestamps instead of rendered text.
type browseItem struct {
	id       uint64
	rec      evm.CampaignRecord
	campaign Campaign
}

// Match reports whether c passes every filter.
func (f BrowseFilter) Match(c Campaign) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		found := false
		for _, field := range []string{c.Title, c.Brand, c.Description, c.Category} {
			if strings.Contains(strings.ToLower(field), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPayment != nil && c.Payment < *f.MinPayment {
		return false
	}
	if f.MaxPayment != nil && c.Payment > *f.MaxPayment {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, cat := range f.Categories {
			if strings.EqualFold(cat, c.Category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return c.Requirements.MinFollowers >= f.MinFollowers
}

// apply filters items and sorts the survivors. Ties keep scan order.
func (f BrowseFilter) apply(items []browseItem) []Campaign {
	kept := make([]browseItem, 0, len(items))
	for _, it := range items {
		if f.Match(it.campaign) {
			kept = append(kept, it)
		}
	}

	var less func(a, b browseItem) bool
	switch f.Sort {
	case SortPaymentDesc:
		less = func(a, b browseItem) bool { return a.campaign.Payment > b.campaign.Payment }
	case SortPaymentAsc:
		less = func(a, b browseItem) bool { return a.campaign.Payment < b.campaign.Payment }
	case SortDeadlineAsc:
		less = func(a, b browseItem) bool { return clampInt64(a.rec.Deadline) < clampInt64(b.rec.Deadline) }
	case SortNewest:
		less = func(a, b browseItem) bool {
			ca, cb := clampInt64(a.rec.CreatedAt), clampInt64(b.rec.CreatedAt)
			if ca != cb {
				return ca > cb
			}
			return a.id > b.id
		}
	}
	if less != nil {
		sort.SliceStable(kept, func(i, j int) bool { return less(kept[i], kept[j]) })
	}

	out := make([]Campaign, len(kept))
	for i, it := range kept {
		out[i] = it.campaign
	}
	return out
}

// SplitCategories flattens repeated and comma separated category values.
func SplitCategories(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseAmountBound parses a non-negative PYUSD amount used as a payment
// bound.
func ParseAmountBound(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v != v || v > 1e15 {
		return 0, false
	}
	return v, true
}
