package icb

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type browseFixture struct {
	title        string
	category     string
	payment      int64 // base units
	minFollowers int64
	deadline     time.Duration
	createdAgo   time.Duration
}

func (f browseFixture) record() evm.CampaignRecord {
	rec := testCampaignRecord()
	rec.Requirements = fmt.Sprintf(`{"title":%q,"description":"Post about %s","category":%q}`, f.title, f.title, f.category)
	rec.PaymentPerPost = big.NewInt(f.payment)
	rec.MinFollowers = big.NewInt(f.minFollowers)
	rec.Deadline = big.NewInt(testNow.Add(f.deadline).Unix())
	rec.CreatedAt = big.NewInt(testNow.Add(-f.createdAgo).Unix())
	return rec
}

// browseReader serves ids 4..1 newest first; id 4 is paused.
func browseReader(ctx context.Context) *evm.MockReader {
	fixtures := map[uint64]browseFixture{
		4: {title: "Paused Promo", category: "Fashion", payment: 99_000_000, deadline: 24 * time.Hour, createdAgo: time.Hour},
		3: {title: "Trail Shoes", category: "Sports", payment: 10_000_000, minFollowers: 1_000, deadline: 96 * time.Hour, createdAgo: 48 * time.Hour},
		2: {title: "Glow Serum", category: "Beauty", payment: 40_000_000, minFollowers: 20_000, deadline: 24 * time.Hour, createdAgo: 2 * time.Hour},
		1: {title: "Denim Week", category: "Fashion", payment: 25_000_000, minFollowers: 5_000, deadline: 48 * time.Hour, createdAgo: 24 * time.Hour},
	}
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(4), nil)
	for id, f := range fixtures {
		rec := f.record()
		if id == 4 {
			rec.Status = uint8(evm.CampaignPaused)
		}
		r.On("GetCampaign", ctx, id).Return(rec, nil)
	}
	return r
}

func titles(cs []Campaign) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Title
	}
	return out
}

func TestBrowseActiveCampaigns(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		filter BrowseFilter
		want   []string
	}{
		{"zero_filter_keeps_scan_order", BrowseFilter{}, []string{"Trail Shoes", "Glow Serum", "Denim Week"}},
		{"query_matches_title", BrowseFilter{Query: "serum"}, []string{"Glow Serum"}},
		{"query_matches_category", BrowseFilter{Query: "FASHION"}, []string{"Denim Week"}},
		{"query_matches_description", BrowseFilter{Query: "post about trail"}, []string{"Trail Shoes"}},
		{"query_matches_brand", BrowseFilter{Query: "0x9876"}, []string{"Trail Shoes", "Glow Serum", "Denim Week"}},
		{"query_without_match", BrowseFilter{Query: "podcast"}, []string{}},
		{"categories_any_of", BrowseFilter{Categories: []string{"beauty", "Sports"}}, []string{"Trail Shoes", "Glow Serum"}},
		{"min_payment_inclusive", BrowseFilter{MinPayment: ptr(25)}, []string{"Glow Serum", "Denim Week"}},
		{"payment_range", BrowseFilter{MinPayment: ptr(10), MaxPayment: ptr(30)}, []string{"Trail Shoes", "Denim Week"}},
		{"min_followers_keeps_at_least", BrowseFilter{MinFollowers: 5_000}, []string{"Glow Serum", "Denim Week"}},
		{"sort_payment_desc", BrowseFilter{Sort: SortPaymentDesc}, []string{"Glow Serum", "Denim Week", "Trail Shoes"}},
		{"sort_payment_asc", BrowseFilter{Sort: SortPaymentAsc}, []string{"Trail Shoes", "Denim Week", "Glow Serum"}},
		{"sort_deadline_asc", BrowseFilter{Sort: SortDeadlineAsc}, []string{"Glow Serum", "Denim Week", "Trail Shoes"}},
		{"sort_newest", BrowseFilter{Sort: SortNewest}, []string{"Glow Serum", "Denim Week", "Trail Shoes"}},
		{"filter_then_sort", BrowseFilter{Categories: []string{"Fashion", "Sports"}, Sort: SortPaymentDesc}, []string{"Denim Week", "Trail Shoes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r := browseReader(ctx)

			got, err := BrowseActiveCampaigns(ctx, discardLogger(), r, 10, testNow, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got.Campaigns))
			assert.NotNil(t, got.Campaigns)
			assert.Equal(t, 3, got.TotalActive)
			assert.Equal(t, uint64(4), got.TotalCampaigns)
		})
	}
}

func TestParseBrowseSort(t *testing.T) {
	for _, s := range []string{"newest", "payment_desc", "payment_asc", "deadline_asc"} {
		got, ok := ParseBrowseSort(s)
		assert.True(t, ok, s)
		assert.Equal(t, BrowseSort(s), got)
	}
	_, ok := ParseBrowseSort("popular")
	assert.False(t, ok)
}

func TestSplitCategories(t *testing.T) {
	assert.Equal(t, []string{"Fashion", "Beauty", "Tech"}, SplitCategories([]string{"Fashion, Beauty", "Tech", " ,"}))
	assert.Empty(t, SplitCategories(nil))
}

func TestParseAmountBound(t *testing.T) {
	v, ok := ParseAmountBound("12.5")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, v, 1e-9)

	for _, raw := range []string{"", "-1", "NaN", "abc", "1e20"} {
		_, ok := ParseAmountBound(raw)
		assert.False(t, ok, raw)
	}
}
