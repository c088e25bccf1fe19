package icb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/brojonat/influencechain/evm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func campaignWithStatus(s evm.CampaignStatus) evm.CampaignRecord {
	rec := testCampaignRecord()
	rec.Status = uint8(s)
	return rec
}

func TestWindows(t *testing.T) {
	assert.Equal(t, IDWindow{Start: 6, End: 10}, ActiveWindow(10, 5))
	assert.Equal(t, IDWindow{Start: 1, End: 3}, ActiveWindow(3, 20))
	assert.True(t, ActiveWindow(0, 20).Empty())

	assert.Equal(t, IDWindow{Start: 31, End: 50}, PageWindow(50, 20, 0))
	assert.Equal(t, IDWindow{Start: 11, End: 30}, PageWindow(50, 20, 20))
	assert.Equal(t, IDWindow{Start: 1, End: 10}, PageWindow(50, 20, 40))
	assert.True(t, PageWindow(50, 20, 50).Empty())
	assert.True(t, PageWindow(50, 20, 75).Empty())
}

func TestListActiveCampaigns(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(12), nil)
	r.On("GetCampaign", ctx, uint64(12)).Return(campaignWithStatus(evm.CampaignActive), nil)
	r.On("GetCampaign", ctx, uint64(11)).Return(campaignWithStatus(evm.CampaignPaused), nil)
	r.On("GetCampaign", ctx, uint64(10)).Return(evm.CampaignRecord{}, errors.New("execution reverted"))
	r.On("GetCampaign", ctx, uint64(9)).Return(campaignWithStatus(evm.CampaignActive), nil)
	r.On("GetCampaign", ctx, uint64(8)).Return(campaignWithStatus(evm.CampaignActive), nil)

	got, err := ListActiveCampaigns(ctx, discardLogger(), r, 5, testNow)
	require.NoError(t, err)

	assert.Equal(t, uint64(12), got.TotalCampaigns)
	assert.Equal(t, 3, got.TotalActive)
	require.Len(t, got.Campaigns, 3)
	prev := uint64(1 << 63)
	for _, c := range got.Campaigns {
		assert.Equal(t, "Open", c.Status)
		id, err := strconv.ParseUint(c.ID, 10, 64)
		require.NoError(t, err)
		assert.Less(t, id, prev)
		prev = id
	}
	assert.Equal(t, "12", got.Campaigns[0].ID)
	assert.Equal(t, "8", got.Campaigns[2].ID)
	r.AssertNumberOfCalls(t, "GetCampaign", 5)
}

func TestListActiveCampaigns_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(80), nil)
	r.On("GetCampaign", ctx, mock.AnythingOfType("uint64")).Return(campaignWithStatus(evm.CampaignCompleted), nil)

	got, err := ListActiveCampaigns(ctx, discardLogger(), r, 500, testNow)
	require.NoError(t, err)
	assert.Empty(t, got.Campaigns)
	assert.NotNil(t, got.Campaigns)
	r.AssertNumberOfCalls(t, "GetCampaign", MaxActiveLimit)
}

func TestListActiveCampaigns_CounterError(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(0), errors.New("dial tcp: refused"))

	_, err := ListActiveCampaigns(ctx, discardLogger(), r, 5, testNow)
	assert.Error(t, err)
	r.AssertNotCalled(t, "GetCampaign", mock.Anything, mock.Anything)
}

func TestListCampaignPage(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(5), nil)
	for id := uint64(1); id <= 5; id++ {
		s := evm.CampaignActive
		if id%2 == 0 {
			s = evm.CampaignCancelled
		}
		r.On("GetCampaign", ctx, id).Return(campaignWithStatus(s), nil)
	}

	t.Run("first_page", func(t *testing.T) {
		page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Campaigns, 2)
		assert.Equal(t, uint64(5), page.Campaigns[0].ID)
		assert.Equal(t, uint64(4), page.Campaigns[1].ID)
		assert.Equal(t, Pagination{Total: 5, Limit: 2, Offset: 0, HasMore: true}, page.Pagination)
	})

	t.Run("last_page", func(t *testing.T) {
		page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 2, Offset: 4})
		require.NoError(t, err)
		require.Len(t, page.Campaigns, 1)
		assert.Equal(t, uint64(1), page.Campaigns[0].ID)
		assert.False(t, page.Pagination.HasMore)
	})

	t.Run("past_the_end", func(t *testing.T) {
		page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 2, Offset: 9})
		require.NoError(t, err)
		assert.Empty(t, page.Campaigns)
		assert.False(t, page.Pagination.HasMore)
	})

	t.Run("status_filter", func(t *testing.T) {
		cancelled := evm.CampaignCancelled
		page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 5, Status: &cancelled})
		require.NoError(t, err)
		require.Len(t, page.Campaigns, 2)
		assert.Equal(t, uint64(4), page.Campaigns[0].ID)
		assert.Equal(t, uint64(2), page.Campaigns[1].ID)
	})

	t.Run("clamped_limit", func(t *testing.T) {
		page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, MaxPageLimit, page.Pagination.Limit)
		assert.Len(t, page.Campaigns, 5)
	})
}

func TestScan_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := new(evm.MockReader)
	r.On("GetCampaign", ctx, uint64(3)).Run(func(mock.Arguments) { cancel() }).Return(campaignWithStatus(evm.CampaignActive), nil)

	var seen []uint64
	err := scan(ctx, discardLogger(), r, IDWindow{Start: 1, End: 3}, func(id uint64, _ evm.CampaignRecord) {
		seen = append(seen, id)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{3}, seen)
}

func TestListCampaignPage_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("CampaignCounter", ctx).Return(uint64(250), nil)
	r.On("GetCampaign", ctx, mock.AnythingOfType("uint64")).Return(campaignWithStatus(evm.CampaignActive), nil)

	page, err := ListCampaignPage(ctx, discardLogger(), r, PageQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Total: 250, Limit: MaxPageLimit, Offset: 0, HasMore: true}, page.Pagination)
	require.Len(t, page.Campaigns, MaxPageLimit)
	assert.Equal(t, uint64(250), page.Campaigns[0].ID)
	assert.Equal(t, uint64(151), page.Campaigns[MaxPageLimit-1].ID)
	r.AssertNumberOfCalls(t, "GetCampaign", MaxPageLimit)
}
