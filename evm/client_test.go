package evm

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller answers eth_call with canned ABI-encoded outputs keyed by
// method selector.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     []common.Address
	block     bool
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: map[string][]byte{}, errs: map[string]error{}}
}

func (f *fakeCaller) respond(t *testing.T, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	require.True(t, ok, "unknown method %s", method)
	b, err := m.Outputs.Pack(values...)
	require.NoError(t, err)
	f.responses[string(m.ID)] = b
}

func (f *fakeCaller) raw(parsed abi.ABI, method string, b []byte) {
	f.responses[string(parsed.Methods[method].ID)] = b
}

func (f *fakeCaller) fail(parsed abi.ABI, method string, err error) {
	f.errs[string(parsed.Methods[method].ID)] = err
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *call.To)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	key := string(call.Data[:4])
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if b, ok := f.responses[key]; ok {
		return b, nil
	}
	return nil, errors.New("execution reverted")
}

func testClient(fc *fakeCaller) *Client {
	return NewClient(fc, Config{ChainID: SepoliaChainID, Addresses: DefaultAddresses()})
}

func sampleCampaign() CampaignRecord {
	return CampaignRecord{
		Brand:            common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Requirements:     `{"title":"Summer drop","category":"Fashion & Beauty"}`,
		PaymentPerPost:   big.NewInt(25_000_000),
		Deadline:         big.NewInt(1_900_000_000),
		MaxPosts:         big.NewInt(10),
		CurrentPosts:     big.NewInt(3),
		MinFollowers:     big.NewInt(5000),
		Status:           uint8(CampaignActive),
		CreatedAt:        big.NewInt(1_700_000_000),
		RequiredHashtags: []string{"summer", "ad"},
	}
}

func TestClient_GetCampaign(t *testing.T) {
	fc := newFakeCaller()
	want := sampleCampaign()
	fc.respond(t, CampaignManagerABI, "getCampaign", want)

	c := testClient(fc)
	got, err := c.GetCampaign(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, want.Brand, got.Brand)
	assert.Equal(t, want.Requirements, got.Requirements)
	assert.Equal(t, 0, want.PaymentPerPost.Cmp(got.PaymentPerPost))
	assert.Equal(t, 0, want.MaxPosts.Cmp(got.MaxPosts))
	assert.Equal(t, CampaignActive, got.CampaignStatus())
	assert.Equal(t, want.RequiredHashtags, got.RequiredHashtags)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, DefaultAddresses().CampaignManager, fc.calls[0])
}

func TestClient_DecodeErrors(t *testing.T) {
	t.Run("garbage output", func(t *testing.T) {
		fc := newFakeCaller()
		fc.raw(CampaignManagerABI, "getCampaign", []byte{0x01, 0x02})
		_, err := testClient(fc).GetCampaign(context.Background(), 1)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "getCampaign", de.Method)
	})

	t.Run("upstream error is not a decode error", func(t *testing.T) {
		fc := newFakeCaller()
		fc.fail(CampaignManagerABI, "getCampaign", errors.New("boom"))
		_, err := testClient(fc).GetCampaign(context.Background(), 1)
		require.Error(t, err)
		var de *DecodeError
		assert.False(t, errors.As(err, &de))
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestDecodeCampaign(t *testing.T) {
	rec := sampleCampaign()
	positionalOut := []interface{}{
		rec.Brand, rec.Requirements, rec.PaymentPerPost, rec.Deadline, rec.MaxPosts,
		rec.CurrentPosts, rec.MinFollowers, rec.Status, rec.CreatedAt, rec.RequiredHashtags,
	}

	t.Run("positional", func(t *testing.T) {
		got, err := DecodeCampaign(positionalOut)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("positional wrong type", func(t *testing.T) {
		bad := append([]interface{}{}, positionalOut...)
		bad[7] = "active"
		_, err := DecodeCampaign(bad)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Reason, "output 7")
	})

	t.Run("positional missing number", func(t *testing.T) {
		bad := append([]interface{}{}, positionalOut...)
		bad[2] = (*big.Int)(nil)
		_, err := DecodeCampaign(bad)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := DecodeCampaign(positionalOut[:4])
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})

	t.Run("tuple of wrong shape", func(t *testing.T) {
		_, err := DecodeCampaign([]interface{}{struct{ Foo string }{"x"}})
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})
}

func TestClient_Registry(t *testing.T) {
	fc := newFakeCaller()
	fc.respond(t, UserRegistryABI, "userTypes", uint8(UserTypeCreator))
	fc.respond(t, UserRegistryABI, "getTotalUsers", big.NewInt(4), big.NewInt(9), big.NewInt(1), big.NewInt(2))
	creator := CreatorRecord{
		Username:           "ada",
		DisplayName:        "Ada",
		Bio:                "bio",
		ProfileImageURL:    "https://example.com/a.png",
		SocialMedia:        SocialMedia{Instagram: "@ada", Tiktok: "@ada.t"},
		TotalFollowers:     big.NewInt(12000),
		Categories:         []string{"Gaming"},
		Languages:          []string{"en"},
		TotalEarned:        big.NewInt(1_500_000),
		CompletedCampaigns: big.NewInt(2),
		AverageRating:      big.NewInt(450),
		VerificationLevel:  uint8(LevelBasic),
		RegisteredAt:       big.NewInt(1_700_000_000),
		IsActive:           true,
	}
	fc.respond(t, UserRegistryABI, "getCreator", creator)

	c := testClient(fc)
	ctx := context.Background()
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")

	ut, err := c.UserType(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, UserTypeCreator, ut)

	totals, err := c.GetTotalUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), totals.TotalBrands.Int64())
	assert.Equal(t, int64(9), totals.TotalCreators.Int64())
	assert.Equal(t, int64(1), totals.VerifiedBrands.Int64())
	assert.Equal(t, int64(2), totals.VerifiedCreators.Int64())

	got, err := c.GetCreator(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "@ada.t", got.SocialMedia.Tiktok)
	assert.Equal(t, int64(450), got.AverageRating.Int64())
	assert.True(t, got.IsActive)
}

func TestClient_PlatformAndEscrow(t *testing.T) {
	fc := newFakeCaller()
	receiver := common.HexToAddress("0x3333333333333333333333333333333333333333")
	fc.respond(t, PlatformCoreABI, "getPlatformConfig", big.NewInt(250), receiver, big.NewInt(86400), big.NewInt(31536000))
	fc.respond(t, PaymentEscrowABI, "campaignDeposits", receiver, big.NewInt(100_000_000), big.NewInt(40_000_000), true)
	fc.respond(t, ERC20ABI, "balanceOf", big.NewInt(12_340_000))

	c := testClient(fc)
	ctx := context.Background()

	pc, err := c.GetPlatformConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), pc.FeeRate.Int64())
	assert.Equal(t, receiver, pc.FeeReceiver)
	assert.Equal(t, int64(86400), pc.MinCampaignDuration.Int64())

	dep, err := c.GetCampaignDeposit(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "40", PYUSDFromBaseUnits(dep.RemainingAmount).String())
	assert.True(t, dep.IsActive)

	bal, err := c.PYUSDBalance(ctx, receiver)
	require.NoError(t, err)
	assert.Equal(t, "12.34", bal.String())
	assert.Equal(t, DefaultAddresses().PYUSD, fc.calls[len(fc.calls)-1])
}

func TestClient_CallTimeout(t *testing.T) {
	fc := newFakeCaller()
	fc.block = true
	c := NewClient(fc, Config{Addresses: DefaultAddresses(), CallTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := c.CampaignCounter(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	fc := newFakeCaller()
	fc.respond(t, CampaignManagerABI, "campaignCounter", big.NewInt(5))
	c := NewClient(fc, Config{Addresses: DefaultAddresses(), RequestsPerSecond: 0.001, Burst: 1})

	n, err := c.CampaignCounter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	// the bucket is now empty; a short deadline must fail fast
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.CampaignCounter(ctx)
	require.Error(t, err)
	assert.Len(t, fc.calls, 1)
}
