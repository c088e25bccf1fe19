package icb

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestLoadUserProfile_Brand(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("UserType", ctx, testUser).Return(evm.UserTypeBrand, nil)
	r.On("GetBrand", ctx, testUser).Return(evm.BrandRecord{
		CompanyName:       "Acme",
		Industries:        []string{"Technology", "Retail"},
		TotalCampaigns:    big.NewInt(2),
		ActiveCampaigns:   big.NewInt(1),
		TotalSpent:        big.NewInt(1_250_000),
		VerificationLevel: uint8(evm.LevelPremium),
		RegisteredAt:      big.NewInt(1_700_000_000),
		IsActive:          true,
	}, nil)
	r.On("GetBrandCampaigns", ctx, testUser).Return([]*big.Int{big.NewInt(3), big.NewInt(9)}, nil)

	p, err := LoadUserProfile(ctx, r, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Brand", p.TypeLabel)
	assert.Equal(t, []uint64{3, 9}, p.Campaigns)
	require.NotNil(t, p.Brand)
	assert.Nil(t, p.Creator)
	assert.Equal(t, "Technology", p.Brand.Industry)
	assert.Equal(t, "1.25", p.Brand.TotalSpent)
	assert.Equal(t, "Premium", p.Brand.VerificationLevel)
	assert.Equal(t, p.Brand, p.UserData())
	r.AssertNotCalled(t, "GetCreator", ctx, testUser)
}

func TestLoadUserProfile_Creator(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("UserType", ctx, testUser).Return(evm.UserTypeCreator, nil)
	r.On("GetCreator", ctx, testUser).Return(evm.CreatorRecord{
		Username:      "ada_l",
		AverageRating: big.NewInt(450),
		TotalEarned:   big.NewInt(30_000_000),
	}, nil)
	r.On("GetCreatorSubmissions", ctx, testUser).Return([]*big.Int{}, nil)

	p, err := LoadUserProfile(ctx, r, testUser)
	require.NoError(t, err)
	require.NotNil(t, p.Creator)
	assert.Equal(t, "ada_l", p.Creator.Username)
	assert.InDelta(t, 4.5, p.Creator.AverageRating, 1e-9)
	assert.Equal(t, "30", p.Creator.TotalEarned)
	assert.Equal(t, []string{}, p.Creator.Categories)
	assert.Equal(t, []uint64{}, p.Campaigns)
}

func TestLoadUserProfile_Unregistered(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("UserType", ctx, testUser).Return(evm.UserTypeNone, nil)

	p, err := LoadUserProfile(ctx, r, testUser)
	require.NoError(t, err)
	assert.Equal(t, "None", p.TypeLabel)
	assert.Nil(t, p.UserData())
	assert.Nil(t, p.Campaigns)
}

func TestLoadUserProfile_ReadFailure(t *testing.T) {
	ctx := context.Background()
	r := new(evm.MockReader)
	r.On("UserType", ctx, testUser).Return(evm.UserTypeBrand, nil)
	r.On("GetBrand", ctx, testUser).Return(evm.BrandRecord{}, nil)
	r.On("GetBrandCampaigns", ctx, testUser).Return(nil, errors.New("rpc down"))

	_, err := LoadUserProfile(ctx, r, testUser)
	assert.ErrorContains(t, err, "brand campaigns")
}
