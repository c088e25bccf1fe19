package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

// MockReader is a mock implementation of Reader for testing
type MockReader struct {
	mock.Mock
}

var _ Reader = (*MockReader)(nil)

func (m *MockReader) CampaignCounter(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockReader) GetCampaign(ctx context.Context, id uint64) (CampaignRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(CampaignRecord), args.Error(1)
}

func (m *MockReader) GetCampaignSubmissions(ctx context.Context, id uint64) ([]*big.Int, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*big.Int), args.Error(1)
}

func (m *MockReader) GetSubmission(ctx context.Context, id uint64) (SubmissionRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(SubmissionRecord), args.Error(1)
}

func (m *MockReader) GetBrandCampaigns(ctx context.Context, brand common.Address) ([]*big.Int, error) {
	args := m.Called(ctx, brand)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*big.Int), args.Error(1)
}

func (m *MockReader) GetCreatorSubmissions(ctx context.Context, creator common.Address) ([]*big.Int, error) {
	args := m.Called(ctx, creator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*big.Int), args.Error(1)
}

func (m *MockReader) UserType(ctx context.Context, addr common.Address) (UserType, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(UserType), args.Error(1)
}

func (m *MockReader) GetBrand(ctx context.Context, addr common.Address) (BrandRecord, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(BrandRecord), args.Error(1)
}

func (m *MockReader) GetCreator(ctx context.Context, addr common.Address) (CreatorRecord, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(CreatorRecord), args.Error(1)
}

func (m *MockReader) GetTotalUsers(ctx context.Context) (UserTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(UserTotals), args.Error(1)
}

func (m *MockReader) GetPlatformConfig(ctx context.Context) (PlatformConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(PlatformConfig), args.Error(1)
}

func (m *MockReader) GetContractAddresses(ctx context.Context) (ContractSet, error) {
	args := m.Called(ctx)
	return args.Get(0).(ContractSet), args.Error(1)
}

func (m *MockReader) GetCampaignDeposit(ctx context.Context, id uint64) (DepositRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(DepositRecord), args.Error(1)
}

func (m *MockReader) GetVerification(ctx context.Context, submissionID uint64) (VerificationRecord, error) {
	args := m.Called(ctx, submissionID)
	return args.Get(0).(VerificationRecord), args.Error(1)
}

func (m *MockReader) PYUSDBalance(ctx context.Context, owner common.Address) (*PYUSDAmount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PYUSDAmount), args.Error(1)
}
