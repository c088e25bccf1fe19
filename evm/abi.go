package evm

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Platform limits used when the platform core config is unavailable.
const (
	SepoliaChainID      = 11155111
	MinCampaignDuration = 24 * 60 * 60       // 1 day
	MaxCampaignDuration = 365 * 24 * 60 * 60 // 1 year
	DefaultFeeRateBps   = 250
	BasisPoints         = 10_000
)

// Deployed contract addresses on Sepolia.
const (
	DefaultPlatformCoreAddress    = "0x88be409BaD965786B38CDe89587A750338800FD3"
	DefaultCampaignManagerAddress = "0x72dE7047B87EC45cC1e3871E39467bC1AF69D65d"
	DefaultPaymentEscrowAddress   = "0xC01aEC49bA01EDD3d65BB7B12df2176F1D098819"
	DefaultUserRegistryAddress    = "0xA3406227A5523e79f3956a025CEb8a7c280d647e"
	DefaultAIVerificationAddress  = "0xFDDa2A840CAe089f046B94E9E6A7A4299B3b9260"
	DefaultPYUSDAddress           = "0xCaC524BcA292aaade2DF8A05cC58F0a65B1B3bB9"
)

// Addresses holds the contract set a Client talks to.
type Addresses struct {
	PlatformCore    common.Address `json:"platformCore"`
	CampaignManager common.Address `json:"campaignManager"`
	PaymentEscrow   common.Address `json:"paymentEscrow"`
	UserRegistry    common.Address `json:"userRegistry"`
	AIVerification  common.Address `json:"aiVerification"`
	PYUSD           common.Address `json:"pyusd"`
}

// DefaultAddresses returns the Sepolia deployment.
func DefaultAddresses() Addresses {
	return Addresses{
		PlatformCore:    common.HexToAddress(DefaultPlatformCoreAddress),
		CampaignManager: common.HexToAddress(DefaultCampaignManagerAddress),
		PaymentEscrow:   common.HexToAddress(DefaultPaymentEscrowAddress),
		UserRegistry:    common.HexToAddress(DefaultUserRegistryAddress),
		AIVerification:  common.HexToAddress(DefaultAIVerificationAddress),
		PYUSD:           common.HexToAddress(DefaultPYUSDAddress),
	}
}

//go:embed abis/*.json
var abiFS embed.FS

var (
	CampaignManagerABI = mustLoadABI("CampaignManager.json")
	UserRegistryABI    = mustLoadABI("UserRegistry.json")
	PlatformCoreABI    = mustLoadABI("PlatformCore.json")
	PaymentEscrowABI   = mustLoadABI("PaymentEscrow.json")
	AIVerificationABI  = mustLoadABI("AIVerification.json")
	ERC20ABI           = mustLoadABI("ERC20.json")
)

func mustLoadABI(name string) abi.ABI {
	b, err := abiFS.ReadFile("abis/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded abi %s: %v", name, err))
	}
	parsed, err := abi.JSON(bytes.NewReader(b))
	if err != nil {
		panic(fmt.Sprintf("bad embedded abi %s: %v", name, err))
	}
	return parsed
}
