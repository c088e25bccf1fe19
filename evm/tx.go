package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UnsignedTx is a contract call for the user's wallet to sign and send.
// The server never signs.
type UnsignedTx struct {
	ChainID     int64          `json:"chainId"`
	To          common.Address `json:"to"`
	Data        hexutil.Bytes  `json:"data"`
	Value       string         `json:"value"`
	Method      string         `json:"method"`
	Description string         `json:"description"`
}

// CampaignParams are the createCampaign arguments. Amounts are in PYUSD
// base units and Deadline is a unix timestamp.
type CampaignParams struct {
	Requirements     string
	PaymentPerPost   *big.Int
	MaxPosts         *big.Int
	Deadline         *big.Int
	RequiredHashtags []string
	MinFollowers     *big.Int
	BudgetAmount     *big.Int
}

// BrandParams are the registerBrand arguments.
type BrandParams struct {
	CompanyName  string
	Description  string
	WebsiteURL   string
	LogoURL      string
	Industries   []string
	ContactEmail string
}

// CreatorParams are the registerCreator arguments.
type CreatorParams struct {
	Username        string
	DisplayName     string
	Bio             string
	ProfileImageURL string
	SocialMedia     SocialMedia
	TotalFollowers  *big.Int
	Categories      []string
	Languages       []string
}

// TxBuilder encodes write calls against a fixed contract set.
type TxBuilder struct {
	chainID   int64
	addresses Addresses
}

func NewTxBuilder(chainID int64, addresses Addresses) *TxBuilder {
	return &TxBuilder{chainID: chainID, addresses: addresses}
}

func (b *TxBuilder) ChainID() int64 { return b.chainID }

func (b *TxBuilder) Addresses() Addresses { return b.addresses }

func (b *TxBuilder) build(to common.Address, data []byte, method, desc string) UnsignedTx {
	return UnsignedTx{
		ChainID:     b.chainID,
		To:          to,
		Data:        data,
		Value:       "0",
		Method:      method,
		Description: desc,
	}
}

// ApproveBudget lets the platform core pull amount PYUSD from the brand.
// It must be mined before CreateCampaign.
func (b *TxBuilder) ApproveBudget(amount *big.Int) (UnsignedTx, error) {
	data, err := ERC20ABI.Pack("approve", b.addresses.PlatformCore, amount)
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	desc := fmt.Sprintf("approve %s PYUSD for the platform", PYUSDFromBaseUnits(amount))
	return b.build(b.addresses.PYUSD, data, "approve", desc), nil
}

// CreateCampaign locks the budget and creates the campaign.
func (b *TxBuilder) CreateCampaign(p CampaignParams) (UnsignedTx, error) {
	hashtags := p.RequiredHashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	data, err := PlatformCoreABI.Pack("createCampaign",
		p.Requirements,
		p.PaymentPerPost,
		p.MaxPosts,
		p.Deadline,
		hashtags,
		p.MinFollowers,
		p.BudgetAmount,
	)
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack createCampaign: %w", err)
	}
	return b.build(b.addresses.PlatformCore, data, "createCampaign", "create campaign and escrow budget"), nil
}

// SubmitPost submits a creator's post for a campaign.
func (b *TxBuilder) SubmitPost(campaignID uint64, postURL string, requirements []string) (UnsignedTx, error) {
	if requirements == nil {
		requirements = []string{}
	}
	data, err := PlatformCoreABI.Pack("submitPost", new(big.Int).SetUint64(campaignID), postURL, requirements)
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack submitPost: %w", err)
	}
	return b.build(b.addresses.PlatformCore, data, "submitPost", fmt.Sprintf("submit post for campaign %d", campaignID)), nil
}

// AcceptCampaign registers a creator's participation in a campaign.
func (b *TxBuilder) AcceptCampaign(campaignID uint64) (UnsignedTx, error) {
	data, err := CampaignManagerABI.Pack("acceptCampaign", new(big.Int).SetUint64(campaignID))
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack acceptCampaign: %w", err)
	}
	return b.build(b.addresses.CampaignManager, data, "acceptCampaign", fmt.Sprintf("accept campaign %d", campaignID)), nil
}

func (b *TxBuilder) RegisterBrand(p BrandParams) (UnsignedTx, error) {
	industries := p.Industries
	if industries == nil {
		industries = []string{}
	}
	data, err := UserRegistryABI.Pack("registerBrand",
		p.CompanyName,
		p.Description,
		p.WebsiteURL,
		p.LogoURL,
		industries,
		p.ContactEmail,
	)
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack registerBrand: %w", err)
	}
	return b.build(b.addresses.UserRegistry, data, "registerBrand", "register brand "+p.CompanyName), nil
}

func (b *TxBuilder) RegisterCreator(p CreatorParams) (UnsignedTx, error) {
	categories, languages := p.Categories, p.Languages
	if categories == nil {
		categories = []string{}
	}
	if languages == nil {
		languages = []string{}
	}
	followers := p.TotalFollowers
	if followers == nil {
		followers = new(big.Int)
	}
	data, err := UserRegistryABI.Pack("registerCreator",
		p.Username,
		p.DisplayName,
		p.Bio,
		p.ProfileImageURL,
		p.SocialMedia,
		followers,
		categories,
		languages,
	)
	if err != nil {
		return UnsignedTx{}, fmt.Errorf("failed to pack registerCreator: %w", err)
	}
	return b.build(b.addresses.UserRegistry, data, "registerCreator", "register creator "+p.Username), nil
}
