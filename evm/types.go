package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CampaignStatus mirrors the campaign manager's status enum.
type CampaignStatus uint8

const (
	CampaignActive CampaignStatus = iota
	CampaignPaused
	CampaignCompleted
	CampaignCancelled
)

// ParseCampaignStatus maps the lower-case query names used by the listing
// endpoints to the contract enum.
func ParseCampaignStatus(s string) (CampaignStatus, bool) {
	switch s {
	case "active":
		return CampaignActive, true
	case "paused":
		return CampaignPaused, true
	case "completed":
		return CampaignCompleted, true
	case "cancelled":
		return CampaignCancelled, true
	}
	return 0, false
}

// UserType mirrors the user registry's userTypes mapping.
type UserType uint8

const (
	UserTypeNone UserType = iota
	UserTypeBrand
	UserTypeCreator
)

func (u UserType) String() string {
	switch u {
	case UserTypeBrand:
		return "Brand"
	case UserTypeCreator:
		return "Creator"
	default:
		return "None"
	}
}

// VerificationStatus is shared by submissions and AI verification records.
type VerificationStatus uint8

const (
	VerificationPending VerificationStatus = iota
	VerificationVerified
	VerificationRejected
)

func (s VerificationStatus) String() string {
	switch s {
	case VerificationPending:
		return "pending"
	case VerificationVerified:
		return "verified"
	case VerificationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// VerificationLevel is the registry's trust tier for brands and creators.
type VerificationLevel uint8

const (
	LevelUnverified VerificationLevel = iota
	LevelBasic
	LevelPremium
	LevelEnterprise
)

func (l VerificationLevel) String() string {
	switch l {
	case LevelBasic:
		return "Basic"
	case LevelPremium:
		return "Premium"
	case LevelEnterprise:
		return "Enterprise"
	default:
		return "Unverified"
	}
}

// CampaignRecord is the campaign manager's Campaign struct. Field order
// matches the on-chain tuple and must not be changed.
type CampaignRecord struct {
	Brand            common.Address `json:"brand"`
	Requirements     string         `json:"requirements"`
	PaymentPerPost   *big.Int       `json:"paymentPerPost"`
	Deadline         *big.Int       `json:"deadline"`
	MaxPosts         *big.Int       `json:"maxPosts"`
	CurrentPosts     *big.Int       `json:"currentPosts"`
	MinFollowers     *big.Int       `json:"minFollowers"`
	Status           uint8          `json:"status"`
	CreatedAt        *big.Int       `json:"createdAt"`
	RequiredHashtags []string       `json:"requiredHashtags"`
}

// CampaignStatus returns the typed status.
func (c CampaignRecord) CampaignStatus() CampaignStatus {
	return CampaignStatus(c.Status)
}

// SubmissionRecord is the campaign manager's Submission struct. Fields whose
// Go name differs from the tuple name carry abi tags.
type SubmissionRecord struct {
	CampaignID   *big.Int       `json:"campaignId" abi:"campaignId"`
	Creator      common.Address `json:"creator"`
	PostURL      string         `json:"postUrl" abi:"postUrl"`
	Requirements []string       `json:"requirements"`
	Status       uint8          `json:"status"`
	SubmittedAt  *big.Int       `json:"submittedAt"`
	VerifiedAt   *big.Int       `json:"verifiedAt"`
}

// VerificationRecord is the AI verification contract's verdict for a
// submission.
type VerificationRecord struct {
	SubmissionID *big.Int `json:"submissionId" abi:"submissionId"`
	Status       uint8    `json:"status"`
	Score        *big.Int `json:"score"`
	Reason       string   `json:"reason"`
	VerifiedAt   *big.Int `json:"verifiedAt"`
}

// BrandRecord is the user registry's Brand struct.
type BrandRecord struct {
	CompanyName       string   `json:"companyName"`
	Description       string   `json:"description"`
	WebsiteURL        string   `json:"websiteUrl" abi:"websiteUrl"`
	LogoURL           string   `json:"logoUrl" abi:"logoUrl"`
	Industries        []string `json:"industries"`
	ContactEmail      string   `json:"contactEmail"`
	TotalCampaigns    *big.Int `json:"totalCampaigns"`
	ActiveCampaigns   *big.Int `json:"activeCampaigns"`
	TotalSpent        *big.Int `json:"totalSpent"`
	VerificationLevel uint8    `json:"verificationLevel"`
	RegisteredAt      *big.Int `json:"registeredAt"`
	IsActive          bool     `json:"isActive"`
}

// SocialMedia is the creator's linked handles. The abi tags are needed
// because the registry spells the fields in lower case.
type SocialMedia struct {
	Twitter   string `json:"twitter" abi:"twitter"`
	Instagram string `json:"instagram" abi:"instagram"`
	Tiktok    string `json:"tiktok" abi:"tiktok"`
	Youtube   string `json:"youtube" abi:"youtube"`
	Linkedin  string `json:"linkedin" abi:"linkedin"`
	Website   string `json:"website" abi:"website"`
}

// CreatorRecord is the user registry's Creator struct.
type CreatorRecord struct {
	Username           string      `json:"username"`
	DisplayName        string      `json:"displayName"`
	Bio                string      `json:"bio"`
	ProfileImageURL    string      `json:"profileImageUrl" abi:"profileImageUrl"`
	SocialMedia        SocialMedia `json:"socialMedia"`
	TotalFollowers     *big.Int    `json:"totalFollowers"`
	Categories         []string    `json:"categories"`
	Languages          []string    `json:"languages"`
	TotalEarned        *big.Int    `json:"totalEarned"`
	CompletedCampaigns *big.Int    `json:"completedCampaigns"`
	AverageRating      *big.Int    `json:"averageRating"`
	VerificationLevel  uint8       `json:"verificationLevel"`
	RegisteredAt       *big.Int    `json:"registeredAt"`
	IsActive           bool        `json:"isActive"`
}

// UserTotals is the result of getTotalUsers.
type UserTotals struct {
	TotalBrands      *big.Int `json:"totalBrands" abi:"totalBrands"`
	TotalCreators    *big.Int `json:"totalCreators" abi:"totalCreators"`
	VerifiedBrands   *big.Int `json:"verifiedBrands" abi:"verifiedBrands"`
	VerifiedCreators *big.Int `json:"verifiedCreators" abi:"verifiedCreators"`
}

// PlatformConfig is the result of getPlatformConfig. FeeRate is in basis
// points; durations are in seconds.
type PlatformConfig struct {
	FeeRate             *big.Int       `json:"feeRate" abi:"feeRate"`
	FeeReceiver         common.Address `json:"feeReceiver" abi:"feeReceiver"`
	MinCampaignDuration *big.Int       `json:"minCampaignDuration" abi:"minCampaignDuration"`
	MaxCampaignDuration *big.Int       `json:"maxCampaignDuration" abi:"maxCampaignDuration"`
}

// DefaultPlatformConfig is used when the platform core cannot be read.
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		FeeRate:             big.NewInt(DefaultFeeRateBps),
		MinCampaignDuration: big.NewInt(MinCampaignDuration),
		MaxCampaignDuration: big.NewInt(MaxCampaignDuration),
	}
}

// DepositRecord is the payment escrow's per-campaign deposit.
type DepositRecord struct {
	Brand           common.Address `json:"brand" abi:"brand"`
	TotalAmount     *big.Int       `json:"totalAmount" abi:"totalAmount"`
	RemainingAmount *big.Int       `json:"remainingAmount" abi:"remainingAmount"`
	IsActive        bool           `json:"isActive" abi:"isActive"`
}

// ContractSet is the result of getContractAddresses.
type ContractSet struct {
	UserRegistry    common.Address `json:"userRegistry" abi:"userRegistry"`
	CampaignManager common.Address `json:"campaignManager" abi:"campaignManager"`
	PaymentEscrow   common.Address `json:"paymentEscrow" abi:"paymentEscrow"`
	AIVerification  common.Address `json:"aiVerification" abi:"aiVerification"`
	PYUSDToken      common.Address `json:"pyusdToken" abi:"pyusdToken"`
}
