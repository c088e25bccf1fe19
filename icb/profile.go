package icb

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
)

// UserProfile is the registry view of one wallet. Exactly one of Brand and
// Creator is set for registered users; Campaigns holds the brand's campaign
// ids or the creator's submission ids.
type UserProfile struct {
	Address   string          `json:"address"`
	UserType  evm.UserType    `json:"userType"`
	TypeLabel string          `json:"userTypeLabel"`
	Brand     *BrandProfile   `json:"-"`
	Creator   *CreatorProfile `json:"-"`
	Campaigns []uint64        `json:"campaigns"`
}

// UserData returns whichever profile is set, or nil.
func (p UserProfile) UserData() interface{} {
	switch {
	case p.Brand != nil:
		return p.Brand
	case p.Creator != nil:
		return p.Creator
	default:
		return nil
	}
}

type BrandProfile struct {
	CompanyName       string    `json:"companyName"`
	Description       string    `json:"description"`
	WebsiteURL        string    `json:"websiteUrl"`
	LogoURL           string    `json:"logoUrl"`
	Industry          string    `json:"industry"`
	Industries        []string  `json:"industries"`
	ContactEmail      string    `json:"contactEmail"`
	TotalCampaigns    int64     `json:"totalCampaigns"`
	ActiveCampaigns   int64     `json:"activeCampaigns"`
	TotalSpent        string    `json:"totalSpent"`
	VerificationLevel string    `json:"verificationLevel"`
	RegisteredAt      time.Time `json:"registeredAt"`
	IsActive          bool      `json:"isActive"`
}

type CreatorProfile struct {
	Username           string          `json:"username"`
	DisplayName        string          `json:"displayName"`
	Bio                string          `json:"bio"`
	ProfileImageURL    string          `json:"profileImageUrl"`
	SocialMedia        evm.SocialMedia `json:"socialMedia"`
	TotalFollowers     int64           `json:"totalFollowers"`
	Categories         []string        `json:"categories"`
	Languages          []string        `json:"languages"`
	TotalEarned        string          `json:"totalEarned"`
	CompletedCampaigns int64           `json:"completedCampaigns"`
	AverageRating      float64         `json:"averageRating"`
	VerificationLevel  string          `json:"verificationLevel"`
	RegisteredAt       time.Time       `json:"registeredAt"`
	IsActive           bool            `json:"isActive"`
}

func NewBrandProfile(rec evm.BrandRecord) *BrandProfile {
	p := &BrandProfile{
		CompanyName:       rec.CompanyName,
		Description:       rec.Description,
		WebsiteURL:        rec.WebsiteURL,
		LogoURL:           rec.LogoURL,
		Industries:        nonNil(rec.Industries),
		ContactEmail:      rec.ContactEmail,
		TotalCampaigns:    clampInt64(rec.TotalCampaigns),
		ActiveCampaigns:   clampInt64(rec.ActiveCampaigns),
		TotalSpent:        evm.PYUSDFromBaseUnits(rec.TotalSpent).String(),
		VerificationLevel: evm.VerificationLevel(rec.VerificationLevel).String(),
		RegisteredAt:      time.Unix(clampInt64(rec.RegisteredAt), 0).UTC(),
		IsActive:          rec.IsActive,
	}
	if len(rec.Industries) > 0 {
		p.Industry = rec.Industries[0]
	}
	return p
}

// NewCreatorProfile converts the registry record. Ratings are stored in
// hundredths, so 450 is a 4.5 rating.
func NewCreatorProfile(rec evm.CreatorRecord) *CreatorProfile {
	return &CreatorProfile{
		Username:           rec.Username,
		DisplayName:        rec.DisplayName,
		Bio:                rec.Bio,
		ProfileImageURL:    rec.ProfileImageURL,
		SocialMedia:        rec.SocialMedia,
		TotalFollowers:     clampInt64(rec.TotalFollowers),
		Categories:         nonNil(rec.Categories),
		Languages:          nonNil(rec.Languages),
		TotalEarned:        evm.PYUSDFromBaseUnits(rec.TotalEarned).String(),
		CompletedCampaigns: clampInt64(rec.CompletedCampaigns),
		AverageRating:      float64(clampInt64(rec.AverageRating)) / 100,
		VerificationLevel:  evm.VerificationLevel(rec.VerificationLevel).String(),
		RegisteredAt:       time.Unix(clampInt64(rec.RegisteredAt), 0).UTC(),
		IsActive:           rec.IsActive,
	}
}

// LoadUserProfile reads the user's type and then either the brand record
// and its campaigns or the creator record and its submissions. Any read
// failure fails the whole profile.
func LoadUserProfile(ctx context.Context, r evm.Reader, addr common.Address) (UserProfile, error) {
	ut, err := r.UserType(ctx, addr)
	if err != nil {
		return UserProfile{}, fmt.Errorf("failed to read user type: %w", err)
	}
	p := UserProfile{Address: addr.Hex(), UserType: ut, TypeLabel: ut.String()}

	switch ut {
	case evm.UserTypeBrand:
		rec, err := r.GetBrand(ctx, addr)
		if err != nil {
			return UserProfile{}, fmt.Errorf("failed to read brand: %w", err)
		}
		ids, err := r.GetBrandCampaigns(ctx, addr)
		if err != nil {
			return UserProfile{}, fmt.Errorf("failed to read brand campaigns: %w", err)
		}
		p.Brand = NewBrandProfile(rec)
		p.Campaigns = ToUint64s(ids)
	case evm.UserTypeCreator:
		rec, err := r.GetCreator(ctx, addr)
		if err != nil {
			return UserProfile{}, fmt.Errorf("failed to read creator: %w", err)
		}
		ids, err := r.GetCreatorSubmissions(ctx, addr)
		if err != nil {
			return UserProfile{}, fmt.Errorf("failed to read creator submissions: %w", err)
		}
		p.Creator = NewCreatorProfile(rec)
		p.Campaigns = ToUint64s(ids)
	}
	return p, nil
}

// ToUint64s converts on-chain id lists, dropping ids that do not fit.
func ToUint64s(ids []*big.Int) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == nil || !id.IsUint64() {
			continue
		}
		out = append(out, id.Uint64())
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
