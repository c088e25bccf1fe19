package forms

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/brojonat/influencechain/evm"
)

type Role string

const (
	RoleBrand   Role = "brand"
	RoleCreator Role = "creator"
)

var (
	emailPattern    = regexp.MustCompile(`\S+@\S+\.\S+`)
	websitePattern  = regexp.MustCompile(`^https?://.+\..+`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// RegistrationDraft is the single-step registration form. Only the fields
// of the chosen role are validated and sent.
type RegistrationDraft struct {
	Role Role `json:"role"`

	CompanyName  string `json:"companyName"`
	Description  string `json:"description"`
	Website      string `json:"website"`
	LogoURL      string `json:"logoUrl"`
	Industry     string `json:"industry"`
	ContactEmail string `json:"contactEmail"`

	Username        string          `json:"username"`
	DisplayName     string          `json:"displayName"`
	Bio             string          `json:"bio"`
	ProfileImageURL string          `json:"profileImageUrl"`
	SocialMedia     evm.SocialMedia `json:"socialMedia"`
	TotalFollowers  int64           `json:"totalFollowers"`
	Categories      []string        `json:"categories"`
	Languages       []string        `json:"languages"`
}

func RegistrationSteps() []Step[RegistrationDraft] {
	return []Step[RegistrationDraft]{{Name: "Profile", Validate: validateRegistration}}
}

func validateRegistration(d RegistrationDraft) FieldErrors {
	fe := FieldErrors{}
	switch d.Role {
	case RoleBrand:
		// format errors replace presence errors for the same field
		if d.ContactEmail != "" && !emailPattern.MatchString(d.ContactEmail) {
			fe.add("contactEmail", "Please enter a valid email address")
		}
		if d.Website != "" && !websitePattern.MatchString(d.Website) {
			fe.add("website", "Please enter a valid website URL")
		}
		if strings.TrimSpace(d.CompanyName) == "" {
			fe.add("companyName", "Company name is required")
		}
		if strings.TrimSpace(d.ContactEmail) == "" {
			fe.add("contactEmail", "Contact email is required")
		}
		if strings.TrimSpace(d.Industry) == "" {
			fe.add("industry", "Industry is required")
		}
	case RoleCreator:
		if d.Username != "" && !usernamePattern.MatchString(d.Username) {
			fe.add("username", "Username can only contain letters, numbers, and underscores")
		}
		if strings.TrimSpace(d.Username) == "" {
			fe.add("username", "Username is required")
		}
		if strings.TrimSpace(d.DisplayName) == "" {
			fe.add("displayName", "Display name is required")
		}
		if strings.TrimSpace(d.Bio) == "" {
			fe.add("bio", "Bio is required")
		}
		if len(d.Categories) == 0 {
			fe.add("categories", "Select at least one category")
		}
	default:
		fe.add("role", "Select brand or creator")
	}
	return fe
}

func (d RegistrationDraft) BrandParams() evm.BrandParams {
	return evm.BrandParams{
		CompanyName:  d.CompanyName,
		Description:  d.Description,
		WebsiteURL:   d.Website,
		LogoURL:      d.LogoURL,
		Industries:   []string{d.Industry},
		ContactEmail: d.ContactEmail,
	}
}

func (d RegistrationDraft) CreatorParams() evm.CreatorParams {
	followers := d.TotalFollowers
	if followers < 0 {
		followers = 0
	}
	return evm.CreatorParams{
		Username:        d.Username,
		DisplayName:     d.DisplayName,
		Bio:             d.Bio,
		ProfileImageURL: d.ProfileImageURL,
		SocialMedia:     d.SocialMedia,
		TotalFollowers:  big.NewInt(followers),
		Categories:      d.Categories,
		Languages:       d.Languages,
	}
}
