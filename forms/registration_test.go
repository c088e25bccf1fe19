package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegistration_Brand(t *testing.T) {
	fe := validateRegistration(RegistrationDraft{Role: RoleBrand})
	assert.Equal(t, "Company name is required", fe["companyName"])
	assert.Equal(t, "Contact email is required", fe["contactEmail"])
	assert.Equal(t, "Industry is required", fe["industry"])

	d := RegistrationDraft{Role: RoleBrand, CompanyName: "Acme", Industry: "Retail", ContactEmail: "not-an-email", Website: "acme"}
	fe = validateRegistration(d)
	assert.Equal(t, "Please enter a valid email address", fe["contactEmail"])
	assert.Equal(t, "Please enter a valid website URL", fe["website"])

	d.ContactEmail = "ops@acme.io"
	d.Website = "https://acme.io"
	assert.Empty(t, validateRegistration(d))

	p := d.BrandParams()
	assert.Equal(t, []string{"Retail"}, p.Industries)
	assert.Equal(t, "https://acme.io", p.WebsiteURL)
}

func TestValidateRegistration_Creator(t *testing.T) {
	fe := validateRegistration(RegistrationDraft{Role: RoleCreator})
	assert.Equal(t, "Username is required", fe["username"])
	assert.Equal(t, "Display name is required", fe["displayName"])
	assert.Equal(t, "Bio is required", fe["bio"])
	assert.Equal(t, "Select at least one category", fe["categories"])

	d := RegistrationDraft{Role: RoleCreator, Username: "ada lovelace", DisplayName: "Ada", Bio: "hi", Categories: []string{"Tech"}}
	assert.Equal(t, "Username can only contain letters, numbers, and underscores", validateRegistration(d)["username"])

	d.Username = "ada_l"
	d.TotalFollowers = -5
	assert.Empty(t, validateRegistration(d))
	assert.Equal(t, int64(0), d.CreatorParams().TotalFollowers.Int64())
}

func TestValidateRegistration_UnknownRole(t *testing.T) {
	fe := validateRegistration(RegistrationDraft{})
	assert.Equal(t, "Select brand or creator", fe["role"])
}
