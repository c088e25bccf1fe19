package forms

import (
	"math/big"
	"testing"

	"github.com/brojonat/influencechain/evm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		platform string
		ok       bool
	}{
		{"https://www.instagram.com/p/Cx12_ab-9", "instagram", true},
		{"http://instagram.com/reel/abc", "instagram", true},
		{"https://twitter.com/ada_l/status/123456", "twitter", true},
		{"https://x.com/ada/status/9", "twitter", true},
		{"https://www.tiktok.com/@ada.l/video/7123", "tiktok", true},
		{"https://www.instagram.com/ada_l", "unknown", false},
		{"https://youtube.com/watch?v=1", "unknown", false},
		{"", "unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p, ok := DetectPlatform(tt.url)
			assert.Equal(t, tt.platform, p)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestChecklistForCampaign(t *testing.T) {
	rec := evm.CampaignRecord{
		Requirements:     `{"requirements":"Tag @acme in the caption"}`,
		MinFollowers:     big.NewInt(5000),
		RequiredHashtags: []string{"summer", "#acme"},
	}
	items := ChecklistForCampaign(rec)
	require.Len(t, items, 6)
	assert.Equal(t, "hashtags", items[0].ID)
	assert.Equal(t, "Post includes all required hashtags: #summer, #acme", items[0].Description)
	assert.Equal(t, "Account has at least 5000 followers", items[1].Description)
	assert.Equal(t, "Tag @acme in the caption", items[2].Description)
	assert.False(t, items[5].Required)

	assert.Len(t, ChecklistForCampaign(evm.CampaignRecord{}), 3)
}

func TestSubmissionSteps(t *testing.T) {
	checklist := ChecklistForCampaign(evm.CampaignRecord{RequiredHashtags: []string{"summer"}})
	steps := SubmissionSteps(checklist)

	assert.Equal(t, "Please enter a valid post URL", steps[0].Validate(SubmissionDraft{})["postUrl"])
	assert.Equal(t, "Please enter a valid Instagram, Twitter/X, or TikTok post URL",
		steps[0].Validate(SubmissionDraft{PostURL: "https://example.com/post/1"})["postUrl"])

	d := SubmissionDraft{CampaignID: 3, PostURL: "https://x.com/ada/status/9", Checked: []string{"hashtags", "quality"}}
	fe := steps[1].Validate(d)
	assert.Contains(t, fe["checked"], "Authentic caption")
	assert.NotContains(t, fe["checked"], "Lifestyle context")

	d.Checked = append(d.Checked, "caption")
	require.NoError(t, Run(d, steps, func(SubmissionDraft) error { return nil }))

	d.Notes = "  posted at noon "
	assert.Equal(t,
		[]string{"Required hashtags included", "High-quality visuals", "Authentic caption", "platform:twitter", "notes:posted at noon"},
		d.SubmittedRequirements(checklist))
}
