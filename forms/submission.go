package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/icb"
)

type postPattern struct {
	platform string
	re       *regexp.Regexp
}

// Checked in order; the first match names the platform.
var postPatterns = []postPattern{
	{"instagram", regexp.MustCompile(`^https?://(www\.)?instagram\.com/(p|reel)/[a-zA-Z0-9_-]+`)},
	{"twitter", regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/[a-zA-Z0-9_]+/status/[0-9]+`)},
	{"tiktok", regexp.MustCompile(`^https?://(www\.)?tiktok\.com/@[a-zA-Z0-9_.]+/video/[0-9]+`)},
}

// DetectPlatform reports which supported platform a post URL belongs to.
func DetectPlatform(url string) (string, bool) {
	for _, p := range postPatterns {
		if p.re.MatchString(url) {
			return p.platform, true
		}
	}
	return "unknown", false
}

// ChecklistItem is one requirement the creator confirms before submitting.
type ChecklistItem struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ChecklistForCampaign derives the submission checklist from the on-chain
// campaign.
func ChecklistForCampaign(rec evm.CampaignRecord) []ChecklistItem {
	doc := icb.ParseRequirements(rec.Requirements)
	var items []ChecklistItem
	if len(rec.RequiredHashtags) > 0 {
		tags := make([]string, len(rec.RequiredHashtags))
		for i, t := range rec.RequiredHashtags {
			tags[i] = "#" + strings.TrimPrefix(t, "#")
		}
		items = append(items, ChecklistItem{
			ID:          "hashtags",
			Label:       "Required hashtags included",
			Description: "Post includes all required hashtags: " + strings.Join(tags, ", "),
			Required:    true,
		})
	}
	if rec.MinFollowers != nil && rec.MinFollowers.Sign() > 0 {
		items = append(items, ChecklistItem{
			ID:          "followers",
			Label:       "Follower minimum met",
			Description: fmt.Sprintf("Account has at least %s followers", rec.MinFollowers),
			Required:    true,
		})
	}
	if doc.Requirements != "" {
		items = append(items, ChecklistItem{
			ID:          "brief",
			Label:       "Campaign requirements met",
			Description: doc.Requirements,
			Required:    true,
		})
	}
	return append(items,
		ChecklistItem{ID: "quality", Label: "High-quality visuals", Description: "Images/videos are high resolution with good lighting", Required: true},
		ChecklistItem{ID: "caption", Label: "Authentic caption", Description: "Caption feels natural and mentions personal experience", Required: true},
		ChecklistItem{ID: "context", Label: "Lifestyle context", Description: "Content shows product in real-life styling situation", Required: false},
	)
}

// SubmissionDraft is the post submission form. Checked holds checklist
// item ids.
type SubmissionDraft struct {
	CampaignID uint64   `json:"campaignId"`
	PostURL    string   `json:"postUrl"`
	Checked    []string `json:"checked"`
	Notes      string   `json:"notes"`
}

func (d SubmissionDraft) isChecked(id string) bool {
	for _, c := range d.Checked {
		if c == id {
			return true
		}
	}
	return false
}

// SubmissionSteps are post URL, requirements checklist and review.
func SubmissionSteps(checklist []ChecklistItem) []Step[SubmissionDraft] {
	return []Step[SubmissionDraft]{
		{Name: "Post URL", Validate: validatePostURL},
		{Name: "Requirements", Validate: func(d SubmissionDraft) FieldErrors {
			fe := FieldErrors{}
			var missing []string
			for _, item := range checklist {
				if item.Required && !d.isChecked(item.ID) {
					missing = append(missing, item.Label)
				}
			}
			if len(missing) > 0 {
				fe.add("checked", "All required items must be checked before submission: "+strings.Join(missing, ", "))
			}
			return fe
		}},
		{Name: "Review"},
	}
}

func validatePostURL(d SubmissionDraft) FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(d.PostURL) == "" {
		fe.add("postUrl", "Please enter a valid post URL")
		return fe
	}
	if _, ok := DetectPlatform(d.PostURL); !ok {
		fe.add("postUrl", "Please enter a valid Instagram, Twitter/X, or TikTok post URL")
	}
	return fe
}

// SubmittedRequirements is the requirements list sent with submitPost: the
// labels of checked items, then the platform and any notes.
func (d SubmissionDraft) SubmittedRequirements(checklist []ChecklistItem) []string {
	out := []string{}
	for _, item := range checklist {
		if d.isChecked(item.ID) {
			out = append(out, item.Label)
		}
	}
	platform, _ := DetectPlatform(d.PostURL)
	out = append(out, "platform:"+platform)
	if notes := strings.TrimSpace(d.Notes); notes != "" {
		out = append(out, "notes:"+notes)
	}
	return out
}
