package icb

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
)

const (
	Currency = "PYUSD"

	defaultDescription = "No description available"
	defaultLocation    = "Remote"
	defaultCategory    = "General"
	titleMaxRunes      = 50

	hardFollowers   = 100_000
	mediumFollowers = 10_000
)

var (
	defaultPlatforms    = []string{"Instagram"}
	defaultContentTypes = []string{"Photo"}
)

// Campaign is the display shape of an on-chain campaign.
type Campaign struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Brand            string               `json:"brand"`
	Description      string               `json:"description"`
	Payment          float64              `json:"payment"`
	Currency         string               `json:"currency"`
	Deadline         string               `json:"deadline"`
	Location         string               `json:"location"`
	Category         string               `json:"category"`
	Difficulty       string               `json:"difficulty"`
	Requirements     CampaignRequirements `json:"requirements"`
	Participants     int64                `json:"participants"`
	MaxParticipants  int64                `json:"maxParticipants"`
	Status           string               `json:"status"`
	PostedDate       string               `json:"postedDate"`
	Engagement       Engagement           `json:"engagement"`
	RequiredHashtags []string             `json:"requiredHashtags"`
	TotalBudget      float64              `json:"totalBudget"`
}

type CampaignRequirements struct {
	MinFollowers int64    `json:"minFollowers"`
	Platforms    []string `json:"platforms"`
	ContentType  []string `json:"contentType"`
}

type Engagement struct {
	Applications int64 `json:"applications"`
}

// RequirementsDoc is the JSON document brands store in a campaign's
// requirements string. Every field is optional.
type RequirementsDoc struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Category     string   `json:"category,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	ContentTypes []string `json:"contentTypes,omitempty"`
	Location     string   `json:"location,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// ParseRequirements never fails. Input that is not a JSON object becomes
// a document whose Description is the raw input. Individual fields of the
// wrong type are dropped rather than failing the whole document.
func ParseRequirements(raw string) RequirementsDoc {
	if strings.TrimSpace(raw) == "" {
		return RequirementsDoc{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return RequirementsDoc{Description: raw}
	}
	var doc RequirementsDoc
	lenient(fields, "title", &doc.Title)
	lenient(fields, "description", &doc.Description)
	lenient(fields, "requirements", &doc.Requirements)
	lenient(fields, "category", &doc.Category)
	lenient(fields, "platforms", &doc.Platforms)
	lenient(fields, "contentTypes", &doc.ContentTypes)
	lenient(fields, "location", &doc.Location)
	lenient(fields, "difficulty", &doc.Difficulty)
	return doc
}

func lenient(fields map[string]json.RawMessage, key string, dst interface{}) {
	if v, ok := fields[key]; ok {
		_ = json.Unmarshal(v, dst)
	}
}

// DeadlineText renders the time left before deadline (unix seconds):
// whole days when at least one day remains, otherwise whole hours.
func DeadlineText(deadline *big.Int, now time.Time) string {
	left := float64(clampInt64(deadline)) - float64(now.UnixMilli())/1000
	if left <= 0 {
		return "Expired"
	}
	days := int64(math.Floor(left / (24 * 60 * 60)))
	if days > 0 {
		return fmt.Sprintf("%d %s left", days, plural(days, "day"))
	}
	hours := int64(math.Floor(left / (60 * 60)))
	return fmt.Sprintf("%d %s left", hours, plural(hours, "hour"))
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Difficulty tiers a campaign by its follower requirement. Both
// thresholds are exclusive.
func Difficulty(minFollowers *big.Int) string {
	switch {
	case minFollowers == nil:
		return "Easy"
	case minFollowers.Cmp(big.NewInt(hardFollowers)) > 0:
		return "Hard"
	case minFollowers.Cmp(big.NewInt(mediumFollowers)) > 0:
		return "Medium"
	default:
		return "Easy"
	}
}

// StatusLabel maps the contract status enum to its display label.
func StatusLabel(status uint8) string {
	switch evm.CampaignStatus(status) {
	case evm.CampaignActive:
		return "Open"
	case evm.CampaignPaused:
		return "Paused"
	case evm.CampaignCompleted:
		return "Completed"
	case evm.CampaignCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// TruncateAddress renders 0x1234...abcd. The zero address is "Unknown".
func TruncateAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return "Unknown"
	}
	h := addr.Hex()
	return h[:6] + "..." + h[len(h)-4:]
}

// PostedDate formats a unix timestamp as M/D/YYYY in UTC.
func PostedDate(createdAt *big.Int) string {
	return time.Unix(clampInt64(createdAt), 0).UTC().Format("1/2/2006")
}

// TransformCampaign builds the display shape for campaign id. It is pure
// given now.
func TransformCampaign(rec evm.CampaignRecord, id uint64, now time.Time) Campaign {
	doc := ParseRequirements(rec.Requirements)

	description := doc.Description
	if description == "" {
		description = defaultDescription
	}
	payment := evm.PYUSDFromBaseUnits(rec.PaymentPerPost)
	maxPosts := clampInt64(rec.MaxPosts)
	hashtags := rec.RequiredHashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	return Campaign{
		ID:          fmt.Sprint(id),
		Title:       campaignTitle(doc, id),
		Brand:       TruncateAddress(rec.Brand),
		Description: description,
		Payment:     payment.ToPYUSD(),
		Currency:    Currency,
		Deadline:    DeadlineText(rec.Deadline, now),
		Location:    orDefault(doc.Location, defaultLocation),
		Category:    orDefault(doc.Category, defaultCategory),
		Difficulty:  Difficulty(rec.MinFollowers),
		Requirements: CampaignRequirements{
			MinFollowers: clampInt64(rec.MinFollowers),
			Platforms:    orDefaultList(doc.Platforms, defaultPlatforms),
			ContentType:  orDefaultList(doc.ContentTypes, defaultContentTypes),
		},
		Participants:     clampInt64(rec.CurrentPosts),
		MaxParticipants:  maxPosts,
		Status:           StatusLabel(rec.Status),
		PostedDate:       PostedDate(rec.CreatedAt),
		Engagement:       Engagement{Applications: clampInt64(rec.CurrentPosts)},
		RequiredHashtags: hashtags,
		TotalBudget:      payment.Mul(big.NewInt(maxPosts)).ToPYUSD(),
	}
}

func campaignTitle(doc RequirementsDoc, id uint64) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.Description != "" {
		d := doc.Description
		if utf8.RuneCountInString(d) > titleMaxRunes {
			d = string([]rune(d)[:titleMaxRunes])
		}
		return d + "..."
	}
	return fmt.Sprintf("Campaign #%d", id)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultList(v, def []string) []string {
	if len(v) == 0 {
		return append([]string(nil), def...)
	}
	return v
}

// clampInt64 converts chain integers for display. Nil is zero and values
// beyond int64 saturate.
func clampInt64(v *big.Int) int64 {
	switch {
	case v == nil:
		return 0
	case v.IsInt64():
		return v.Int64()
	case v.Sign() > 0:
		return math.MaxInt64
	default:
		return math.MinInt64
	}
}
