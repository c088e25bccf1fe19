package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/icb"
)

// pyusd registers the token with go-money so budgets split in base units.
var pyusd = money.AddCurrency(icb.Currency, "$", "$1", ".", ",", evm.PYUSD_DECIMALS)

// CampaignDraft is the campaign creation form. PaymentPerPost is a decimal
// PYUSD string as typed by the brand.
type CampaignDraft struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Platforms        []string  `json:"platforms"`
	Location         string    `json:"location"`
	Requirements     string    `json:"requirements"`
	ContentTypes     []string  `json:"contentTypes"`
	MinFollowers     int64     `json:"minFollowers"`
	RequiredHashtags []string  `json:"requiredHashtags"`
	Difficulty       string    `json:"difficulty"`
	PaymentPerPost   string    `json:"paymentPerPost"`
	MaxPosts         int64     `json:"maxPosts"`
	Deadline         time.Time `json:"deadline"`
}

// NewCampaignDraft returns the form's starting values.
func NewCampaignDraft() CampaignDraft {
	return CampaignDraft{
		Platforms:        []string{},
		ContentTypes:     []string{},
		RequiredHashtags: []string{},
		Location:         "Remote",
		Difficulty:       "Easy",
		MinFollowers:     1000,
		MaxPosts:         1,
	}
}

// CampaignRules are the chain-derived limits a draft is checked against.
// Balance is nil when the brand's balance is unknown, which skips the
// balance check.
type CampaignRules struct {
	Now         time.Time
	MinDuration time.Duration
	MaxDuration time.Duration
	FeeRateBps  int64
	Balance     *evm.PYUSDAmount
}

// RulesFromConfig converts the platform config, falling back to one day,
// one year and 2.5% when the contract reports zeros.
func RulesFromConfig(cfg evm.PlatformConfig, now time.Time) CampaignRules {
	r := CampaignRules{
		Now:         now,
		MinDuration: evm.MinCampaignDuration * time.Second,
		MaxDuration: evm.MaxCampaignDuration * time.Second,
		FeeRateBps:  evm.DefaultFeeRateBps,
	}
	if cfg.MinCampaignDuration != nil && cfg.MinCampaignDuration.Sign() > 0 && cfg.MinCampaignDuration.IsInt64() {
		r.MinDuration = time.Duration(cfg.MinCampaignDuration.Int64()) * time.Second
	}
	if cfg.MaxCampaignDuration != nil && cfg.MaxCampaignDuration.Sign() > 0 && cfg.MaxCampaignDuration.IsInt64() {
		r.MaxDuration = time.Duration(cfg.MaxCampaignDuration.Int64()) * time.Second
	}
	if cfg.FeeRate != nil && cfg.FeeRate.Sign() > 0 && cfg.FeeRate.IsInt64() {
		r.FeeRateBps = cfg.FeeRate.Int64()
	}
	return r
}

// Budget is what a campaign locks in escrow: the posts total plus the
// platform fee.
type Budget struct {
	Total *evm.PYUSDAmount
	Fee   *evm.PYUSDAmount
	Final *evm.PYUSDAmount
}

func (b Budget) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"total":    b.Total.String(),
		"fee":      b.Fee.String(),
		"final":    b.Final.String(),
		"currency": icb.Currency,
	})
}

// CampaignBudget computes paymentPerPost × maxPosts and adds feeBps basis
// points of it. The fee rounds down to the base unit.
func CampaignBudget(paymentPerPost *evm.PYUSDAmount, maxPosts, feeBps int64) (Budget, error) {
	if paymentPerPost == nil || maxPosts < 0 || feeBps < 0 || feeBps > evm.BasisPoints {
		return Budget{}, fmt.Errorf("invalid budget inputs")
	}
	total := paymentPerPost.Mul(big.NewInt(maxPosts))
	// Allocate multiplies by the ratio sum, keep well inside int64.
	if !total.Value.IsInt64() || total.Value.Int64() > math.MaxInt64/evm.BasisPoints {
		return Budget{}, fmt.Errorf("total budget is too large")
	}
	parties, err := money.New(total.Value.Int64(), pyusd.Code).Allocate(int(evm.BasisPoints-feeBps), int(feeBps))
	if err != nil {
		return Budget{}, fmt.Errorf("failed to allocate platform fee: %w", err)
	}
	fee := evm.PYUSDFromBaseUnits(big.NewInt(parties[1].Amount()))
	return Budget{Total: total, Fee: fee, Final: total.Add(fee)}, nil
}

// CampaignSteps are basic info, requirements, budget & timeline, and review.
func CampaignSteps(rules CampaignRules) []Step[CampaignDraft] {
	return []Step[CampaignDraft]{
		{Name: "Basic Info", Validate: validateBasicInfo},
		{Name: "Requirements", Validate: validateCampaignRequirements},
		{Name: "Budget & Timeline", Validate: func(d CampaignDraft) FieldErrors { return validateBudget(d, rules) }},
		{Name: "Review", Validate: func(d CampaignDraft) FieldErrors { return validateReview(d, rules) }},
	}
}

func validateBasicInfo(d CampaignDraft) FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(d.Title) == "" {
		fe.add("title", "Campaign title is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		fe.add("description", "Description is required")
	}
	if d.Category == "" {
		fe.add("category", "Category is required")
	}
	if len(d.Platforms) == 0 {
		fe.add("platforms", "Select at least one platform")
	}
	return fe
}

func validateCampaignRequirements(d CampaignDraft) FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(d.Requirements) == "" {
		fe.add("requirements", "Requirements are required")
	}
	if len(d.ContentTypes) == 0 {
		fe.add("contentTypes", "Select at least one content type")
	}
	if d.MinFollowers < 0 {
		fe.add("minFollowers", "Minimum followers must be positive")
	}
	return fe
}

func validateBudget(d CampaignDraft, rules CampaignRules) FieldErrors {
	fe := FieldErrors{}
	p, err := evm.ParsePYUSD(d.PaymentPerPost)
	switch {
	case errors.Is(err, evm.ErrTooManyDecimals):
		fe.add("paymentPerPost", fmt.Sprintf("Payment per post supports at most %d decimal places", evm.PYUSD_DECIMALS))
	case err != nil || !p.IsPositive():
		fe.add("paymentPerPost", "Payment per post must be greater than 0")
	}
	if d.MaxPosts <= 0 {
		fe.add("maxPosts", "Max posts must be greater than 0")
	}
	switch {
	case d.Deadline.IsZero():
		fe.add("deadline", "Deadline is required")
	case !d.Deadline.After(rules.Now.Add(rules.MinDuration)):
		fe.add("deadline", "Deadline must be at least 24 hours from now")
	case !d.Deadline.Before(rules.Now.Add(rules.MaxDuration)):
		fe.add("deadline", "Deadline cannot be more than 1 year from now")
	}
	return fe
}

func validateReview(d CampaignDraft, rules CampaignRules) FieldErrors {
	fe := FieldErrors{}
	if rules.Balance == nil {
		return fe
	}
	b, err := d.Budget(rules.FeeRateBps)
	if err != nil {
		fe.add("budget", "Budget could not be computed")
		return fe
	}
	if b.Final.Cmp(rules.Balance) > 0 {
		fe.add("budget", "Total budget exceeds your PYUSD balance")
	}
	return fe
}

// Budget prices the draft at feeBps.
func (d CampaignDraft) Budget(feeBps int64) (Budget, error) {
	p, err := evm.ParsePYUSD(d.PaymentPerPost)
	if err != nil {
		return Budget{}, fmt.Errorf("invalid payment per post: %w", err)
	}
	return CampaignBudget(p, d.MaxPosts, feeBps)
}

// RequirementsJSON is the document stored in the campaign's requirements
// string and read back by icb.ParseRequirements.
func (d CampaignDraft) RequirementsJSON() (string, error) {
	doc := icb.RequirementsDoc{
		Title:        d.Title,
		Description:  d.Description,
		Requirements: d.Requirements,
		Category:     d.Category,
		Platforms:    d.Platforms,
		ContentTypes: d.ContentTypes,
		Location:     d.Location,
		Difficulty:   d.Difficulty,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Params converts a validated draft into createCampaign arguments with the
// fee-inclusive budget.
func (d CampaignDraft) Params(feeBps int64) (evm.CampaignParams, Budget, error) {
	payment, err := evm.ParsePYUSD(d.PaymentPerPost)
	if err != nil {
		return evm.CampaignParams{}, Budget{}, fmt.Errorf("invalid payment per post: %w", err)
	}
	b, err := CampaignBudget(payment, d.MaxPosts, feeBps)
	if err != nil {
		return evm.CampaignParams{}, Budget{}, err
	}
	reqs, err := d.RequirementsJSON()
	if err != nil {
		return evm.CampaignParams{}, Budget{}, fmt.Errorf("failed to encode requirements: %w", err)
	}
	return evm.CampaignParams{
		Requirements:     reqs,
		PaymentPerPost:   payment.ToSmallestUnit(),
		MaxPosts:         big.NewInt(d.MaxPosts),
		Deadline:         big.NewInt(d.Deadline.Unix()),
		RequiredHashtags: d.RequiredHashtags,
		MinFollowers:     big.NewInt(d.MinFollowers),
		BudgetAmount:     b.Final.ToSmallestUnit(),
	}, b, nil
}
