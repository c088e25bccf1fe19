package api

import (
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/forms"
	"github.com/brojonat/influencechain/icb"
)

type DefaultJSONResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidationErrorResponse is returned when a prepare request fails a wizard
// step.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Step   int               `json:"step"`
	Name   string            `json:"stepName"`
	Fields forms.FieldErrors `json:"fields"`
}

type CampaignResponse struct {
	ID          uint64             `json:"id"`
	Campaign    evm.CampaignRecord `json:"campaign"`
	Submissions []uint64           `json:"submissions"`
	FetchedAt   time.Time          `json:"fetchedAt"`
}

type ActiveCampaignsResponse struct {
	icb.ActiveListing
	FetchedAt time.Time `json:"fetchedAt"`
}

type CampaignPageResponse struct {
	icb.CampaignPage
	FetchedAt time.Time `json:"fetchedAt"`
}

type StatsResponse struct {
	TotalUsers     evm.UserTotals `json:"totalUsers"`
	TotalCampaigns uint64         `json:"totalCampaigns"`
	FetchedAt      time.Time      `json:"fetchedAt"`
}

type UserResponse struct {
	Address       string       `json:"address"`
	UserType      evm.UserType `json:"userType"`
	UserTypeLabel string       `json:"userTypeLabel"`
	UserData      interface{}  `json:"userData"`
	Campaigns     []uint64     `json:"campaigns"`
	FetchedAt     time.Time    `json:"fetchedAt"`
}

type DepositResponse struct {
	CampaignID      uint64    `json:"campaignId"`
	Brand           string    `json:"brand"`
	TotalAmount     string    `json:"totalAmount"`
	RemainingAmount string    `json:"remainingAmount"`
	ReleasedAmount  string    `json:"releasedAmount"`
	Currency        string    `json:"currency"`
	IsActive        bool      `json:"isActive"`
	FetchedAt       time.Time `json:"fetchedAt"`
}

type SubmissionResponse struct {
	ID           uint64                  `json:"id"`
	Submission   evm.SubmissionRecord    `json:"submission"`
	Status       string                  `json:"status"`
	Verification *evm.VerificationRecord `json:"verification,omitempty"`
	FetchedAt    time.Time               `json:"fetchedAt"`
}

type ConfigResponse struct {
	ChainID   int64              `json:"chainId"`
	Contracts evm.Addresses      `json:"contracts"`
	Platform  evm.PlatformConfig `json:"platform"`
	Currency  string             `json:"currency"`
	Decimals  int                `json:"decimals"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// PrepareResponse lists the transactions the wallet must sign, in order.
type PrepareResponse struct {
	Transactions []evm.UnsignedTx `json:"transactions"`
	Budget       *forms.Budget    `json:"budget,omitempty"`
}

type RegistrationPrepareRequest = forms.RegistrationDraft

// CampaignPrepareRequest carries the brand wallet so the budget can be
// checked against its PYUSD balance.
type CampaignPrepareRequest struct {
	Brand string              `json:"brand"`
	Draft forms.CampaignDraft `json:"draft"`
}

type SubmissionPrepareRequest = forms.SubmissionDraft

type VerificationResponse struct {
	WorkflowID string               `json:"workflowId"`
	RunID      string               `json:"runId,omitempty"`
	Job        *icb.VerificationJob `json:"job,omitempty"`
}
