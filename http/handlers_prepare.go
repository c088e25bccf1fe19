package http

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/forms"
	"github.com/brojonat/influencechain/http/api"
	"github.com/ethereum/go-ethereum/common"
)

var (
	errCampaignNotOpen = errors.New("Campaign is not accepting participants")
	errCampaignExpired = errors.New("Campaign deadline has passed")
)

// writeWizardError answers a failed forms.Run: validation failures are the
// client's, anything else is ours.
func writeWizardError(l *slog.Logger, w http.ResponseWriter, err error) {
	if writeValidationError(w, err) {
		return
	}
	writeInternalError(l, w, err, "Failed to prepare transaction")
}

// handlePrepareCampaign validates a campaign draft against the platform
// rules and returns approve followed by createCampaign. The approval must
// be mined before the campaign call can pull the budget.
func handlePrepareCampaign(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CampaignPrepareRequest
		if !decodeBody(l, w, r, &req) {
			return
		}

		pc, err := deps.Reader.GetPlatformConfig(r.Context())
		if err != nil {
			l.Warn("failed to fetch platform config, using defaults", "error", err)
			pc = evm.DefaultPlatformConfig()
		}
		rules := forms.RulesFromConfig(pc, deps.now())

		if req.Brand != "" {
			if !addressPattern.MatchString(req.Brand) {
				writeBadRequestError(w, errInvalidAddress)
				return
			}
			bal, err := deps.Reader.PYUSDBalance(r.Context(), common.HexToAddress(req.Brand))
			if err != nil {
				l.Warn("failed to fetch brand balance, skipping balance check", "brand", req.Brand, "error", err)
			} else {
				rules.Balance = bal
			}
		}

		var resp api.PrepareResponse
		err = forms.Run(req.Draft, forms.CampaignSteps(rules), func(d forms.CampaignDraft) error {
			params, budget, err := d.Params(rules.FeeRateBps)
			if err != nil {
				return err
			}
			approve, err := deps.Tx.ApproveBudget(params.BudgetAmount)
			if err != nil {
				return err
			}
			create, err := deps.Tx.CreateCampaign(params)
			if err != nil {
				return err
			}
			resp.Transactions = []evm.UnsignedTx{approve, create}
			resp.Budget = &budget
			return nil
		})
		if err != nil {
			writeWizardError(l, w, err)
			return
		}
		l.Info("prepared campaign", "brand", req.Brand, "budget", resp.Budget.Final.String())
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handlePrepareRegistration(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RegistrationPrepareRequest
		if !decodeBody(l, w, r, &req) {
			return
		}
		var resp api.PrepareResponse
		err := forms.Run(req, forms.RegistrationSteps(), func(d forms.RegistrationDraft) error {
			var tx evm.UnsignedTx
			var err error
			if d.Role == forms.RoleBrand {
				tx, err = deps.Tx.RegisterBrand(d.BrandParams())
			} else {
				tx, err = deps.Tx.RegisterCreator(d.CreatorParams())
			}
			if err != nil {
				return err
			}
			resp.Transactions = []evm.UnsignedTx{tx}
			return nil
		})
		if err != nil {
			writeWizardError(l, w, err)
			return
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

// handlePrepareSubmission checks the post against the campaign's checklist
// and returns the submitPost call.
func handlePrepareSubmission(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmissionPrepareRequest
		if !decodeBody(l, w, r, &req) {
			return
		}
		if req.CampaignID == 0 {
			writeBadRequestError(w, errInvalidCampaignID)
			return
		}
		rec, err := deps.Reader.GetCampaign(r.Context(), req.CampaignID)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("get campaign %d: %w", req.CampaignID, err), "Failed to fetch campaign data")
			return
		}
		if err := checkOpen(rec, deps); err != nil {
			writeBadRequestError(w, err)
			return
		}

		checklist := forms.ChecklistForCampaign(rec)
		var resp api.PrepareResponse
		err = forms.Run(req, forms.SubmissionSteps(checklist), func(d forms.SubmissionDraft) error {
			tx, err := deps.Tx.SubmitPost(d.CampaignID, d.PostURL, d.SubmittedRequirements(checklist))
			if err != nil {
				return err
			}
			resp.Transactions = []evm.UnsignedTx{tx}
			return nil
		})
		if err != nil {
			writeWizardError(l, w, err)
			return
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handlePrepareAccept(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.PathValue("id"))
		if !ok {
			writeBadRequestError(w, errInvalidCampaignID)
			return
		}
		rec, err := deps.Reader.GetCampaign(r.Context(), id)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("get campaign %d: %w", id, err), "Failed to fetch campaign data")
			return
		}
		if err := checkOpen(rec, deps); err != nil {
			writeBadRequestError(w, err)
			return
		}
		tx, err := deps.Tx.AcceptCampaign(id)
		if err != nil {
			writeInternalError(l, w, err, "Failed to prepare transaction")
			return
		}
		writeJSONResponse(w, api.PrepareResponse{Transactions: []evm.UnsignedTx{tx}}, http.StatusOK)
	}
}

// checkOpen rejects campaigns that are not active or past their deadline.
// A zero brand means the id was never created.
func checkOpen(rec evm.CampaignRecord, deps Deps) error {
	if rec.Brand == (common.Address{}) || rec.CampaignStatus() != evm.CampaignActive {
		return errCampaignNotOpen
	}
	if rec.Deadline != nil && rec.Deadline.Cmp(big.NewInt(deps.now().Unix())) <= 0 {
		return errCampaignExpired
	}
	return nil
}
