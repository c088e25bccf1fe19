package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/http/api"
	"github.com/brojonat/influencechain/icb"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

var (
	errInvalidCampaignID   = errors.New("Invalid campaign ID")
	errInvalidSubmissionID = errors.New("Invalid submission ID")
	errInvalidAddress      = errors.New("Invalid address format")
)

// parseID parses a positive decimal id from a path value.
func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads a non-negative integer query parameter, returning def
// when it is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("Invalid %s parameter", key)
	}
	return v, nil
}

// browseFilterFromQuery reads the optional browse parameters: q, category
// (repeated or comma separated), minPayment, maxPayment, minFollowers and
// sort.
func browseFilterFromQuery(r *http.Request) (icb.BrowseFilter, error) {
	qs := r.URL.Query()
	f := icb.BrowseFilter{
		Query:      qs.Get("q"),
		Categories: icb.SplitCategories(qs["category"]),
	}
	for _, key := range []string{"minPayment", "maxPayment"} {
		raw := qs.Get(key)
		if raw == "" {
			continue
		}
		v, ok := icb.ParseAmountBound(raw)
		if !ok {
			return icb.BrowseFilter{}, fmt.Errorf("Invalid %s parameter", key)
		}
		if key == "minPayment" {
			f.MinPayment = &v
		} else {
			f.MaxPayment = &v
		}
	}
	if f.MinPayment != nil && f.MaxPayment != nil && *f.MinPayment > *f.MaxPayment {
		return icb.BrowseFilter{}, errors.New("minPayment must not exceed maxPayment")
	}
	minFollowers, err := queryInt(r, "minFollowers", 0)
	if err != nil {
		return icb.BrowseFilter{}, err
	}
	f.MinFollowers = int64(minFollowers)
	if raw := qs.Get("sort"); raw != "" {
		s, ok := icb.ParseBrowseSort(raw)
		if !ok {
			return icb.BrowseFilter{}, errors.New("Invalid sort parameter")
		}
		f.Sort = s
	}
	return f, nil
}

func handleGetCampaign(l *slog.Logger, deps Deps) http.HandlerFunc {
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
		subs, err := deps.Reader.GetCampaignSubmissions(r.Context(), id)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("get campaign %d submissions: %w", id, err), "Failed to fetch campaign data")
			return
		}
		writeJSONResponse(w, api.CampaignResponse{
			ID:          id,
			Campaign:    rec,
			Submissions: icb.ToUint64s(subs),
			FetchedAt:   deps.now(),
		}, http.StatusOK)
	}
}

func handleGetActiveCampaigns(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", icb.DefaultActiveLimit)
		if err != nil || limit == 0 {
			writeBadRequestError(w, errors.New("Invalid limit parameter"))
			return
		}
		f, err := browseFilterFromQuery(r)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		listing, err := icb.BrowseActiveCampaigns(r.Context(), l, deps.Reader, limit, deps.now(), f)
		if err != nil {
			writeInternalError(l, w, err, "Failed to fetch active campaigns")
			return
		}
		writeJSONResponse(w, api.ActiveCampaignsResponse{ActiveListing: listing, FetchedAt: deps.now()}, http.StatusOK)
	}
}

func handleListCampaigns(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", icb.DefaultPageLimit)
		if err != nil || limit == 0 {
			writeBadRequestError(w, errors.New("Invalid limit parameter"))
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		q := icb.PageQuery{Limit: limit, Offset: offset}
		if raw := r.URL.Query().Get("status"); raw != "" {
			s, ok := evm.ParseCampaignStatus(raw)
			if !ok {
				writeBadRequestError(w, errors.New("Invalid status parameter"))
				return
			}
			q.Status = &s
		}
		page, err := icb.ListCampaignPage(r.Context(), l, deps.Reader, q)
		if err != nil {
			writeInternalError(l, w, err, "Failed to fetch campaigns")
			return
		}
		writeJSONResponse(w, api.CampaignPageResponse{CampaignPage: page, FetchedAt: deps.now()}, http.StatusOK)
	}
}

// handleGetStats reads the user totals and the campaign counter
// concurrently; either failing fails the response.
func handleGetStats(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var totals evm.UserTotals
		var campaigns uint64
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			totals, err = deps.Reader.GetTotalUsers(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			campaigns, err = deps.Reader.CampaignCounter(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			writeInternalError(l, w, fmt.Errorf("get stats: %w", err), "Failed to fetch platform statistics")
			return
		}
		writeJSONResponse(w, api.StatsResponse{
			TotalUsers:     totals,
			TotalCampaigns: campaigns,
			FetchedAt:      deps.now(),
		}, http.StatusOK)
	}
}

func handleGetUser(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("address")
		if !addressPattern.MatchString(raw) {
			writeBadRequestError(w, errInvalidAddress)
			return
		}
		p, err := icb.LoadUserProfile(r.Context(), deps.Reader, common.HexToAddress(raw))
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("load user %s: %w", raw, err), "Failed to fetch user data")
			return
		}
		campaigns := p.Campaigns
		if campaigns == nil {
			campaigns = []uint64{}
		}
		writeJSONResponse(w, api.UserResponse{
			Address:       raw,
			UserType:      p.UserType,
			UserTypeLabel: p.TypeLabel,
			UserData:      p.UserData(),
			Campaigns:     campaigns,
			FetchedAt:     deps.now(),
		}, http.StatusOK)
	}
}

func handleGetCampaignDeposit(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.PathValue("id"))
		if !ok {
			writeBadRequestError(w, errInvalidCampaignID)
			return
		}
		d, err := deps.Reader.GetCampaignDeposit(r.Context(), id)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("get campaign %d deposit: %w", id, err), "Failed to fetch deposit data")
			return
		}
		total := evm.PYUSDFromBaseUnits(d.TotalAmount)
		remaining := evm.PYUSDFromBaseUnits(d.RemainingAmount)
		released := total.Sub(remaining)
		if released == nil || released.IsNegative() {
			released = evm.Zero()
		}
		writeJSONResponse(w, api.DepositResponse{
			CampaignID:      id,
			Brand:           d.Brand.Hex(),
			TotalAmount:     total.String(),
			RemainingAmount: remaining.String(),
			ReleasedAmount:  released.String(),
			Currency:        icb.Currency,
			IsActive:        d.IsActive,
			FetchedAt:       deps.now(),
		}, http.StatusOK)
	}
}

// handleGetSubmission returns the submission and, once one exists, the AI
// verification record for it.
func handleGetSubmission(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.PathValue("id"))
		if !ok {
			writeBadRequestError(w, errInvalidSubmissionID)
			return
		}
		sub, err := deps.Reader.GetSubmission(r.Context(), id)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("get submission %d: %w", id, err), "Failed to fetch submission data")
			return
		}
		if sub.Creator == (common.Address{}) {
			writeNotFoundError(w)
			return
		}
		resp := api.SubmissionResponse{
			ID:         id,
			Submission: sub,
			Status:     evm.VerificationStatus(sub.Status).String(),
			FetchedAt:  deps.now(),
		}
		v, err := deps.Reader.GetVerification(r.Context(), id)
		switch {
		case err != nil:
			// the submission is still useful without its verdict
			l.Warn("failed to fetch verification", "submission_id", id, "error", err)
		case v.VerifiedAt != nil && v.VerifiedAt.Sign() > 0:
			resp.Verification = &v
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

// handleGetConfig reports the network, contract set and platform rules.
// The platform read falls back to defaults so the UI can still render.
func handleGetConfig(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc, err := deps.Reader.GetPlatformConfig(r.Context())
		if err != nil {
			l.Warn("failed to fetch platform config, using defaults", "error", err)
			pc = evm.DefaultPlatformConfig()
		}
		writeJSONResponse(w, api.ConfigResponse{
			ChainID:   deps.Tx.ChainID(),
			Contracts: deps.Tx.Addresses(),
			Platform:  pc,
			Currency:  icb.Currency,
			Decimals:  evm.PYUSD_DECIMALS,
			FetchedAt: deps.now(),
		}, http.StatusOK)
	}
}
