package icb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/influencechain/evm"
)

const (
	DefaultActiveLimit = 20
	MaxActiveLimit     = 50
	DefaultPageLimit   = 20
	MaxPageLimit       = 100
)

// ActiveListing is the newest-first list of open campaigns.
type ActiveListing struct {
	Campaigns      []Campaign `json:"campaigns"`
	TotalActive    int        `json:"totalActive"`
	TotalCampaigns uint64     `json:"totalCampaigns"`
}

// CampaignEntry pairs a campaign id with its raw record.
type CampaignEntry struct {
	ID       uint64             `json:"id"`
	Campaign evm.CampaignRecord `json:"campaign"`
}

// PageQuery selects a window of campaign ids counted back from the newest.
type PageQuery struct {
	Limit  int
	Offset int
	// Status filters by equality when set.
	Status *evm.CampaignStatus
}

type Pagination struct {
	Total   uint64 `json:"total"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	HasMore bool   `json:"hasMore"`
}

type CampaignPage struct {
	Campaigns  []CampaignEntry `json:"campaigns"`
	Pagination Pagination      `json:"pagination"`
}

// IDWindow is an inclusive range of campaign ids scanned from End down to
// Start. An empty window has Start > End.
type IDWindow struct {
	Start uint64
	End   uint64
}

func (w IDWindow) Empty() bool { return w.Start > w.End || w.End == 0 }

// ActiveWindow is the newest limit ids: [max(1,total-limit+1), total].
func ActiveWindow(total uint64, limit int) IDWindow {
	if total == 0 || limit < 1 {
		return IDWindow{Start: 1, End: 0}
	}
	start := int64(total) - int64(limit) + 1
	if start < 1 {
		start = 1
	}
	return IDWindow{Start: uint64(start), End: total}
}

// PageWindow is [max(1,total-offset-limit+1), total-offset]. When the
// offset reaches past the oldest id the window is empty.
func PageWindow(total uint64, limit, offset int) IDWindow {
	end := int64(total) - int64(offset)
	if end < 1 || limit < 1 {
		return IDWindow{Start: 1, End: 0}
	}
	start := end - int64(limit) + 1
	if start < 1 {
		start = 1
	}
	return IDWindow{Start: uint64(start), End: uint64(end)}
}

// scan reads every id in w from newest to oldest, one call per id. A read
// that fails is logged and skipped so a single bad record cannot fail the
// listing. Cancellation of ctx stops the scan.
func scan(ctx context.Context, l *slog.Logger, r evm.Reader, w IDWindow, visit func(id uint64, rec evm.CampaignRecord)) error {
	if w.Empty() {
		return nil
	}
	for id := w.End; id >= w.Start; id-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.GetCampaign(ctx, id)
		if err != nil {
			l.Error("error fetching campaign", "campaign_id", id, "error", err)
		} else {
			visit(id, rec)
		}
	}
	return nil
}

// ListActiveCampaigns scans the newest limit campaign ids and keeps those
// that are Active, transformed for display. limit is clamped to
// MaxActiveLimit.
func ListActiveCampaigns(ctx context.Context, l *slog.Logger, r evm.Reader, limit int, now time.Time) (ActiveListing, error) {
	return BrowseActiveCampaigns(ctx, l, r, limit, now, BrowseFilter{})
}

// BrowseActiveCampaigns is ListActiveCampaigns with f applied to the
// transformed campaigns after the scan. TotalActive counts the active
// campaigns in the window before filtering.
func BrowseActiveCampaigns(ctx context.Context, l *slog.Logger, r evm.Reader, limit int, now time.Time, f BrowseFilter) (ActiveListing, error) {
	if limit > MaxActiveLimit {
		limit = MaxActiveLimit
	}
	total, err := r.CampaignCounter(ctx)
	if err != nil {
		return ActiveListing{}, fmt.Errorf("failed to read campaign counter: %w", err)
	}
	var items []browseItem
	err = scan(ctx, l, r, ActiveWindow(total, limit), func(id uint64, rec evm.CampaignRecord) {
		if rec.CampaignStatus() != evm.CampaignActive {
			return
		}
		items = append(items, browseItem{id: id, rec: rec, campaign: TransformCampaign(rec, id, now)})
	})
	if err != nil {
		return ActiveListing{}, err
	}
	return ActiveListing{
		Campaigns:      f.apply(items),
		TotalActive:    len(items),
		TotalCampaigns: total,
	}, nil
}

// ListCampaignPage returns the raw records in the page window, optionally
// filtered by status. HasMore reports whether older ids exist below the
// window. Limit is clamped to MaxPageLimit.
func ListCampaignPage(ctx context.Context, l *slog.Logger, r evm.Reader, q PageQuery) (CampaignPage, error) {
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	total, err := r.CampaignCounter(ctx)
	if err != nil {
		return CampaignPage{}, fmt.Errorf("failed to read campaign counter: %w", err)
	}
	w := PageWindow(total, q.Limit, q.Offset)
	page := CampaignPage{
		Campaigns: []CampaignEntry{},
		Pagination: Pagination{
			Total:   total,
			Limit:   q.Limit,
			Offset:  q.Offset,
			HasMore: !w.Empty() && w.Start > 1,
		},
	}
	err = scan(ctx, l, r, w, func(id uint64, rec evm.CampaignRecord) {
		if q.Status != nil && rec.CampaignStatus() != *q.Status {
			return
		}
		page.Campaigns = append(page.Campaigns, CampaignEntry{ID: id, Campaign: rec})
	})
	if err != nil {
		return CampaignPage{}, err
	}
	return page, nil
}
