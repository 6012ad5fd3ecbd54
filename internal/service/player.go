package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

// PlayerRequest is one proxied player_api.php call.
type PlayerRequest struct {
	AccountID   string
	Action      Action
	Credentials Credentials
	CategoryID  string
	StreamID    string
	VodID       string
	SeriesID    string
	// BypassFilters returns upstream data without adult or category filtering.
	BypassFilters bool
	// Page enables pagination for live streams when positive.
	Page     int
	PageSize int
}

// PlayerAPI resolves the account and credentials, calls upstream and
// reshapes the result. The returned value is ready for JSON encoding.
func (e *Engine) PlayerAPI(ctx context.Context, req PlayerRequest) (any, error) {
	acc, t, err := e.target(ctx, req.AccountID, req.Credentials)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionAccountInfo:
		return e.up.AccountInfo(ctx, t)

	case ActionLiveStreams:
		streams, err := fetchStreams(ctx, e, acc, t, models.ContentLive, req, e.up.LiveStreams)
		if err != nil {
			return nil, err
		}
		if req.Page > 0 {
			size := req.PageSize
			if size <= 0 {
				size = e.pageSize
			}
			return Paginate(streams, req.Page, size), nil
		}
		mappings, err := e.store.ListMappings(ctx, acc.ID)
		if err != nil {
			return nil, err
		}
		return applyMappings(streams, mappings), nil

	case ActionVodStreams:
		return fetchStreams(ctx, e, acc, t, models.ContentVOD, req, e.up.VodStreams)

	case ActionSeries:
		return fetchStreams(ctx, e, acc, t, models.ContentSeries, req, e.up.SeriesStreams)

	case ActionLiveCategories:
		return e.categories(ctx, acc, t, models.ContentLive, req.BypassFilters)
	case ActionVodCategories:
		return e.categories(ctx, acc, t, models.ContentVOD, req.BypassFilters)
	case ActionSeriesCategories:
		return e.categories(ctx, acc, t, models.ContentSeries, req.BypassFilters)

	case ActionFullEpg:
		if req.StreamID == "" {
			return nil, validationf("stream_id is required")
		}
		return e.up.FullEpg(ctx, t, req.StreamID)
	case ActionShortEpg:
		if req.StreamID == "" {
			return nil, validationf("stream_id is required")
		}
		return e.up.ShortEpg(ctx, t, req.StreamID)

	case ActionVodInfo:
		if req.VodID == "" {
			return nil, validationf("vod_id is required")
		}
		return e.up.VodInfo(ctx, t, req.VodID)
	case ActionSeriesInfo:
		if req.SeriesID == "" {
			return nil, validationf("series_id is required")
		}
		return e.up.SeriesInfo(ctx, t, req.SeriesID)
	}
	return nil, ErrNotImplemented
}

// categories returns the category list for ct, filtered unless bypass.
func (e *Engine) categories(ctx context.Context, acc *models.Account, t xtream.Target, ct models.ContentType, bypass bool) ([]models.Category, error) {
	cats, err := e.up.Categories(ctx, t, ct)
	if err != nil {
		return nil, err
	}
	if bypass {
		return cats, nil
	}
	return filterCategories(cats, &acc.FilterSettings, ct), nil
}

// fetchStreams loads streams for ct and applies the account's filters. With
// a non-empty allow-list the filtered category set is resolved first and the
// stream list is restricted to it, since upstream only filters by a single
// category id.
func fetchStreams[T models.Stream](ctx context.Context, e *Engine, acc *models.Account, t xtream.Target,
	ct models.ContentType, req PlayerRequest, fetch func(context.Context, xtream.Target, string) ([]T, error)) ([]T, error) {
	if req.BypassFilters {
		return fetch(ctx, t, req.CategoryID)
	}
	fs := &acc.FilterSettings
	var keep map[string]struct{}
	if allowed, _ := fs.Lists(ct); len(allowed) > 0 {
		cats, err := e.categories(ctx, acc, t, ct, false)
		if err != nil {
			return nil, err
		}
		keep = categoryIDs(cats)
	}
	streams, err := fetch(ctx, t, req.CategoryID)
	if err != nil {
		return nil, err
	}
	checkAdult := fs.AdultFilter && ct != models.ContentSeries
	out := filterStreams(streams, checkAdult, keep)
	if dropped := len(streams) - len(out); dropped > 0 {
		log.Debug().Str("account", acc.ID).Str("content_type", ct.String()).Int("dropped", dropped).Msg("streams filtered")
	}
	return out, nil
}
