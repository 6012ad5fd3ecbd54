// Package service implements the gateway engine: credential resolution,
// catalog filtering, channel mapping overlay, pagination, bulk asset caching
// and category reconciliation.
package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/config"
	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/store"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

// Upstream is the provider surface the engine consumes. *xtream.Client
// implements it.
type Upstream interface {
	AccountInfo(ctx context.Context, t xtream.Target) (models.AccountInfo, error)
	LiveStreams(ctx context.Context, t xtream.Target, categoryID string) ([]models.LiveStream, error)
	VodStreams(ctx context.Context, t xtream.Target, categoryID string) ([]models.VodStream, error)
	SeriesStreams(ctx context.Context, t xtream.Target, categoryID string) ([]models.SeriesStream, error)
	Categories(ctx context.Context, t xtream.Target, ct models.ContentType) ([]models.Category, error)
	FullEpg(ctx context.Context, t xtream.Target, streamID string) (models.EpgListings, error)
	ShortEpg(ctx context.Context, t xtream.Target, streamID string) (models.EpgListings, error)
	VodInfo(ctx context.Context, t xtream.Target, vodID string) (json.RawMessage, error)
	SeriesInfo(ctx context.Context, t xtream.Target, seriesID string) (json.RawMessage, error)
	XMLGuide(ctx context.Context, t xtream.Target) ([]byte, error)
	Playlist(ctx context.Context, t xtream.Target, output, typ string) ([]byte, error)
}

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Store     store.Store
	Upstream  Upstream
	Bulk      *cache.Bulk
	Responses cache.Responses
	// Locker serializes category maintenance. Defaults to an in-process locker.
	Locker cache.Locker
}

// Engine serves proxied player requests and management operations.
type Engine struct {
	store     store.Store
	up        Upstream
	bulk      *cache.Bulk
	responses cache.Responses
	locker    cache.Locker
	pageSize  int
	lockTTL   time.Duration
}

func New(cfg *config.Config, d Deps) *Engine {
	pageSize := cfg.DefaultPageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	locker := d.Locker
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	lockTTL := 2 * cfg.Timeout
	if lockTTL < time.Minute {
		lockTTL = time.Minute
	}
	return &Engine{
		store:     d.Store,
		up:        d.Upstream,
		bulk:      d.Bulk,
		responses: d.Responses,
		locker:    locker,
		pageSize:  pageSize,
		lockTTL:   lockTTL,
	}
}

// ClearCache drops every cached upstream response.
func (e *Engine) ClearCache(ctx context.Context) error {
	if e.responses == nil {
		return nil
	}
	return e.responses.Clear(ctx)
}
