package service

import (
	"context"
	"errors"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/metrics"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

// Playlist defaults used when the caller omits output or type.
const (
	DefaultPlaylistOutput = "ts"
	DefaultPlaylistType   = "m3u_plus"
)

var errNoBulkCache = errors.New("bulk cache is not configured")

// Guide returns the account's XMLTV guide from the bulk cache, downloading
// and repairing it when the cached copy is missing or stale.
func (e *Engine) Guide(ctx context.Context, accountID string, creds Credentials) ([]byte, error) {
	acc, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return nil, err
	}
	return e.bulkAsset(ctx, cache.BulkGuide, acc.ID, func(ctx context.Context) ([]byte, error) {
		data, err := e.up.XMLGuide(ctx, t)
		if err != nil {
			return nil, err
		}
		return xtream.RepairGuide(data), nil
	})
}

// Playlist returns the account's M3U playlist from the bulk cache. output
// and typ are forwarded upstream on refresh.
func (e *Engine) Playlist(ctx context.Context, accountID string, creds Credentials, output, typ string) ([]byte, error) {
	if output == "" {
		output = DefaultPlaylistOutput
	}
	if typ == "" {
		typ = DefaultPlaylistType
	}
	acc, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return nil, err
	}
	return e.bulkAsset(ctx, cache.BulkPlaylist, acc.ID, func(ctx context.Context) ([]byte, error) {
		return e.up.Playlist(ctx, t, output, typ)
	})
}

func (e *Engine) bulkAsset(ctx context.Context, kind cache.BulkKind, accountID string, fetch cache.FetchFunc) ([]byte, error) {
	if e.bulk == nil {
		return nil, errNoBulkCache
	}
	fetched := false
	data, err := e.bulk.GetOrFetch(ctx, kind, accountID, func(ctx context.Context) ([]byte, error) {
		fetched = true
		data, err := fetch(ctx)
		if err != nil {
			metrics.BulkRefreshes.WithLabelValues(kind.String(), "failed").Inc()
			return nil, err
		}
		metrics.BulkRefreshes.WithLabelValues(kind.String(), "fetched").Inc()
		return data, nil
	})
	if err == nil && !fetched {
		metrics.BulkRefreshes.WithLabelValues(kind.String(), "hit").Inc()
	}
	return data, err
}

// StreamURL resolves the upstream media URL a client is redirected to.
func (e *Engine) StreamURL(ctx context.Context, accountID, kind, stream string, creds Credentials) (string, error) {
	if kind == "" || stream == "" {
		return "", validationf("stream type and stream are required")
	}
	_, t, err := e.target(ctx, accountID, creds)
	if err != nil {
		return "", err
	}
	return xtream.StreamURL(t, kind, stream), nil
}
