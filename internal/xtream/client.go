// Package xtream talks to Xtream Codes compatible providers.
package xtream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/metrics"
	"github.com/voyagen/xtreamgate/internal/models"
)

const (
	playerAPI = "player_api.php"
	guideAPI  = "xmltv.php"
	listAPI   = "get.php"
)

// Upstream action names.
const (
	ActionLiveStreams      = "get_live_streams"
	ActionLiveCategories   = "get_live_categories"
	ActionVodStreams       = "get_vod_streams"
	ActionVodCategories    = "get_vod_categories"
	ActionSeries           = "get_series"
	ActionSeriesCategories = "get_series_categories"
	ActionFullEpg          = "get_simple_data_table"
	ActionShortEpg         = "get_short_epg"
	ActionVodInfo          = "get_vod_info"
	ActionSeriesInfo       = "get_series_info"

	actionAccountInfo = "account_info"
	actionGuide       = "xmltv"
	actionPlaylist    = "get_playlist"
)

// Target addresses one provider with one credential pair.
type Target struct {
	Host     string
	Username string
	Password string
}

func (t Target) base() string { return strings.TrimRight(t.Host, "/") }

func (t Target) query() url.Values {
	q := url.Values{}
	q.Set("username", t.Username)
	q.Set("password", t.Password)
	return q
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
	// Responses caches player_api bodies. Nil disables caching.
	Responses cache.Responses
	CacheTTL  time.Duration
	// RPS limits requests per second per provider host. 0 disables.
	RPS float64
}

// Client issues provider calls. Player API responses go through the
// response cache keyed by the full request URL; bulk downloads never do.
type Client struct {
	http      *http.Client
	userAgent string
	responses cache.Responses
	ttl       time.Duration
	rps       float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		http:      hc,
		userAgent: opts.UserAgent,
		responses: opts.Responses,
		ttl:       opts.CacheTTL,
		rps:       opts.RPS,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (c *Client) AccountInfo(ctx context.Context, t Target) (models.AccountInfo, error) {
	return getJSON[models.AccountInfo](ctx, c, t, "", nil)
}

func (c *Client) LiveStreams(ctx context.Context, t Target, categoryID string) ([]models.LiveStream, error) {
	return getJSON[[]models.LiveStream](ctx, c, t, ActionLiveStreams, param("category_id", categoryID))
}

func (c *Client) LiveCategories(ctx context.Context, t Target) ([]models.Category, error) {
	return getJSON[[]models.Category](ctx, c, t, ActionLiveCategories, nil)
}

func (c *Client) VodStreams(ctx context.Context, t Target, categoryID string) ([]models.VodStream, error) {
	return getJSON[[]models.VodStream](ctx, c, t, ActionVodStreams, param("category_id", categoryID))
}

func (c *Client) VodCategories(ctx context.Context, t Target) ([]models.Category, error) {
	return getJSON[[]models.Category](ctx, c, t, ActionVodCategories, nil)
}

func (c *Client) SeriesStreams(ctx context.Context, t Target, categoryID string) ([]models.SeriesStream, error) {
	return getJSON[[]models.SeriesStream](ctx, c, t, ActionSeries, param("category_id", categoryID))
}

func (c *Client) SeriesCategories(ctx context.Context, t Target) ([]models.Category, error) {
	return getJSON[[]models.Category](ctx, c, t, ActionSeriesCategories, nil)
}

// Categories dispatches to the category call for ct.
func (c *Client) Categories(ctx context.Context, t Target, ct models.ContentType) ([]models.Category, error) {
	switch ct {
	case models.ContentVOD:
		return c.VodCategories(ctx, t)
	case models.ContentSeries:
		return c.SeriesCategories(ctx, t)
	default:
		return c.LiveCategories(ctx, t)
	}
}

func (c *Client) FullEpg(ctx context.Context, t Target, streamID string) (models.EpgListings, error) {
	return getJSON[models.EpgListings](ctx, c, t, ActionFullEpg, param("stream_id", streamID))
}

func (c *Client) ShortEpg(ctx context.Context, t Target, streamID string) (models.EpgListings, error) {
	return getJSON[models.EpgListings](ctx, c, t, ActionShortEpg, param("stream_id", streamID))
}

// VodInfo returns the provider's detail document unchanged.
func (c *Client) VodInfo(ctx context.Context, t Target, vodID string) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, c, t, ActionVodInfo, param("vod_id", vodID))
}

// SeriesInfo returns the provider's detail document unchanged.
func (c *Client) SeriesInfo(ctx context.Context, t Target, seriesID string) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, c, t, ActionSeriesInfo, param("series_id", seriesID))
}

// XMLGuide downloads the full XMLTV guide.
func (c *Client) XMLGuide(ctx context.Context, t Target) ([]byte, error) {
	return c.get(ctx, actionGuide, t.base()+"/"+guideAPI+"?"+t.query().Encode())
}

// Playlist downloads the full M3U playlist. output and typ pass through
// unchanged. A body that is not an M3U document is an UpstreamError.
func (c *Client) Playlist(ctx context.Context, t Target, output, typ string) ([]byte, error) {
	q := t.query()
	q.Set("type", typ)
	q.Set("output", output)
	body, err := c.get(ctx, actionPlaylist, t.base()+"/"+listAPI+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	sum, err := ScanPlaylist(body)
	if err != nil {
		return nil, &UpstreamError{Action: actionPlaylist, StatusCode: http.StatusOK, Err: err}
	}
	log.Debug().Str("host", t.Host).Int("entries", sum.Entries).Int("groups", len(sum.Groups)).Msg("playlist downloaded")
	return body, nil
}

// StreamURL builds the provider URL for a media stream.
func StreamURL(t Target, kind, stream string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.base(),
		url.PathEscape(kind), url.PathEscape(t.Username), url.PathEscape(t.Password), url.PathEscape(stream))
}

func param(k, v string) url.Values {
	if v == "" {
		return nil
	}
	return url.Values{k: {v}}
}

// getJSON serves a player_api call from the response cache or the provider.
// A cached body that no longer decodes counts as a miss.
func getJSON[T any](ctx context.Context, c *Client, t Target, action string, extra url.Values) (T, error) {
	var zero T
	q := t.query()
	if action != "" {
		q.Set("action", action)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	key := t.base() + "/" + playerAPI + "?" + q.Encode()
	label := action
	if label == "" {
		label = actionAccountInfo
	}

	if c.responses != nil {
		if body, ok := c.responses.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(body, &v); err == nil {
				metrics.ResponseCacheHits.WithLabelValues(label).Inc()
				return v, nil
			}
		}
		metrics.ResponseCacheMisses.WithLabelValues(label).Inc()
	}

	body, err := c.get(ctx, label, key)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return zero, &UpstreamError{Action: label, StatusCode: http.StatusOK, Err: fmt.Errorf("decode: %w", err)}
	}
	if c.responses != nil {
		c.responses.Set(ctx, key, body, c.ttl)
	}
	return v, nil
}

func (c *Client) limiter(rawURL string) *rate.Limiter {
	if c.rps <= 0 {
		return nil
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		burst := int(c.rps)
		if burst < 1 {
			burst = 1
		}
		l = rate.NewLimiter(rate.Limit(c.rps), burst)
		c.limiters[host] = l
	}
	return l
}

func (c *Client) get(ctx context.Context, action, rawURL string) ([]byte, error) {
	if l := c.limiter(rawURL); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, &UpstreamError{Action: action, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamError{Action: action, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(action, 0, time.Since(start))
		log.Warn().Err(err).Str("action", action).Str("host", req.URL.Host).Msg("upstream request failed")
		return nil, &UpstreamError{Action: action, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	metrics.ObserveUpstream(action, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Str("action", action).Str("host", req.URL.Host).Int("status", resp.StatusCode).Msg("upstream returned error status")
		return nil, &UpstreamError{Action: action, StatusCode: resp.StatusCode}
	}
	if err != nil {
		return nil, &UpstreamError{Action: action, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
