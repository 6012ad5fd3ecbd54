package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// BulkKind selects a per-account bulk asset.
type BulkKind int

const (
	BulkGuide BulkKind = iota
	BulkPlaylist
)

func (k BulkKind) String() string {
	if k == BulkPlaylist {
		return "playlist"
	}
	return "guide"
}

func (k BulkKind) ext() string {
	if k == BulkPlaylist {
		return ".m3u"
	}
	return ".xml"
}

// FetchFunc downloads a fresh copy of a bulk asset.
type FetchFunc func(ctx context.Context) ([]byte, error)

// BulkOptions configures a Bulk cache.
type BulkOptions struct {
	Dir         string
	GuideTTL    time.Duration
	PlaylistTTL time.Duration
	// ServeStale returns an existing file when a refresh fails.
	ServeStale bool
}

// Bulk keeps one file per (kind, account) under Dir and refreshes it when
// its modification time is older than the kind's TTL. Concurrent refreshes
// of the same file are coalesced.
type Bulk struct {
	opts  BulkOptions
	now   func() time.Time
	group singleflight.Group
}

// NewBulk creates the cache directory if needed.
func NewBulk(opts BulkOptions) (*Bulk, error) {
	if opts.Dir == "" {
		return nil, errors.New("bulk cache: directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("bulk cache: create %s: %w", opts.Dir, err)
	}
	return &Bulk{opts: opts, now: time.Now}, nil
}

// SetClock replaces the time source. Intended for tests.
func (b *Bulk) SetClock(now func() time.Time) { b.now = now }

// Path returns the file backing (kind, accountID).
func (b *Bulk) Path(kind BulkKind, accountID string) string {
	return filepath.Join(b.opts.Dir, sanitizeID(accountID)+kind.ext())
}

func (b *Bulk) ttl(kind BulkKind) time.Duration {
	if kind == BulkPlaylist {
		return b.opts.PlaylistTTL
	}
	return b.opts.GuideTTL
}

// GetOrFetch returns the cached asset when fresh; otherwise it calls fetch,
// writes the result atomically and returns it. A failed fetch leaves any
// existing file untouched.
func (b *Bulk) GetOrFetch(ctx context.Context, kind BulkKind, accountID string, fetch FetchFunc) ([]byte, error) {
	path := b.Path(kind, accountID)
	if data, ok := b.readFresh(path, b.ttl(kind)); ok {
		return data, nil
	}
	v, err, _ := b.group.Do(path, func() (any, error) {
		if data, ok := b.readFresh(path, b.ttl(kind)); ok {
			return data, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := writeAtomic(path, data); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("bulk cache write")
		}
		return data, nil
	})
	if err != nil {
		if b.opts.ServeStale {
			if data, rerr := os.ReadFile(path); rerr == nil {
				log.Warn().Err(err).Str("kind", kind.String()).Str("account", accountID).Msg("serving stale bulk asset")
				return data, nil
			}
		}
		return nil, err
	}
	return v.([]byte), nil
}

// readFresh returns the file content when it exists and its age is below ttl.
func (b *Bulk) readFresh(path string, ttl time.Duration) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	if b.now().Sub(info.ModTime()) >= ttl {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Remove deletes every bulk file for accountID. Missing files are ignored.
func (b *Bulk) Remove(accountID string) error {
	var errs []error
	for _, kind := range []BulkKind{BulkGuide, BulkPlaylist} {
		if err := os.Remove(b.Path(kind, accountID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.partial")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sanitizeID(id string) string {
	s := strings.NewReplacer("/", "_", "\\", "_", "\x00", "_", "..", "_").Replace(strings.ToLower(id))
	if s == "" {
		s = "unknown"
	}
	return s
}
