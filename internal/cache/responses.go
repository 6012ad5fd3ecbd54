package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Responses caches raw upstream response bodies keyed by full request URL.
// Implementations are safe for concurrent use.
type Responses interface {
	// Get returns the body stored under key if it has not expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores body under key for ttl, replacing any previous entry.
	Set(ctx context.Context, key string, body []byte, ttl time.Duration)
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// DefaultMemorySize is the freecache arena used by NewMemory.
const DefaultMemorySize = 128 << 20

// Entry layouts. An inline entry holds the gzip body after the tag byte. A
// chunked entry holds a generation and chunk count; the chunks live under
// their own keys and are written before the header.
const (
	tagInline  byte = 0
	tagChunked byte = 1

	chunkedHeaderLen = 1 + 8 + 4
)

// clock adapts a replaceable time source to freecache.Timer.
type clock struct {
	now atomic.Pointer[func() time.Time]
}

func (c *clock) Now() uint32 {
	return uint32((*c.now.Load())().Unix())
}

// Memory is an in-process Responses backend on a fixed-size freecache arena.
// Bodies are gzip-compressed. freecache rejects entries above 1/1024 of the
// arena, so larger bodies are split into chunks. A chunk lost to eviction
// turns the whole entry into a miss.
type Memory struct {
	cache *freecache.Cache
	clock *clock
	chunk int
	gen   atomic.Uint64
}

// NewMemory returns an empty in-process response cache of DefaultMemorySize.
func NewMemory() *Memory {
	return NewMemorySize(DefaultMemorySize)
}

// NewMemorySize returns an empty in-process response cache backed by size
// bytes. freecache raises sizes below 512KB to 512KB.
func NewMemorySize(size int) *Memory {
	c := &clock{}
	now := time.Now
	c.now.Store(&now)
	fc := freecache.NewCacheCustomTimer(size, c)
	return &Memory{
		cache: fc,
		clock: c,
		// Leaves headroom under the per-entry limit for the key and entry header.
		chunk: max(size, 512*1024) / 2048,
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.clock.now.Store(&now)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	raw, err := m.cache.Get([]byte(key))
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var z []byte
	switch raw[0] {
	case tagInline:
		z = raw[1:]
	case tagChunked:
		if len(raw) != chunkedHeaderLen {
			return nil, false
		}
		gen := binary.BigEndian.Uint64(raw[1:9])
		n := int(binary.BigEndian.Uint32(raw[9:13]))
		var buf bytes.Buffer
		for i := 0; i < n; i++ {
			part, err := m.cache.Get(chunkKey(key, gen, i))
			if err != nil {
				return nil, false
			}
			buf.Write(part)
		}
		z = buf.Bytes()
	default:
		return nil, false
	}
	body, err := gunzip(z)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (m *Memory) Set(_ context.Context, key string, body []byte, ttl time.Duration) {
	secs := expireSeconds(ttl)
	if secs <= 0 {
		return
	}
	z, err := gzipBytes(body)
	if err != nil {
		log.Warn().Err(err).Msg("response cache compress")
		return
	}
	if len(z) < m.chunk {
		m.put([]byte(key), append([]byte{tagInline}, z...), secs)
		return
	}

	gen := m.gen.Add(1)
	n := 0
	for off := 0; off < len(z); off += m.chunk {
		if !m.put(chunkKey(key, gen, n), z[off:min(off+m.chunk, len(z))], secs) {
			return
		}
		n++
	}
	hdr := make([]byte, chunkedHeaderLen)
	hdr[0] = tagChunked
	binary.BigEndian.PutUint64(hdr[1:9], gen)
	binary.BigEndian.PutUint32(hdr[9:13], uint32(n))
	m.put([]byte(key), hdr, secs)
}

func (m *Memory) put(key, value []byte, secs int) bool {
	if err := m.cache.Set(key, value, secs); err != nil {
		log.Debug().Err(err).Int("bytes", len(value)).Msg("response cache set")
		return false
	}
	return true
}

// Clear empties the arena.
func (m *Memory) Clear(context.Context) error {
	m.cache.Clear()
	return nil
}

// Len reports the number of live freecache entries, chunks included.
func (m *Memory) Len() int {
	return int(m.cache.EntryCount())
}

func chunkKey(key string, gen uint64, i int) []byte {
	b := make([]byte, 0, len(key)+24)
	b = append(b, key...)
	b = append(b, 0)
	b = strconv.AppendUint(b, gen, 36)
	b = append(b, '.')
	return strconv.AppendInt(b, int64(i), 10)
}

// expireSeconds rounds ttl up to whole seconds; freecache treats 0 as
// never expiring.
func expireSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int((ttl + time.Second - 1) / time.Second)
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(z []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(z))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
