// Package cache stores rendered GET responses so repeated reads of the same
// campaign or listing do not hit the RPC endpoint again.
package cache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brojonat/influencechain/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLs per resource kind.
const (
	CampaignTTL = 30 * time.Second
	ListTTL     = 60 * time.Second
	UserTTL     = 5 * time.Minute
	StatsTTL    = 5 * time.Minute
)

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type entry struct {
	val     []byte
	expires time.Time
}

// MemoryStore is an in-process LRU. Entries also expire after the longest
// TTL so idle keys do not linger.
type MemoryStore struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

func NewMemoryStore(size int) *MemoryStore {
	if size < 1 {
		size = 1
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, entry](size, nil, UserTTL),
		now: time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.lru.Add(key, entry{val: val, expires: m.now().Add(ttl)})
	return nil
}

// NopStore never hits.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

type bodyRecorder struct {
	http.ResponseWriter
	code int
	buf  bytes.Buffer
	once sync.Once
}

func (b *bodyRecorder) WriteHeader(code int) {
	b.once.Do(func() { b.code = code })
	b.ResponseWriter.WriteHeader(code)
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.once.Do(func() { b.code = http.StatusOK })
	b.buf.Write(p)
	return b.ResponseWriter.Write(p)
}

// Middleware serves GET responses from s, keyed by the request URI, and
// stores 200 responses for ttl. Store failures only cost a cache miss.
func Middleware(l *slog.Logger, s Store, ttl time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next(w, r)
				return
			}
			key := "icb:resp:" + r.URL.RequestURI()
			body, ok, err := s.Get(r.Context(), key)
			if err != nil {
				l.Warn("cache get failed", "key", key, "error", err)
			}
			metrics.RecordCacheLookup(ok)
			if ok {
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			}

			w.Header().Set("X-Cache", "MISS")
			rec := &bodyRecorder{ResponseWriter: w}
			next(rec, r)
			if rec.code != http.StatusOK {
				return
			}
			if err := s.Set(r.Context(), key, rec.buf.Bytes(), ttl); err != nil {
				l.Warn("cache set failed", "key", key, "error", err)
			}
		}
	}
}
