package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(2)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(time.Minute)
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok, "entry should expire at its ttl")

	// size bound evicts the least recently used key
	s.Set(ctx, "x", []byte("x"), time.Hour)
	s.Set(ctx, "y", []byte("y"), time.Hour)
	s.Set(ctx, "z", []byte("z"), time.Hour)
	_, ok, _ = s.Get(ctx, "x")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "z")
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	s, closer, err := New(context.Background(), "memory", "", 8)
	require.NoError(t, err)
	defer closer()
	assert.IsType(t, &MemoryStore{}, s)

	s, _, err = New(context.Background(), "none", "", 0)
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, _, err = New(context.Background(), "memcached", "", 0)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	calls := 0
	h := func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"n":%d}`, calls)
	}
	wrapped := Middleware(l, NewMemoryStore(16), time.Minute)(h)

	get := func(target string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		wrapped(rr, httptest.NewRequest(http.MethodGet, target, nil))
		return rr
	}

	first := get("/api/campaigns/1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, `{"n":1}`, first.Body.String())

	second := get("/api/campaigns/1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, `{"n":1}`, second.Body.String())
	assert.Equal(t, 1, calls)

	// query string is part of the key
	get("/api/campaigns/1?x=1")
	assert.Equal(t, 2, calls)

	// errors are not cached
	get("/api/campaigns/1?fail=1")
	get("/api/campaigns/1?fail=1")
	assert.Equal(t, 4, calls)

	rr := httptest.NewRecorder()
	wrapped(rr, httptest.NewRequest(http.MethodPost, "/api/campaigns/1", nil))
	assert.Equal(t, 5, calls)
	assert.Empty(t, rr.Header().Get("X-Cache"))
}
