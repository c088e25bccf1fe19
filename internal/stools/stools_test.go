package stools

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptHandler_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}
	h := AdaptHandler(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }, mw("a"), mw("b"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientIP(r, false))
	assert.Equal(t, "10.0.0.1", ClientIP(r, true))

	r.Header.Set("X-Forwarded-For", " 203.0.113.9 , 198.51.100.7 ")
	assert.Equal(t, "10.0.0.1", ClientIP(r, false), "client supplied header is ignored")
	assert.Equal(t, "198.51.100.7", ClientIP(r, true))

	r.Header.Add("X-Forwarded-For", "192.0.2.44")
	assert.Equal(t, "192.0.2.44", ClientIP(r, true))

	r.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", ClientIP(r, false))
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	tests := []struct {
		name        string
		body        string
		contentType string
		clientErr   bool
		wantMsg     string
	}{
		{name: "ok", body: `{"name":"a","n":2}`},
		{name: "wrong content type", body: `{}`, contentType: "text/plain", clientErr: true, wantMsg: "Content-Type"},
		{name: "syntax", body: `{"name":}`, clientErr: true, wantMsg: "malformed JSON"},
		{name: "type", body: `{"n":"x"}`, clientErr: true, wantMsg: `"n" field`},
		{name: "unknown field", body: `{"other":1}`, clientErr: true, wantMsg: "unknown field"},
		{name: "empty", body: ``, clientErr: true, wantMsg: "must not be empty"},
		{name: "two objects", body: `{"n":1}{"n":2}`, clientErr: true, wantMsg: "single JSON object"},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", 100) + `"}`, clientErr: true, wantMsg: "larger than 32 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = "application/json"
			}
			r.Header.Set("Content-Type", ct)
			var p payload
			err := DecodeJSONBody(httptest.NewRecorder(), r, &p, 32)
			if !tt.clientErr {
				require.NoError(t, err)
				assert.Equal(t, payload{Name: "a", N: 2}, p)
				return
			}
			require.Error(t, err)
			assert.True(t, IsClientError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
