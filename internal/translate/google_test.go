package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/retry"
)

var fastRetry = retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}

func TestGoogleStrategyLocalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "auto", q.Get("sl"))
		assert.Equal(t, "zh-CN", q.Get("tl"))
		assert.Equal(t, "Hello, world. Bye.", q.Get("q"))
		_, _ = w.Write([]byte(`[[["你好，世界。","Hello, world.",null,null,10],["再见。","Bye.",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	g := NewGoogleStrategy(srv.URL, "zh-CN", time.Second, nil, fastRetry, nil)
	got, err := g.Localize(context.Background(), "Hello, world. Bye.")
	require.NoError(t, err)
	assert.Equal(t, "你好，世界。再见。", got)
	assert.Equal(t, "google", g.Name())
}

func TestGoogleStrategyRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[[["好","good"]]]`))
	}))
	defer srv.Close()

	g := NewGoogleStrategy(srv.URL, "zh-CN", time.Second, nil, fastRetry, nil)
	got, err := g.Localize(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "好", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGoogleStrategyClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogleStrategy(srv.URL, "zh-CN", time.Second, nil, fastRetry, nil)
	_, err := g.Localize(context.Background(), "good")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParseGoogleTranslateResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"segments", `[[["一","one"],["二","two"]]]`, "一二", false},
		{"skips empty segments", `[[[],["二","two"]]]`, "二", false},
		{"empty array", `[]`, "", true},
		{"no translations", `[null]`, "", true},
		{"wrong shape", `[{"a":1}]`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGoogleTranslateResponse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
