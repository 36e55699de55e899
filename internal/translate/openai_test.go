package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, reply string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 1) {
			assert.True(t, strings.Contains(req.Messages[0].Content, "Simplified Chinese"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func TestOpenAIStrategyLocalize(t *testing.T) {
	var calls int32
	srv := chatServer(t, http.StatusOK, "译文：Meta 推出新的开源模型", &calls)
	defer srv.Close()

	o := NewOpenAIStrategy("test-key", srv.URL+"/v1", "", "zh-CN", fastRetry)
	got, err := o.Localize(context.Background(), "Meta unveils a new open model")
	require.NoError(t, err)
	assert.Equal(t, "Meta 推出新的开源模型", got)
	assert.Equal(t, "openai", o.Name())
}

func TestOpenAIStrategyClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := chatServer(t, http.StatusBadRequest, "", &calls)
	defer srv.Close()

	o := NewOpenAIStrategy("test-key", srv.URL+"/v1", "", "zh-CN", fastRetry)
	_, err := o.Localize(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIStrategyEmptyReply(t *testing.T) {
	var calls int32
	srv := chatServer(t, http.StatusOK, "   ", &calls)
	defer srv.Close()

	o := NewOpenAIStrategy("test-key", srv.URL+"/v1", "", "zh-CN", fastRetry)
	_, err := o.Localize(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmptyResult)
}
