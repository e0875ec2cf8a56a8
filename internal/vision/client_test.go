package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func TestCompleteJSON_SendsInterleavedPartsAndSchema(t *testing.T) {
	var captured chatCompletionRequest
	var rawUser []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body struct {
			chatCompletionRequest
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured = body.chatCompletionRequest
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)
		require.NoError(t, json.Unmarshal(body.Messages[1].Content, &rawUser))
		_ = json.NewEncoder(w).Encode(completionBody(`{"players":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL})
	content, err := client.CompleteJSON(context.Background(), Request{
		System: "read the scorebook",
		Parts: []Part{
			TextPart("example one"),
			ImagePart(Image{URL: "https://example.test/a.jpeg"}),
			TextPart("   "),
			TextPart("now this one"),
			ImagePart(Image{Data: []byte("\x89PNG\r\n\x1a\n0000")}),
		},
		Schema: &Schema{Name: "scorebook", Schema: json.RawMessage(`{"type":"object"}`), Strict: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"players":[]}`, content)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, "json_schema", captured.ResponseFormat["type"])
	js, ok := captured.ResponseFormat["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "scorebook", js["name"])
	assert.Equal(t, true, js["strict"])

	require.Len(t, rawUser, 4)
	assert.Equal(t, "text", rawUser[0]["type"])
	assert.Equal(t, "image_url", rawUser[1]["type"])
	assert.Equal(t, "https://example.test/a.jpeg", rawUser[1]["image_url"].(map[string]any)["url"])
	assert.Equal(t, "now this one", rawUser[2]["text"])
	inline := rawUser[3]["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(inline, "data:image/png;base64,"), inline)
}

func TestCompleteJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody(`{"ok":true}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryBackoff(10*time.Millisecond, 50*time.Millisecond),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	content, err := client.CompleteJSON(context.Background(), Request{System: "s", Parts: []Part{TextPart("u")}})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, slept)
}

func TestCompleteJSON_HonoursRetryAfter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody(`{}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	_, err := client.CompleteJSON(context.Background(), Request{System: "s", Parts: []Part{TextPart("u")}})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)
}

func TestCompleteJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid image"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.CompleteJSON(context.Background(), Request{System: "s", Parts: []Part{TextPart("u")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompleteJSON_EmptyContentExhaustsAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"finish_reason": "content_filter", "message": map[string]any{"content": ""}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(2),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), Request{System: "s", Parts: []Part{TextPart("u")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Contains(t, err.Error(), "content_filter")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCompleteJSON_RequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.CompleteJSON(context.Background(), Request{System: "s", Parts: []Part{TextPart("u")}})
	require.Error(t, err)
}

func TestImageRef_RejectsNonImageBytes(t *testing.T) {
	_, err := Image{Data: []byte("plain text, not a picture")}.Ref()
	require.Error(t, err)

	_, err = Image{}.Ref()
	require.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain", content: `{"players":[{"playerName":"A"}]}`},
		{name: "fenced", content: "```json\n{\"players\":[{\"playerName\":\"A\"}]}\n```"},
		{name: "prose", content: "Here you go: {\"players\":[{\"playerName\":\"A\"}]} hope it helps"},
		{name: "empty", content: "  ", wantErr: true},
		{name: "garbage", content: "no json here", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				Players []struct {
					PlayerName string `json:"playerName"`
				} `json:"players"`
			}
			err := DecodeJSON(tc.content, &out)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out.Players, 1)
			assert.Equal(t, "A", out.Players[0].PlayerName)
		})
	}
}
