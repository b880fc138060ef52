package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))

		status, response := handler(t, r, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func TestGenerateText(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			contents := body["contents"].([]interface{})
			parts := contents[0].(map[string]interface{})["parts"].([]interface{})
			assert.Equal(t, "hello", parts[0].(map[string]interface{})["text"])

			return http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ሰላም "},{"text":"meron"}]}}]}`
		})

		client := newTestClient(t, server)
		text, err := client.GenerateText(context.Background(), "gemini-3-flash-preview", "hello")
		require.NoError(t, err)
		assert.Equal(t, "ሰላም meron", text)
	})

	t.Run("Error Status", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			return http.StatusTooManyRequests, `{"error":{"message":"quota"}}`
		})

		client := newTestClient(t, server)
		_, err := client.GenerateText(context.Background(), "m", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("No Candidates", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			return http.StatusOK, `{"candidates":[]}`
		})

		client := newTestClient(t, server)
		_, err := client.GenerateText(context.Background(), "m", "hello")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Not Configured", func(t *testing.T) {
		client, err := NewClient(context.Background(), Config{BaseURL: "http://127.0.0.1:0"})
		require.NoError(t, err)
		_, err = client.GenerateText(context.Background(), "m", "hello")
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = client.GenerateSpeech(context.Background(), "m", "Puck", "hello")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			return http.StatusOK, `{}`
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := newTestClient(t, server)
		_, err := client.GenerateText(ctx, "m", "hello")
		assert.Error(t, err)
	})
}

func TestGenerateSpeech(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			assert.Equal(t, "/v1beta/models/gemini-2.5-flash-preview-tts:generateContent", r.URL.Path)

			cfg := body["generationConfig"].(map[string]interface{})
			assert.Equal(t, []interface{}{"AUDIO"}, cfg["responseModalities"])
			voice := cfg["speechConfig"].(map[string]interface{})["voiceConfig"].(map[string]interface{})["prebuiltVoiceConfig"].(map[string]interface{})
			assert.Equal(t, "Puck", voice["voiceName"])

			return http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;rate=24000","data":"AAEC"}}]}}]}`
		})

		client := newTestClient(t, server)
		audio, err := client.GenerateSpeech(context.Background(), "gemini-2.5-flash-preview-tts", "Puck", "hello")
		require.NoError(t, err)
		assert.Equal(t, "AAEC", audio)
	})

	t.Run("Text Only Response", func(t *testing.T) {
		server := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]interface{}) (int, string) {
			return http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"no audio"}]}}]}`
		})

		client := newTestClient(t, server)
		_, err := client.GenerateSpeech(context.Background(), "tts", "Puck", "hello")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
