package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/satriahrh/cocoa-fruit/teacher/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *llm.GeminiClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := llm.NewGeminiClient(context.Background(), llm.Options{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestNewGeminiClientMissingKey(t *testing.T) {
	client, err := llm.NewGeminiClient(context.Background(), llm.Options{Model: "gemini-test"})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Nil(t, client)
}

func TestSendMessage(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/v1beta/")
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(data, &body))

		writeJSON(t, w, http.StatusOK, textResponse("# Hello\n\n"))
	})

	session, err := client.GenerateChat(context.Background(), domain.DefaultSessionConfig(), nil)
	require.NoError(t, err)

	reply, err := session.SendMessage(context.Background(), domain.ChatMessage{
		Role:    domain.UserRole,
		Content: "teach me",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TeacherRole, reply.Role)
	assert.Equal(t, "# Hello\n\n", reply.Content)

	contents, ok := body["contents"].([]any)
	require.True(t, ok, "request has contents")
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "parts")

	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "request has generationConfig")
	assert.EqualValues(t, 1, genCfg["temperature"])
	assert.InDelta(t, 0.95, genCfg["topP"], 1e-6)
	assert.EqualValues(t, 64, genCfg["topK"])
	assert.EqualValues(t, 8192, genCfg["maxOutputTokens"])
}

func TestSendMessageServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": 400, "message": "bad request", "status": "INVALID_ARGUMENT"},
		})
	})

	session, err := client.GenerateChat(context.Background(), domain.DefaultSessionConfig(), nil)
	require.NoError(t, err)

	_, err = session.SendMessage(context.Background(), domain.ChatMessage{Role: domain.UserRole, Content: "x"})
	assert.Error(t, err)
}

func TestSendMessageNoCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	session, err := client.GenerateChat(context.Background(), domain.DefaultSessionConfig(), nil)
	require.NoError(t, err)

	_, err = session.SendMessage(context.Background(), domain.ChatMessage{Role: domain.UserRole, Content: "x"})
	assert.Error(t, err)
}
