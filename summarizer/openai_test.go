package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"discord-summarizer/models"

	"github.com/stretchr/testify/require"
)

func sampleMessages() []models.Message {
	return []models.Message{
		{Author: "alice", Content: "release is out", Timestamp: time.Now()},
		{Author: "bob", Content: "nice", Timestamp: time.Now()},
	}
}

func TestOpenAIClientGenerateSummary(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A release shipped.\n"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(models.SummaryConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	out, err := c.GenerateSummary(context.Background(), sampleMessages(), "announcements")
	require.NoError(t, err)
	require.Equal(t, "A release shipped.", out)

	require.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "user", got.Messages[0].Role)
	require.Contains(t, got.Messages[0].Content, "Channel: #announcements")
	require.Contains(t, got.Messages[0].Content, "alice: release is out\nbob: nice")
}

func TestOpenAIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(models.SummaryConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.GenerateSummary(context.Background(), sampleMessages(), "general")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	c = NewOpenAIClient(models.SummaryConfig{APIKey: "sk-test", BaseURL: empty.URL})
	_, err = c.GenerateSummary(context.Background(), sampleMessages(), "general")
	require.Error(t, err)
}

func TestOpenAIClientWithoutKeyOrMessages(t *testing.T) {
	c := NewOpenAIClient(models.SummaryConfig{})

	out, err := c.GenerateSummary(context.Background(), nil, "general")
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = c.GenerateSummary(context.Background(), sampleMessages(), "general")
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBuildPromptTruncatesMessageText(t *testing.T) {
	msgs := []models.Message{{Author: "x", Content: strings.Repeat("é", 5000)}}

	prompt := BuildPrompt(msgs, "general", 100)
	require.Contains(t, prompt, "Discord channel 'general'")
	require.Contains(t, prompt, "x: "+strings.Repeat("é", 97)+"\n")
	require.NotContains(t, prompt, strings.Repeat("é", 98))
}
