package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqModelFallback(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req OpenAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		if req.Model == "mixtral-8x7b-32768" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"model decommissioned"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Save 20%."}}]}`))
	}))
	defer srv.Close()

	c := NewGroq("key")
	c.BaseURL = srv.URL
	text, err := c.Chat(context.Background(), "sys", "advice?")
	require.NoError(t, err)
	assert.Equal(t, "Save 20%.", text)
	assert.Equal(t, []string{"mixtral-8x7b-32768", "llama-3.1-8b-instant"}, seen)

	// the working model is tried first next time
	seen = nil
	_, err = c.Chat(context.Background(), "sys", "again")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama-3.1-8b-instant"}, seen)
}

func TestGroqStopsOnRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	c := NewGroq("key")
	c.BaseURL = srv.URL
	_, err := c.Chat(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, "Groq error 429: Rate limit reached", err.Error())
}

func TestHuggingFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/mistralai/Mistral-7B-Instruct-v0.1"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": body["inputs"] + " Spend less."}})
	}))
	defer srv.Close()

	h := NewHuggingFace("key")
	h.BaseURL = srv.URL
	text, err := h.Chat(context.Background(), "You are FinZora AI", "tips")
	require.NoError(t, err)
	assert.Equal(t, "Spend less.", text)
}

func TestGeminiVisionAndClassify(t *testing.T) {
	var lastParts []Part
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		if strings.Contains(r.URL.Path, "gemini-2.0-flash") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		lastParts = req.Contents[0].Parts
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" Food \n"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("key")
	g.BaseURL = srv.URL

	label, err := g.Classify(context.Background(), "Zomato", []string{"Food", "Transport"})
	require.NoError(t, err)
	assert.Equal(t, "Food", label)
	require.Len(t, lastParts, 1)
	assert.Contains(t, lastParts[0].Text, "Food, Transport, Other")

	_, err = g.Vision(context.Background(), "read this", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, lastParts, 2)
	assert.Equal(t, "image/png", lastParts[1].InlineData.MimeType)
	assert.Equal(t, "AQID", lastParts[1].InlineData.Data)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsModelRejected(&APIError{StatusCode: 422}))
	assert.False(t, IsModelRejected(&APIError{StatusCode: 500}))
	assert.False(t, IsModelRejected(errors.New("x")))
	assert.True(t, IsRateLimited(errors.New("Quota exceeded for project")))
	assert.False(t, IsRateLimited(nil))
}
