package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const GroqURL = "https://api.groq.com/openai/v1"

// DefaultGroqModels are tried in order; a model the API rejects moves on to
// the next one.
var DefaultGroqModels = []string{"mixtral-8x7b-32768", "llama-3.1-8b-instant", "gemma2-9b-it"}

type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Choice struct {
	Message Message `json:"message"`
}

type OpenAIResponse struct {
	Choices []Choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to any OpenAI-compatible chat completions API. Groq is
// the one configured by default.
type OpenAIClient struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Models      []string
	MaxTokens   int
	Temperature float64
	HTTP        *http.Client

	mu sync.Mutex
}

func NewGroq(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		Provider:    "groq",
		BaseURL:     GroqURL,
		APIKey:      apiKey,
		Models:      append([]string(nil), DefaultGroqModels...),
		MaxTokens:   500,
		Temperature: 0.7,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OpenAIClient) Name() string { return c.Provider }

// Chat sends a system prompt and a user message, walking the model list
// while the API answers 400, 404 or 422.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	c.mu.Lock()
	models := append([]string(nil), c.Models...)
	c.mu.Unlock()

	var lastErr error
	for _, model := range models {
		text, err := c.complete(ctx, model, messages)
		if err == nil {
			// remember the model that worked
			c.promote(model)
			return text, nil
		}
		lastErr = err
		if !IsModelRejected(err) {
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no models configured", c.Provider)
	}
	return "", lastErr
}

func (c *OpenAIClient) promote(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Models) == 0 || c.Models[0] == model {
		return
	}
	reordered := []string{model}
	for _, m := range c.Models {
		if m != model {
			reordered = append(reordered, m)
		}
	}
	c.Models = reordered
}

func (c *OpenAIClient) complete(ctx context.Context, model string, messages []Message) (string, error) {
	reqBody := OpenAIRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var openaiResp OpenAIResponse
	decodeErr := json.Unmarshal(body, &openaiResp)
	if resp.StatusCode != http.StatusOK {
		msg := truncate(string(body), 200)
		if decodeErr == nil && openaiResp.Error != nil && openaiResp.Error.Message != "" {
			msg = openaiResp.Error.Message
		}
		return "", &APIError{Provider: c.Provider, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%s: error decoding response: %w", c.Provider, decodeErr)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", c.Provider)
	}
	return openaiResp.Choices[0].Message.Content, nil
}
