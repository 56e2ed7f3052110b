package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	HuggingFaceURL   = "https://api-inference.huggingface.co/models"
	HuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.1"
)

type HuggingFace struct {
	BaseURL string
	Model   string
	APIKey  string
	HTTP    *http.Client
}

func NewHuggingFace(apiKey string) *HuggingFace {
	return &HuggingFace{
		BaseURL: HuggingFaceURL,
		Model:   HuggingFaceModel,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Chat(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\n\nUser: " + user
	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(h.BaseURL, "/") + "/" + h.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.APIKey)

	resp, err := h.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: "HF", StatusCode: resp.StatusCode, Message: truncate(string(body), 100)}
	}

	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("HF: error decoding response: %w", err)
	}
	if len(result) == 0 {
		return "", fmt.Errorf("HF: empty response")
	}
	// text-generation echoes the prompt before the completion
	return strings.TrimSpace(strings.TrimPrefix(result[0].GeneratedText, prompt)), nil
}
