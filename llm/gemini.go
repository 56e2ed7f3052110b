package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const GeminiURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	DefaultGeminiModels     = []string{"gemini-2.0-flash", "gemini-1.5-flash-latest", "gemini-1.5-flash"}
	DefaultGeminiFastModels = []string{"gemini-2.5-flash", "gemini-2.0-flash"}
)

type Gemini struct {
	BaseURL string
	APIKey  string
	Models  []string
	HTTP    *http.Client
}

func NewGemini(apiKey string, models ...string) *Gemini {
	if len(models) == 0 {
		models = DefaultGeminiModels
	}
	return &Gemini{
		BaseURL: GeminiURL,
		APIKey:  apiKey,
		Models:  append([]string(nil), models...),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Gemini) Name() string { return "gemini" }

// Generate runs generateContent over the model list, moving to the next
// model when one is rejected.
func (g *Gemini) Generate(ctx context.Context, parts ...Part) (string, error) {
	var lastErr error
	for _, model := range g.Models {
		text, err := g.generate(ctx, model, parts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsModelRejected(err) {
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("gemini: no models configured")
	}
	return "", lastErr
}

func (g *Gemini) generate(ctx context.Context, model string, parts []Part) (string, error) {
	payload, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.BaseURL, "/"), model, url.QueryEscape(g.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var out generateResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := truncate(string(body), 100)
		if decodeErr == nil && out.Error != nil {
			msg = truncate(out.Error.Message, 100)
		}
		return "", &APIError{Provider: "gemini", StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("gemini: error decoding response: %w", decodeErr)
	}

	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return sb.String(), nil
}

func (g *Gemini) Chat(ctx context.Context, system, user string) (string, error) {
	return g.Generate(ctx, Part{Text: system + "\n\nUser: " + user})
}

// Vision sends an instruction together with an image.
func (g *Gemini) Vision(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return g.Generate(ctx,
		Part{Text: prompt},
		Part{InlineData: &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	)
}

// Classify asks for exactly one of categories (or Other) for a merchant.
func (g *Gemini) Classify(ctx context.Context, merchant string, categories []string) (string, error) {
	prompt := fmt.Sprintf(
		"Categorize this transaction merchant: '%s' into one of these exact categories: %s, Other. Return ONLY the category word.",
		merchant, strings.Join(categories, ", "))
	text, err := g.Generate(ctx, Part{Text: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
