// Package receipt extracts merchant, amount, date and category from a
// receipt photo through a vision model.
package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finzora/api/validation"
)

var (
	ErrNotConfigured = errors.New("receipt scanning is not configured")
	ErrNoImage       = errors.New("no image provided")
	ErrBadImage      = errors.New("image is not valid base64")
)

const prompt = `Extract the following from this receipt image and reply with JSON only:
{"merchant": "store name", "amount": 0.00, "date": "YYYY-MM-DD", "category": "one of Food, Transport, Shopping, Entertainment, Utilities, Healthcare, Education, Other"}
Use the total amount paid. If a field is unreadable use an empty string or 0.`

// Vision is a model that can answer a prompt about an image.
type Vision interface {
	Vision(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

type Data struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}

type Scanner struct {
	vision Vision
}

func NewScanner(v Vision) *Scanner {
	return &Scanner{vision: v}
}

func (s *Scanner) Enabled() bool { return s != nil && s.vision != nil }

// Scan accepts raw base64 or a data URI.
func (s *Scanner) Scan(ctx context.Context, image string) (*Data, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, ErrNoImage
	}
	if i := strings.Index(image, ","); strings.HasPrefix(image, "data:") && i >= 0 {
		image = image[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, ErrBadImage
	}

	text, err := s.vision.Vision(ctx, prompt, http.DetectContentType(raw), raw)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// Parse reads the model's answer, tolerating markdown code fences and a
// quoted amount.
func Parse(text string) (*Data, error) {
	text = stripFences(text)
	var raw struct {
		Merchant string `json:"merchant"`
		Amount   any    `json:"amount"`
		Date     string `json:"date"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("could not read receipt: %w", err)
	}
	d := &Data{
		Merchant: validation.Sanitize(raw.Merchant),
		Date:     strings.TrimSpace(raw.Date),
		Category: strings.TrimSpace(raw.Category),
	}
	if n, present, ok := validation.ParseNumber(raw.Amount); present && ok {
		d.Amount = n
	}
	return d, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
