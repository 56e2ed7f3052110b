// Package categorizer maps merchant names onto expense categories.
//
// Categorization runs as two stages. An optional Classifier (usually an LLM)
// is asked first; its answer is kept only when it names a known category.
// Otherwise the keyword rules decide: the merchant is lower-cased and
// trimmed, and the first category in order with a keyword contained in it
// wins.
package categorizer

import (
	"context"
	"strings"
	"sync"
	"time"

	"finzora/api/logger"

	"go.uber.org/zap"
)

const Uncategorized = "Uncategorized"

// Classifier picks one label from categories for a merchant. An empty
// answer means no opinion.
type Classifier interface {
	Classify(ctx context.Context, merchant string, categories []string) (string, error)
}

var defaultRules = []struct {
	category string
	keywords []string
}{
	{"Food", []string{
		"mcdonalds", "mcdonald", "subway", "pizza", "burger", "kfc", "dominos",
		"starbucks", "coffee", "restaurant", "cafe", "diner", "food",
		"pizza hut", "taco bell", "chipotle", "applebees", "olive garden",
		"swiggy", "zomato",
	}},
	{"Transport", []string{
		"uber", "ola", "lyft", "taxi", "bus", "train", "metro",
		"railway", "gas station", "petrol", "fuel", "parking",
		"transit", "airline", "flight", "airbnb",
	}},
	{"Shopping", []string{
		"amazon", "flipkart", "walmart", "target", "ebay", "etsy",
		"mall", "store", "shop", "retail", "market", "bestbuy",
	}},
	{"Entertainment", []string{
		"netflix", "spotify", "youtube", "gaming", "movie", "cinema",
		"theater", "concert", "game", "playstation", "xbox", "steam",
	}},
	{"Utilities", []string{
		"electricity", "water", "gas", "internet", "phone", "mobile",
		"bill", "utility", "power", "broadband",
	}},
	{"Healthcare", []string{
		"hospital", "doctor", "pharmacy", "medicine", "medical",
		"clinic", "dental", "health", "gym", "fitness",
	}},
	{"Education", []string{
		"school", "university", "college", "course", "training",
		"education", "book", "learning", "tuition",
	}},
}

type Categorizer struct {
	classifier Classifier
	timeout    time.Duration

	mu    sync.RWMutex
	order []string
	rules map[string][]string
}

// New builds a categorizer with the default rules. classifier may be nil.
func New(classifier Classifier) *Categorizer {
	c := &Categorizer{
		classifier: classifier,
		timeout:    10 * time.Second,
		rules:      make(map[string][]string, len(defaultRules)),
	}
	for _, r := range defaultRules {
		c.order = append(c.order, r.category)
		c.rules[r.category] = append([]string(nil), r.keywords...)
	}
	return c
}

func (c *Categorizer) AIEnabled() bool { return c.classifier != nil }

// Categories lists the known categories in matching order.
func (c *Categorizer) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

func (c *Categorizer) isCategory(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rules[name]
	return ok
}

// Canonical returns the known spelling of name, ignoring case. Uncategorized
// is always known.
func (c *Categorizer) Canonical(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, Uncategorized) {
		return Uncategorized, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, category := range c.order {
		if strings.EqualFold(category, name) {
			return category, true
		}
	}
	return "", false
}

func (c *Categorizer) Categorize(ctx context.Context, merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		return Uncategorized
	}
	if category, ok := c.classify(ctx, merchant); ok {
		return category
	}
	return c.MatchRules(merchant)
}

// classify is the optional first stage. Failures and unknown labels are
// dropped so the rule stage always gets a say.
func (c *Categorizer) classify(ctx context.Context, merchant string) (string, bool) {
	if c.classifier == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.classifier.Classify(ctx, merchant, c.Categories())
	if err != nil {
		logger.Get().Debug("classifier failed, using keyword rules",
			zap.String("merchant", merchant),
			zap.Error(err))
		return "", false
	}
	answer = strings.TrimSpace(strings.ReplaceAll(answer, ".", ""))
	if answer == "" || !c.isCategory(answer) {
		return "", false
	}
	return answer, true
}

// MatchRules runs the deterministic keyword stage only.
func (c *Categorizer) MatchRules(merchant string) string {
	normalized := strings.ToLower(strings.TrimSpace(merchant))
	if normalized == "" {
		return Uncategorized
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, category := range c.order {
		for _, keyword := range c.rules[category] {
			if strings.Contains(normalized, keyword) {
				return category
			}
		}
	}
	return Uncategorized
}

// BulkCategorize categorizes each merchant independently.
func (c *Categorizer) BulkCategorize(ctx context.Context, merchants []string) map[string]string {
	results := make(map[string]string, len(merchants))
	for _, m := range merchants {
		results[m] = c.Categorize(ctx, m)
	}
	return results
}

// AddCustomRule appends keywords to a category, creating it at the end of
// the matching order if needed. Rules live in memory only.
func (c *Categorizer) AddCustomRule(category string, keywords []string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rules[category]; !ok {
		c.order = append(c.order, category)
	}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			c.rules[category] = append(c.rules[category], k)
		}
	}
}
