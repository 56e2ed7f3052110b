package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubClassifier struct {
	answer string
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func TestKeywordRules(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	cases := map[string]string{
		"McDonald's":         "Food",
		"  STARBUCKS #1123 ": "Food",
		"Uber Trip":          "Transport",
		"Amazon.in":          "Shopping",
		"Netflix":            "Entertainment",
		"Airtel Broadband":   "Utilities",
		"Apollo Pharmacy":    "Healthcare",
		"Coursera course":    "Education",
		"Quantum Widgets":    Uncategorized,
		"":                   Uncategorized,
	}
	for merchant, want := range cases {
		assert.Equal(t, want, c.Categorize(ctx, merchant), merchant)
	}
}

func TestRuleOrderDecidesTies(t *testing.T) {
	// "gas station" is a Transport keyword and "gas" a Utilities one.
	assert.Equal(t, "Transport", New(nil).MatchRules("Shell Gas Station"))
}

func TestClassifierStage(t *testing.T) {
	ctx := context.Background()

	s := &stubClassifier{answer: "Entertainment."}
	assert.Equal(t, "Entertainment", New(s).Categorize(ctx, "Zomato"))
	assert.Equal(t, 1, s.calls)

	// unknown labels fall through to the rules
	assert.Equal(t, "Food", New(&stubClassifier{answer: "Other"}).Categorize(ctx, "Zomato"))
	assert.Equal(t, "Food", New(&stubClassifier{err: errors.New("quota")}).Categorize(ctx, "Zomato"))
	assert.Equal(t, Uncategorized, New(&stubClassifier{answer: ""}).Categorize(ctx, "Quantum"))
}

func TestAddCustomRule(t *testing.T) {
	c := New(nil)
	assert.Equal(t, Uncategorized, c.MatchRules("LIC Premium"))

	c.AddCustomRule("Insurance", []string{" LIC ", ""})
	assert.Equal(t, "Insurance", c.MatchRules("LIC Premium"))
	assert.Equal(t, "Insurance", c.Categories()[len(c.Categories())-1])

	c.AddCustomRule("Food", []string{"Haldiram"})
	assert.Equal(t, "Food", c.MatchRules("haldiram's"))

	// a custom category is a valid classifier answer
	c.classifier = &stubClassifier{answer: "Insurance"}
	assert.Equal(t, "Insurance", c.Categorize(context.Background(), "Policybazaar"))
}

func TestBulkCategorize(t *testing.T) {
	got := New(nil).BulkCategorize(context.Background(), []string{"Uber", "Spotify", "Uber", "???"})
	assert.Equal(t, map[string]string{
		"Uber":    "Transport",
		"Spotify": "Entertainment",
		"???":     Uncategorized,
	}, got)
}

func TestCanonical(t *testing.T) {
	c := New(nil)

	got, ok := c.Canonical(" food ")
	assert.True(t, ok)
	assert.Equal(t, "Food", got)

	got, ok = c.Canonical("uncategorized")
	assert.True(t, ok)
	assert.Equal(t, Uncategorized, got)

	_, ok = c.Canonical("Bogus")
	assert.False(t, ok)

	c.AddCustomRule("Pets", []string{"vet"})
	got, ok = c.Canonical("PETS")
	assert.True(t, ok)
	assert.Equal(t, "Pets", got)
}
