package assistant

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed faqs.json
var defaultFAQs []byte

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQs answers messages that repeat a known question, ignoring case and
// surrounding whitespace.
type FAQs struct {
	answers map[string]string
}

func NewFAQs(entries []FAQ) *FAQs {
	f := &FAQs{answers: make(map[string]string, len(entries))}
	for _, e := range entries {
		f.answers[normalize(e.Question)] = e.Answer
	}
	return f
}

// DefaultFAQs returns the built-in marketplace FAQ list.
func DefaultFAQs() (*FAQs, error) {
	var entries []FAQ
	if err := json.Unmarshal(defaultFAQs, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse faqs: %w", err)
	}
	return NewFAQs(entries), nil
}

func (f *FAQs) Match(message string) (string, bool) {
	answer, ok := f.answers[normalize(message)]
	return answer, ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
