// Package keywords loads the versioned keyword tables that drive topic gating,
// dialogue tracking and quick-reply suggestions. The tables are data baked into
// the binary, so classification behavior changes by editing tables.yaml only.
package keywords

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

// Tables is the parsed form of tables.yaml.
type Tables struct {
	Version         int               `yaml:"version"`
	Topics          TopicSets         `yaml:"topics"`
	Greetings       []string          `yaml:"greetings"`
	Intents         []Rule            `yaml:"intents"`
	Tones           []Rule            `yaml:"tones"`
	Entities        []Rule            `yaml:"entities"`
	PriorityUrgency []string          `yaml:"priority_urgency"`
	PricingQuery    []string          `yaml:"pricing_query"`
	Resolution      ResolutionReplies `yaml:"resolution"`
	Suggestions     SuggestionTables  `yaml:"suggestions"`
}

// TopicSets holds the three classifier sets, in check order.
type TopicSets struct {
	Casual    []string `yaml:"casual"`
	Unrelated []string `yaml:"unrelated"`
	Domain    []string `yaml:"domain"`
}

// Rule names an outcome and the words that select it.
type Rule struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

// ResolutionReplies are the exact replies accepted after "Have I solved your query?".
type ResolutionReplies struct {
	Negative []string `yaml:"negative"`
	Positive []string `yaml:"positive"`
}

// SuggestionTables groups quick replies and the rules that pick them.
type SuggestionTables struct {
	Groups map[string][]string `yaml:"groups"`
	Rules  []SuggestionRule    `yaml:"rules"`
}

// SuggestionRule yields either a named group or literal items.
type SuggestionRule struct {
	Words []string `yaml:"words"`
	Group string   `yaml:"group"`
	Items []string `yaml:"items"`
}

// Load parses the embedded tables.
func Load() (*Tables, error) {
	return Parse(embeddedTables)
}

// MustLoad is Load for package initialization; the embedded file is part of the build.
func MustLoad() *Tables {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("keywords: embedded tables invalid: %v", err))
	}
	return t
}

// Parse decodes and validates a tables document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode keyword tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.lower()
	return &t, nil
}

func (t *Tables) validate() error {
	if t.Version <= 0 {
		return errors.New("keyword tables: version must be positive")
	}
	if len(t.Topics.Casual) == 0 || len(t.Topics.Unrelated) == 0 || len(t.Topics.Domain) == 0 {
		return errors.New("keyword tables: topic sets must not be empty")
	}
	for _, r := range t.Suggestions.Rules {
		if r.Group == "" {
			continue
		}
		if _, ok := t.Suggestions.Groups[r.Group]; !ok {
			return fmt.Errorf("keyword tables: suggestion rule references unknown group %q", r.Group)
		}
	}
	return nil
}

// lower normalizes every match word so lookups only lowercase the input.
func (t *Tables) lower() {
	lowerAll := func(words []string) {
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
	}
	lowerAll(t.Topics.Casual)
	lowerAll(t.Topics.Unrelated)
	lowerAll(t.Topics.Domain)
	lowerAll(t.Greetings)
	lowerAll(t.PriorityUrgency)
	lowerAll(t.PricingQuery)
	lowerAll(t.Resolution.Negative)
	lowerAll(t.Resolution.Positive)
	for _, rules := range [][]Rule{t.Intents, t.Tones, t.Entities} {
		for i := range rules {
			lowerAll(rules[i].Words)
		}
	}
	for i := range t.Suggestions.Rules {
		lowerAll(t.Suggestions.Rules[i].Words)
	}
}

// ContainsAny reports whether text contains any of words, ignoring case.
// Words are expected in lower case.
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// FirstMatch returns the name of the first rule with a word contained in text.
func FirstMatch(text string, rules []Rule) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, w := range r.Words {
			if w != "" && strings.Contains(lower, w) {
				return r.Name, true
			}
		}
	}
	return "", false
}

// EqualsAny reports whether the trimmed, lowercased text is exactly one of words.
func EqualsAny(text string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range words {
		if lower == w {
			return true
		}
	}
	return false
}
