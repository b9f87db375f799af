// Package classification assigns categories to transaction descriptions.
package classification

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/finbuddy/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned when a rule cannot be used for matching.
var ErrInvalidRule = errors.New("invalid rule")

// Rule maps a set of keyword fragments to a category at a fixed confidence.
type Rule struct {
	Category   string   `yaml:"category"`
	Keywords   []string `yaml:"keywords"`
	Confidence int      `yaml:"confidence"`
}

// RuleTable matches descriptions against rules in order. It is immutable once built.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable validates rules and lowercases their keywords.
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	normalized := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("%w: rule %d has no category", ErrInvalidRule, i)
		}
		if r.Confidence < 0 || r.Confidence > 100 {
			return nil, fmt.Errorf("%w: rule %q confidence %d outside [0, 100]", ErrInvalidRule, r.Category, r.Confidence)
		}

		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRule, r.Category)
		}

		normalized = append(normalized, Rule{
			Category:   r.Category,
			Keywords:   keywords,
			Confidence: r.Confidence,
		})
	}
	return &RuleTable{rules: normalized}, nil
}

// DefaultRuleTable builds the table from DefaultRules.
func DefaultRuleTable() *RuleTable {
	table, err := NewRuleTable(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default rules are invalid: %v", err))
	}
	return table
}

// LoadRules reads a YAML list of rules.
func LoadRules(r io.Reader) (*RuleTable, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	return NewRuleTable(rules)
}

// Match returns the first rule whose keyword occurs in description, ignoring case.
// A miss is reported with ok=false and is not an error.
func (t *RuleTable) Match(description string) (model.ClassificationResult, bool) {
	lower := strings.ToLower(description)
	for _, rule := range t.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return model.ClassificationResult{
					Category:   rule.Category,
					Confidence: rule.Confidence,
					Source:     model.SourceRule,
				}, true
			}
		}
	}
	return model.ClassificationResult{}, false
}

// Rules returns a copy of the table's rules in match order.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{
			Category:   r.Category,
			Keywords:   append([]string(nil), r.Keywords...),
			Confidence: r.Confidence,
		}
	}
	return out
}

// WriteYAML renders the table in the format LoadRules accepts.
func (t *RuleTable) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.Rules()); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}
