// Package classifier maps merchant names to spending categories using an
// ordered keyword table. The first rule with a matching keyword wins and
// anything unmatched falls through to core.Other.
package classifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"spendtrack/internal/core"
)

// Rule assigns Category to merchants containing any of Keywords.
type Rule struct {
	Category core.Category `yaml:"category"`
	Keywords []string      `yaml:"keywords"`
}

// Classifier holds an ordered rule table. The zero value classifies
// everything as core.Other.
type Classifier struct {
	rules []Rule
}

var ErrNoRules = errors.New("no classification rules")

var defaultRules = []Rule{
	{Category: core.FoodAndDining, Keywords: []string{"starbucks", "coffee", "restaurant", "pizza"}},
	{Category: core.Groceries, Keywords: []string{"whole foods", "trader joe", "safeway", "grocery"}},
	{Category: core.Transportation, Keywords: []string{"shell", "chevron", "uber", "lyft"}},
	{Category: core.Shopping, Keywords: []string{"amazon", "target", "walmart"}},
}

var std = Default()

// Default returns a classifier using the built-in rule table.
func Default() Classifier {
	c, _ := New(defaultRules)
	return c
}

// New builds a classifier from rules, evaluated in the given order.
// Keywords are lower-cased once up front.
func New(rules []Rule) (Classifier, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !r.Category.IsValid() {
			return Classifier{}, fmt.Errorf("rule %d: %w: %q", i, core.ErrInvalidCategory, r.Category)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				kws = append(kws, k)
			}
		}
		out = append(out, Rule{Category: r.Category, Keywords: kws})
	}
	return Classifier{rules: out}, nil
}

// LoadRules reads an ordered rule table from a YAML file of the form
//
//	rules:
//	  - category: Food & Dining
//	    keywords: [starbucks, coffee]
func LoadRules(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Classifier{}, fmt.Errorf("read rules file: %w", err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Classifier{}, fmt.Errorf("parse rules file: %w", err)
	}
	if len(doc.Rules) == 0 {
		return Classifier{}, ErrNoRules
	}
	return New(doc.Rules)
}

// Rules returns a copy of the rule table.
func (c Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the category of the first rule with a keyword contained
// in merchant, compared case-insensitively.
func (c Classifier) Classify(merchant string) core.Category {
	m := strings.ToLower(merchant)
	if m == "" {
		return core.Other
	}
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(m, k) {
				return r.Category
			}
		}
	}
	return core.Other
}

// Classify categorizes merchant with the built-in rule table.
func Classify(merchant string) core.Category {
	return std.Classify(merchant)
}
