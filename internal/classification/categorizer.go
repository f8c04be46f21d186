// Package classification assigns keyword-derived categories to grants.
package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/grantlens/internal/model"
)

// Rule validation errors.
var (
	ErrEmptyCategory   = errors.New("rule has no category")
	ErrEmptyRule       = errors.New("rule has no keywords or predicate")
	ErrReservedLabel   = errors.New("category is reserved for fallbacks")
	ErrUnknownCategory = errors.New("category is not a known label")
)

// Predicate reports whether a lower-cased description matches a rule.
type Predicate func(lowered string) bool

// Rule pairs a category with the predicate that selects it. When Match is
// nil the rule matches any description containing one of its Keywords.
type Rule struct {
	Match    Predicate
	Category model.Category
	Keywords []string
}

func (r Rule) predicate() Predicate {
	if r.Match != nil {
		return r.Match
	}
	keywords := make([]string, len(r.Keywords))
	for i, kw := range r.Keywords {
		keywords[i] = strings.ToLower(kw)
	}
	return func(lowered string) bool {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
		return false
	}
}

type compiledRule struct {
	match    Predicate
	category model.Category
}

// Categorizer evaluates an ordered rule list; the first matching rule wins.
type Categorizer struct {
	rules []compiledRule
}

// NewCategorizer creates a categorizer that checks rules in the given order.
func NewCategorizer(rules []Rule) (*Categorizer, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Categorizer{rules: compiled}, nil
}

// NewDefaultCategorizer returns a categorizer using DefaultRules.
func NewDefaultCategorizer() *Categorizer {
	c, err := NewCategorizer(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default rules are invalid: %v", err))
	}
	return c
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(string(r.Category)) == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyCategory)
		}
		if r.Category == model.CategoryUncategorized || r.Category == model.CategoryOther {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, ErrReservedLabel)
		}
		if !r.Category.IsValid() {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, ErrUnknownCategory)
		}
		if r.Match == nil && len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, ErrEmptyRule)
		}
		compiled = append(compiled, compiledRule{
			category: r.Category,
			match:    r.predicate(),
		})
	}
	return compiled, nil
}

// CategorizeDescription labels a single description. A nil or empty
// description is Uncategorized; anything else matching no rule, whitespace
// included, is Other.
func (c *Categorizer) CategorizeDescription(desc *string) model.Category {
	if desc == nil || *desc == "" {
		return model.CategoryUncategorized
	}

	lowered := strings.ToLower(*desc)
	for _, rule := range c.rules {
		if rule.match(lowered) {
			return rule.category
		}
	}
	return model.CategoryOther
}

// Categorize returns a copy of grants with Category set on every row.
func (c *Categorizer) Categorize(grants []model.Grant) []model.Grant {
	out := make([]model.Grant, len(grants))
	for i, g := range grants {
		g.Category = c.CategorizeDescription(g.Description)
		out[i] = g
	}
	return out
}

// CategorizeMerged returns a copy of merged rows with Category set.
func (c *Categorizer) CategorizeMerged(merged []model.MergedGrant) []model.MergedGrant {
	out := make([]model.MergedGrant, len(merged))
	for i, m := range merged {
		m.Category = c.CategorizeDescription(m.Description)
		out[i] = m
	}
	return out
}

// CategorizeDataset returns a new dataset whose grants and merged rows carry
// categories. The input dataset is left untouched.
func (c *Categorizer) CategorizeDataset(ctx context.Context, ds *model.Dataset) (*model.Dataset, error) {
	if ds == nil {
		return nil, errors.New("dataset is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &model.Dataset{
		Grants:      c.Categorize(ds.Grants),
		Grantmakers: ds.Grantmakers,
		Merged:      c.CategorizeMerged(ds.Merged),
		Report:      ds.Report,
	}, nil
}
