// Package classify assigns exactly one category to a raw mobile-money message.
package classify

import (
	"regexp"
	"strings"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Rule pairs a category with the predicate that selects it. A rule matches when
// Pattern matches anywhere in the message and none of the Forbid substrings
// occur (both compared case-insensitively).
type Rule struct {
	Category transaction.Category
	Pattern  *regexp.Regexp
	Forbid   []string
}

// Matches evaluates the rule against msg.
func (r Rule) Matches(msg string) bool {
	if r.Pattern == nil {
		return false
	}
	if len(r.Forbid) > 0 {
		lower := strings.ToLower(msg)
		for _, f := range r.Forbid {
			if strings.Contains(lower, strings.ToLower(f)) {
				return false
			}
		}
	}
	return r.Pattern.MatchString(msg)
}

// Classifier walks an ordered rule table; the first matching rule wins.
type Classifier struct {
	rules []Rule
}

// New builds a classifier over rules, or over DefaultRules when none are given.
// The table is copied so later changes to the caller's slice have no effect.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	table := make([]Rule, len(rules))
	for i, r := range rules {
		r.Forbid = append([]string(nil), r.Forbid...)
		table[i] = r
	}
	return &Classifier{rules: table}
}

// Classify returns the category of msg. It never fails: messages no rule
// recognises are Uncategorized.
func (c *Classifier) Classify(msg string) transaction.Category {
	cat, _ := c.Match(msg)
	return cat
}

// Match is Classify that also reports the index of the winning rule, -1 when
// the sentinel was returned.
func (c *Classifier) Match(msg string) (transaction.Category, int) {
	for i, rule := range c.rules {
		if rule.Matches(msg) {
			return rule.Category, i
		}
	}
	return transaction.Uncategorized, -1
}

// Rules returns a copy of the rule table in priority order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
