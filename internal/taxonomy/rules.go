// Package taxonomy normalizes raw care reasons into the canonical vocabulary
// and holds the governed lookup tables the classifier consumes.
package taxonomy

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Rule maps a keyword pattern to a canonical category. Rules are evaluated
// in order; the first match wins, so rule order is part of the contract.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`

	re *regexp.Regexp
}

// RuleSet is an ordered pattern cascade over one category vocabulary.
type RuleSet struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Compile validates and compiles every rule pattern. Patterns are matched
// case-insensitively against the raw reason text.
func (rs *RuleSet) Compile() error {
	for i := range rs.Rules {
		re, err := regexp.Compile("(?i)" + rs.Rules[i].Pattern)
		if err != nil {
			return eris.Wrapf(err, "taxonomy: compile rule %d of %s", i, rs.Name)
		}
		rs.Rules[i].re = re
	}
	return nil
}

// Resolve returns the category of the first matching rule. When no rule
// matches a non-empty raw value, the lowercased raw text is returned so an
// unmapped reason surfaces instead of disappearing. Empty input resolves
// to "".
func (rs *RuleSet) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for i := range rs.Rules {
		if rs.Rules[i].re.MatchString(raw) {
			return rs.Rules[i].Category
		}
	}
	return strings.ToLower(raw)
}

// Match returns the category of the first matching rule and whether any rule
// matched at all. Unlike Resolve there is no raw-text fallback: callers that
// classify into a closed vocabulary use Match so non-matching input stays
// unclassified.
func (rs *RuleSet) Match(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for i := range rs.Rules {
		if rs.Rules[i].re.MatchString(raw) {
			return rs.Rules[i].Category, true
		}
	}
	return "", false
}

// verboseRefundRe matches itemized refund phrasings like "refund due to ..."
// or "refund for ...". Those make poor categories, so the resolver defers to
// the companion contact reason instead of classifying them.
var verboseRefundRe = regexp.MustCompile(`(?i)refund\s+(due\s+to|for)\b`)

// IsVerboseRefund reports whether raw is an itemized refund phrase that
// should defer to the linked contact reason.
func IsVerboseRefund(raw string) bool {
	return verboseRefundRe.MatchString(raw)
}

// ItemRules is the default item/operational vocabulary, mirroring the
// governed adjustment/cancel reason cascade.
func ItemRules() *RuleSet {
	rs := &RuleSet{
		Name: "item",
		Rules: []Rule{
			{Pattern: `food temp|cold|quality_temp|temperature`, Category: "food temperature"},
			{Pattern: `incorrect order|incorrect item|wrong order|incorrect_item`, Category: "incorrect order"},
			{Pattern: `damaged`, Category: "food damaged"},
			{Pattern: `item removed`, Category: "item removed from order"},
			{Pattern: `missing`, Category: "missing item"},
			{Pattern: `late`, Category: "late order"},
			{Pattern: `menu error`, Category: "order or menu issue"},
			{Pattern: `temporarily unavailable|unavailable|out of stock`, Category: "out of item"},
			{Pattern: `order not rec|missed delivery|never arrived`, Category: "missed delivery"},
		},
	}
	if err := rs.Compile(); err != nil {
		panic(err) // static patterns, cannot fail
	}
	return rs
}

// GroupRules is the default group vocabulary used for the final rollup
// classification.
func GroupRules() *RuleSet {
	rs := &RuleSet{
		Name: "group",
		Rules: []Rule{
			{Pattern: `late|missed delivery|order not rec|redeliver|driver|never arrived|eta`, Category: "Logistics Issues"},
			{Pattern: `food temp|cold|temperature|incorrect|wrong order|damaged|missing|item removed|menu|unavailable|out of item|out of stock|quality`, Category: "Restaurant Issues"},
			{Pattern: `diner|changed mind|ordered by mistake|duplicate order|payment`, Category: "Diner Issues"},
		},
	}
	if err := rs.Compile(); err != nil {
		panic(err)
	}
	return rs
}

// SelfServiceCancelReasons maps diner self-cancel reason codes to canonical
// categories. Unknown codes fall through to the lowercased code itself.
var SelfServiceCancelReasons = map[string]string{
	"CHANGED_MIND":     "changed mind",
	"ORDER_MISTAKE":    "ordered by mistake",
	"ETA_TOO_LONG":     "late order",
	"ITEM_UNAVAILABLE": "out of item",
	"DUPLICATE_ORDER":  "duplicate order",
}

// ResolveSelfServiceCode normalizes a self-service cancel reason code.
func ResolveSelfServiceCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if cat, ok := SelfServiceCancelReasons[strings.ToUpper(code)]; ok {
		return cat
	}
	return strings.ToLower(code)
}
