package search

import (
	"strings"

	"github.com/utafrali/storefront/pkg/catalog"
)

// NormalizeText lowercases s, folds smart quotes to an apostrophe, turns every
// character other than a-z, 0-9 and whitespace into a space, then collapses
// whitespace runs and trims the ends. Lowercasing uses Go's simple case
// mapping, so a dotted capital I becomes a plain "i" rather than "i" plus a
// combining dot.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch r {
		case '‘', '’', '“', '”':
			r = '\''
		}

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		// Whitespace and everything else collapse into one separator.
		pendingSpace = true
	}
	return b.String()
}

type suffixRule struct {
	suffix, replacement string
}

// Tried in order; the first matching suffix wins.
var singularRules = []suffixRule{
	{"ies", "y"},
	{"ves", "f"},
	{"men", "man"},
	{"children", "child"},
	{"oes", "o"},
	{"sses", "ss"},
	{"xes", "x"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"s", ""},
}

// Singularize applies the first matching plural suffix rule to word.
// The final rule strips any trailing "s", so singular words ending in s
// are over-stripped ("bus" becomes "bu").
func Singularize(word string) string {
	for _, rule := range singularRules {
		if strings.HasSuffix(word, rule.suffix) {
			return strings.TrimSuffix(word, rule.suffix) + rule.replacement
		}
	}
	return word
}

// stripNonAlnum drops every character that is not an ASCII letter or digit.
func stripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

// ExpandTokens normalizes query, splits it into tokens and adds each token's
// singular and alphanumeric-only forms. Empty strings are never returned and
// every token appears once, in first-seen order.
func ExpandTokens(query string) []string {
	raw := strings.Fields(NormalizeText(query))
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(raw)*3)
	tokens := make([]string, 0, len(raw)*3)
	add := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, tok := range raw {
		add(tok)
		add(Singularize(tok))
		add(stripNonAlnum(tok))
	}
	return tokens
}

// SearchableText joins the normalized text fields of p with single spaces.
// Fields that normalize to nothing are skipped.
func SearchableText(p catalog.Product) string {
	fields := p.SearchFields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := NormalizeText(f); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}
