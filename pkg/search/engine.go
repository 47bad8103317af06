// Package search ranks catalog products against a free-text query.
//
// Matching is presence based: a product scores one point for every distinct
// expanded query token found in its searchable text. Results are ordered by
// descending score with ties kept in input order. When nothing matches, the
// whole input list is returned unless the fallback policy is switched off.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/utafrali/storefront/pkg/catalog"
)

// MatchMode selects how a token is tested against searchable text.
type MatchMode string

const (
	// MatchSubstring passes when the token occurs anywhere in the text.
	MatchSubstring MatchMode = "substring"
	// MatchWholeWord passes only when the token is a complete word of the text.
	MatchWholeWord MatchMode = "word"
)

// ParseMatchMode converts a configuration value into a MatchMode.
// An empty value selects MatchSubstring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWholeWord, "whole_word", "whole-word":
		return MatchWholeWord, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// Options are the engine's policy switches.
type Options struct {
	// FallbackToAll returns the unfiltered input when a non-empty query
	// matches nothing.
	FallbackToAll bool
	Match         MatchMode
}

// DefaultOptions returns substring matching with fallback enabled.
func DefaultOptions() Options {
	return Options{
		FallbackToAll: true,
		Match:         MatchSubstring,
	}
}

// Match is a product with its relevance score.
type Match struct {
	Product catalog.Product `json:"product"`
	Score   int             `json:"score"`
}

// Ranking is the outcome of ranking one query.
type Ranking struct {
	Matches []Match `json:"matches"`
	// Fallback is set when a non-empty query matched nothing and the
	// unfiltered input was returned instead.
	Fallback bool `json:"fallback"`
	// Empty is set when the query had no usable tokens.
	Empty bool `json:"empty"`
}

// Products returns the ranked products without scores.
func (r Ranking) Products() []catalog.Product {
	out := make([]catalog.Product, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Product
	}
	return out
}

// Engine is a stateless matcher configured with Options. It is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.Match == "" {
		opts.Match = MatchSubstring
	}
	return &Engine{opts: opts}
}

// Options returns the engine's policy switches.
func (e *Engine) Options() Options {
	return e.opts
}

// Search returns the products matching query, best first.
func (e *Engine) Search(query string, products []catalog.Product) []catalog.Product {
	r := e.Rank(query, products)
	if r.Empty || r.Fallback {
		return products
	}
	return r.Products()
}

// Rank scores every product against query and returns the ordered matches.
func (e *Engine) Rank(query string, products []catalog.Product) Ranking {
	tokens := ExpandTokens(query)
	if len(tokens) == 0 {
		return Ranking{Matches: unscored(products), Empty: true}
	}

	matches := make([]Match, 0, len(products))
	for _, p := range products {
		if score := e.Score(tokens, SearchableText(p)); score > 0 {
			matches = append(matches, Match{Product: p, Score: score})
		}
	}

	if len(matches) == 0 {
		if e.opts.FallbackToAll {
			return Ranking{Matches: unscored(products), Fallback: true}
		}
		return Ranking{Matches: []Match{}}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return Ranking{Matches: matches}
}

// Score counts the distinct tokens found in text.
func (e *Engine) Score(tokens []string, text string) int {
	if text == "" {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	score := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if e.matches(tok, text) {
			score++
		}
	}
	return score
}

func (e *Engine) matches(token, text string) bool {
	if e.opts.Match == MatchWholeWord {
		return containsWord(text, token)
	}
	return strings.Contains(text, token)
}

// containsWord reports whether token occurs in text bounded on both sides by
// a non-alphanumeric character or the string edge.
func containsWord(text, token string) bool {
	for from := 0; from <= len(text)-len(token); {
		i := strings.Index(text[from:], token)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(token)
		if (start == 0 || !isAlnum(text[start-1])) && (end == len(text) || !isAlnum(text[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func unscored(products []catalog.Product) []Match {
	out := make([]Match, len(products))
	for i, p := range products {
		out[i] = Match{Product: p}
	}
	return out
}

var defaultEngine = NewEngine(DefaultOptions())

// Search runs query against products with DefaultOptions.
func Search(query string, products []catalog.Product) []catalog.Product {
	return defaultEngine.Search(query, products)
}
