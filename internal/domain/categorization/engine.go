package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// Keywords lists the lower case terms that suggest a category.
type Keywords struct {
	Category string
	Terms    []string
}

// Engine matches every keyword of every category in one pass over the text
// using an Aho-Corasick automaton. It is immutable once built and safe for
// concurrent use.
type Engine struct {
	matcher *ahocorasick.Matcher
	// owners[i] holds the category orders that registered pattern i.
	owners     [][]int
	categories []string
}

// NewEngine builds the automaton. Categories earlier in table win when
// several of them match the same text.
func NewEngine(table []Keywords) *Engine {
	e := &Engine{categories: make([]string, len(table))}

	index := make(map[string]int)
	var patterns []string
	for order, kw := range table {
		e.categories[order] = kw.Category
		for _, term := range kw.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if idx, ok := index[term]; ok {
				e.owners[idx] = append(e.owners[idx], order)
				continue
			}
			index[term] = len(patterns)
			patterns = append(patterns, term)
			e.owners = append(e.owners, []int{order})
		}
	}

	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return e
}

// Suggest returns the first category in table order with a keyword hit in
// text, or other.
func (e *Engine) Suggest(text string) string {
	if e.matcher == nil || text == "" {
		return common.CategoryOther
	}

	hits := e.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.owners) {
			continue
		}
		for _, order := range e.owners[idx] {
			if best == -1 || order < best {
				best = order
			}
		}
	}
	if best == -1 {
		return common.CategoryOther
	}
	return e.categories[best]
}
